package cache

const defaultMaxEntries = 10_000

type options struct {
	maxEntries    int
	redisAddr     string
	redisPassword string
	redisDB       int
	sqlitePath    string
}

func defaultOptions() options {
	return options{
		maxEntries: defaultMaxEntries,
		redisAddr:  "localhost:6379",
		sqlitePath: "sniped-cache.db",
	}
}

// Option applies a configuration option to Open.
type Option func(*options)

// WithMaxEntries bounds the in-memory backend. Values <= 0 mean unbounded.
func WithMaxEntries(n int) Option {
	return func(o *options) { o.maxEntries = n }
}

// WithRedis configures the Redis backend.
func WithRedis(addr, password string, db int) Option {
	return func(o *options) {
		if addr != "" {
			o.redisAddr = addr
		}
		o.redisPassword = password
		o.redisDB = db
	}
}

// WithSQLitePath sets the SQLite database file.
func WithSQLitePath(path string) Option {
	return func(o *options) {
		if path != "" {
			o.sqlitePath = path
		}
	}
}
