package snipe

// Option applies a configuration option to the Analyzer.
type Option func(*Analyzer)

// WithHistoryLimit caps how many of the most recent matches are considered.
// Values <= 0 keep the default.
func WithHistoryLimit(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.historyLimit = n
		}
	}
}
