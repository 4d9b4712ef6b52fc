// Package champions resolves champion ids to display names. A small static
// table is always available; the full table is loaded from Data Dragon.
package champions

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/okian/sniped/pkg/logger"
	"github.com/okian/sniped/pkg/metrics"
)

// DefaultDataURL is the public Data Dragon root.
const DefaultDataURL = "https://ddragon.leagueoflegends.com"

// seed is served until the first successful Load.
var seed = map[int]string{ //nolint:gochecknoglobals // read-only seed table
	1:   "Annie",
	2:   "Olaf",
	3:   "Galio",
	4:   "Twisted Fate",
	5:   "Xin Zhao",
	21:  "Miss Fortune",
	64:  "Lee Sin",
	81:  "Ezreal",
	157: "Yasuo",
	202: "Jhin",
	222: "Jinx",
	236: "Lucian",
	412: "Thresh",
}

type championData struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
}

// Registry is a concurrency-safe champion id to name table.
type Registry struct {
	mu      sync.RWMutex
	names   map[int]string
	version string
	loaded  time.Time

	baseURL    string
	httpClient *http.Client
	log        logger.Logger
}

// Option applies a configuration option to the Registry.
type Option func(*Registry)

// WithBaseURL overrides the Data Dragon root.
func WithBaseURL(url string) Option {
	return func(r *Registry) {
		if url != "" {
			r.baseURL = strings.TrimRight(url, "/")
		}
	}
}

// WithHTTPClient sets the client used by Load.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Registry) {
		if c != nil {
			r.httpClient = c
		}
	}
}

// WithLogger sets the registry logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.log = l
		}
	}
}

// NewRegistry creates a Registry holding the seed table.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		names:      make(map[int]string, len(seed)),
		baseURL:    DefaultDataURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for id, name := range seed {
		r.names[id] = name
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = logger.Get().Named("champions")
	}
	metrics.UpdateChampionCount(len(r.names))
	return r
}

// ChampionName returns the display name for id.
func (r *Registry) ChampionName(id int) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.names[id]
	return name, ok
}

// Name returns the display name for id or a placeholder.
func (r *Registry) Name(id int) string {
	if name, ok := r.ChampionName(id); ok {
		return name
	}
	return fmt.Sprintf("Champion %d", id)
}

// Len returns how many champions are known.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.names)
}

// Version returns the loaded Data Dragon version, empty before any Load.
func (r *Registry) Version() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}

// LoadedAt returns the time of the last successful Load.
func (r *Registry) LoadedAt() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loaded
}

// Load fetches the latest champion table. On failure the current table is kept.
func (r *Registry) Load(ctx context.Context) error {
	var versions []string
	if err := r.getJSON(ctx, r.baseURL+"/api/versions.json", &versions); err != nil {
		metrics.RecordChampionRefresh("error")
		return fmt.Errorf("failed to fetch versions: %w", err)
	}
	if len(versions) == 0 {
		metrics.RecordChampionRefresh("error")
		return ErrNoVersions
	}
	latest := versions[0]

	var payload struct {
		Data map[string]championData `json:"data"`
	}
	url := fmt.Sprintf("%s/cdn/%s/data/en_US/champion.json", r.baseURL, latest)
	if err := r.getJSON(ctx, url, &payload); err != nil {
		metrics.RecordChampionRefresh("error")
		return fmt.Errorf("failed to fetch champions: %w", err)
	}

	names := make(map[int]string, len(payload.Data)+len(seed))
	for id, name := range seed {
		names[id] = name
	}
	for _, champ := range payload.Data {
		key, err := strconv.Atoi(champ.Key)
		if err != nil {
			continue
		}
		names[key] = champ.Name
	}

	r.mu.Lock()
	r.names = names
	r.version = latest
	r.loaded = time.Now()
	r.mu.Unlock()

	metrics.UpdateChampionCount(len(names))
	metrics.RecordChampionRefresh("ok")
	r.log.Info(ctx, "champion table loaded", logger.Int("count", len(names)), logger.String("version", latest))
	return nil
}

func (r *Registry) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s returned %d", ErrUnexpectedStatus, url, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
