// Package cli implements sniped-cli, a terminal front end for the snipe
// search. Searches run in-process against the Riot API or, with --server,
// against a running sniped server.
package cli

import (
	"context"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/okian/sniped/internal/config"
	"github.com/okian/sniped/pkg/logger"
)

// Version is stamped at build time.
var Version = "dev"

const (
	defaultMatches       = 20
	defaultRemoteTimeout = 3 * time.Minute
)

// App holds state shared by all commands.
type App struct {
	configPath string
	memoryPath string
	verbose    bool
	httpClient *http.Client
}

// Option configures an App.
type Option func(*App)

// WithConfigPath sets the CLI config file.
func WithConfigPath(path string) Option {
	return func(a *App) {
		if path != "" {
			a.configPath = path
		}
	}
}

// WithMemoryPath sets the file remembering the last search.
func WithMemoryPath(path string) Option {
	return func(a *App) {
		if path != "" {
			a.memoryPath = path
		}
	}
}

// WithHTTPClient sets the client used for --server searches.
func WithHTTPClient(c *http.Client) Option {
	return func(a *App) {
		if c != nil {
			a.httpClient = c
		}
	}
}

// New creates an App with per-user default paths.
func New(opts ...Option) *App {
	dir := defaultDir()
	a := &App{
		configPath: filepath.Join(dir, configFileName),
		memoryPath: filepath.Join(dir, memoryFileName),
		httpClient: &http.Client{Timeout: defaultRemoteTimeout},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Command builds the root command.
func (a *App) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "sniped-cli",
		Short:         "Find players in your live League of Legends lobby that you have met before.",
		Args:          cobra.NoArgs,
		Version:       Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.Init(logger.WithOutput(cmd.ErrOrStderr())); err != nil {
				return err
			}
			level := "warn"
			if a.verbose {
				level = "debug"
			}
			return logger.SetLevelString(level)
		},
	}

	fs := cmd.PersistentFlags()
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})
	fs.StringVar(&a.configPath, "config", a.configPath, "path to the CLI config file")
	fs.StringVar(&a.memoryPath, "memory", a.memoryPath, "path to the file remembering the last search")
	fs.BoolVarP(&a.verbose, "verbose", "v", false, "log provider calls to stderr")

	cmd.AddCommand(
		a.queryCmd(),
		a.checkCmd(),
		a.regionsCmd(),
		a.configCmd(),
	)

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetVersionTemplate("sniped-cli v{{.Version}}\n")
	return cmd
}

// loadConfig layers the CLI config file under the usual env overrides.
// SNIPED_CONFIG is used when the CLI file does not exist.
func (a *App) loadConfig(ctx context.Context) (*config.Config, error) {
	path := a.configPath
	if !exists(path) {
		path = ""
	}
	if path == "" {
		return config.Load(ctx)
	}
	return config.LoadFrom(ctx, path)
}

// requireKey loads the config and fails without an API key.
func (a *App) requireKey(ctx context.Context) (*config.Config, error) {
	cfg, err := a.loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.RiotAPIKey) == "" {
		return nil, ErrNoAPIKey
	}
	return cfg, nil
}

// maskKey shows only the ends of a key.
func maskKey(key string) string {
	switch {
	case key == "":
		return "not set"
	case len(key) <= 8:
		return strings.Repeat("*", len(key))
	default:
		return key[:4] + "..." + key[len(key)-4:]
	}
}
