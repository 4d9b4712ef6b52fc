package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func (a *App) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change CLI settings",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			file := a.configPath
			if !exists(file) {
				file += " (missing)"
			}
			mem, err := loadMemory(a.memoryPath)
			if err != nil {
				return err
			}
			last := "none"
			if mem.GameName != "" {
				last = fmt.Sprintf("%s#%s (%s)", mem.GameName, mem.TagLine, mem.Region)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "config file\t%s\n", file)
			fmt.Fprintf(tw, "api key\t%s\n", maskKey(cfg.RiotAPIKey))
			if cfg.RiotBaseURL != "" {
				fmt.Fprintf(tw, "api base url\t%s\n", cfg.RiotBaseURL)
			}
			fmt.Fprintf(tw, "cache\t%s\n", cfg.CacheBackend)
			fmt.Fprintf(tw, "self fallback\t%s\n", cfg.SelfFallback)
			fmt.Fprintf(tw, "last search\t%s\n", last)
			return tw.Flush()
		},
	}

	setKeyCmd := &cobra.Command{
		Use:   "set-key <key>",
		Short: "Store the Riot API key in the config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := strings.TrimSpace(args[0])
			if key == "" {
				return ErrNoAPIKey
			}
			if err := setKey(a.configPath, key); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Saved key %s to %s\n", maskKey(key), a.configPath)
			return err
		},
	}

	cmd.AddCommand(show, setKeyCmd)
	return cmd
}
