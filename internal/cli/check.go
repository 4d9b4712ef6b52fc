package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/okian/sniped/internal/adapters/riot"
	"github.com/okian/sniped/internal/domain/riotid"
)

func (a *App) checkCmd() *cobra.Command {
	var flagRegion string
	cmd := &cobra.Command{
		Use:   "check [name#tag]",
		Short: "Validate the API key and resolve a known player",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCheck(cmd.Context(), cmd.OutOrStdout(), args, flagRegion)
		},
	}
	cmd.Flags().StringVarP(&flagRegion, "region", "r", "", "platform region, e.g. EUW1")
	return cmd
}

func (a *App) runCheck(ctx context.Context, out io.Writer, args []string, flagRegion string) error {
	cfg, err := a.requireKey(ctx)
	if err != nil {
		return err
	}
	id, r, err := a.target(args, flagRegion)
	if errors.Is(err, ErrNoTarget) {
		r, err = pickRegion(flagRegion)
	}
	if err != nil {
		return err
	}

	client, err := riot.NewClient(cfg.RiotAPIKey,
		riot.WithBaseURL(cfg.RiotBaseURL),
		riot.WithTimeout(cfg.RequestTimeout()),
		riot.WithMaxRetries(cfg.MaxRetries),
	)
	if err != nil {
		return err
	}

	ok, err := client.ValidateKey(ctx, r)
	if err != nil {
		return fmt.Errorf("failed to reach the Riot API: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w (%s)", ErrKeyInvalid, maskKey(cfg.RiotAPIKey))
	}
	fmt.Fprintf(out, "API key %s is valid.\n", maskKey(cfg.RiotAPIKey))

	if id == (riotid.ID{}) {
		return nil
	}
	puuid, err := client.AccountByRiotID(ctx, id, r)
	switch {
	case errors.Is(err, riot.ErrNotFound):
		_, err = fmt.Fprintf(out, "Player %s was not found in %s.\n", id, r.Routing())
		return err
	case err != nil:
		return err
	}
	if len(puuid) > 10 {
		puuid = puuid[:10] + "..."
	}
	_, err = fmt.Fprintf(out, "Resolved %s to %s\n", id, puuid)
	return err
}
