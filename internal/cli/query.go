package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/sniped/internal/adapters/http/api"
	service "github.com/okian/sniped/internal/app"
	"github.com/okian/sniped/internal/config"
	"github.com/okian/sniped/internal/domain/region"
	"github.com/okian/sniped/internal/domain/riotid"
)

const lastPlayedLayout = "2006-01-02 15:04"

type queryOptions struct {
	region  string
	matches int
	server  string
}

func (a *App) queryCmd() *cobra.Command {
	var opts queryOptions
	cmd := &cobra.Command{
		Use:   "query [name#tag]",
		Short: "Check a player's live game and list lobby members from their recent matches",
		Long: "Without an argument the last searched player is used. " +
			"The region defaults to the remembered one, then NA1.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runQuery(cmd.Context(), cmd.OutOrStdout(), args, opts)
		},
	}
	fs := cmd.Flags()
	fs.StringVarP(&opts.region, "region", "r", "", "platform region, e.g. EUW1")
	fs.IntVarP(&opts.matches, "matches", "m", defaultMatches, "recent matches to cross-reference (1-100)")
	fs.StringVar(&opts.server, "server", "", "query a running sniped server at this URL instead of the Riot API")
	return cmd
}

// target resolves the player and region from args, flags and memory.
func (a *App) target(args []string, flagRegion string) (riotid.ID, region.Region, error) {
	mem, err := loadMemory(a.memoryPath)
	if err != nil {
		return riotid.ID{}, "", err
	}

	var id riotid.ID
	switch {
	case len(args) == 1:
		id, err = riotid.Parse(args[0])
	case mem.GameName != "":
		id, err = riotid.New(mem.GameName, mem.TagLine)
	default:
		return riotid.ID{}, "", ErrNoTarget
	}
	if err != nil {
		return riotid.ID{}, "", err
	}

	r, err := pickRegion(flagRegion, mem.Region)
	if err != nil {
		return riotid.ID{}, "", err
	}
	return id, r, nil
}

// pickRegion returns the first non-empty candidate, or NA1.
func pickRegion(candidates ...string) (region.Region, error) {
	for _, c := range candidates {
		if c != "" {
			return region.Parse(c)
		}
	}
	return region.NA1, nil
}

func (a *App) runQuery(ctx context.Context, out io.Writer, args []string, opts queryOptions) error {
	if opts.matches < 1 || opts.matches > config.MaxHistoryLimit {
		return fmt.Errorf("--matches must be within 1..%d, got %d", config.MaxHistoryLimit, opts.matches)
	}
	id, r, err := a.target(args, opts.region)
	if err != nil {
		return err
	}
	if err := saveMemory(a.memoryPath, Memory{GameName: id.Name, TagLine: id.Tag, Region: r.String()}); err != nil {
		fmt.Fprintf(out, "warning: could not remember this search: %v\n", err)
	}

	var view api.SearchView
	if opts.server != "" {
		view, err = a.searchRemote(ctx, opts.server, id, r)
	} else {
		view, err = a.searchLocal(ctx, id, r, opts.matches)
	}
	if err != nil {
		return err
	}
	return render(out, id, view, opts.matches)
}

// searchLocal runs the pipeline in-process.
func (a *App) searchLocal(ctx context.Context, id riotid.ID, r region.Region, matches int) (api.SearchView, error) {
	cfg, err := a.requireKey(ctx)
	if err != nil {
		return api.SearchView{}, err
	}
	cfg.ChampionRefreshIntervalMinutes = 0

	stack, err := service.NewStack(ctx, cfg, service.WithHistoryLimit(matches))
	if err != nil {
		return api.SearchView{}, err
	}
	defer func() { _ = stack.Close() }()

	res, err := stack.Service.Search(ctx, id.Name, id.Tag, r.String())
	if err != nil {
		return api.SearchView{}, err
	}
	return api.NewSearchView(res, stack.Champions), nil
}

// searchRemote runs POST /api/search on a sniped server. The server's own
// history window applies.
func (a *App) searchRemote(ctx context.Context, server string, id riotid.ID, r region.Region) (api.SearchView, error) {
	body, err := json.Marshal(map[string]string{
		"gameName": id.Name,
		"tagLine":  id.Tag,
		"region":   r.String(),
	})
	if err != nil {
		return api.SearchView{}, err
	}
	u := strings.TrimRight(server, "/") + "/api/search"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return api.SearchView{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return api.SearchView{}, fmt.Errorf("%w: %w", ErrRemote, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		var e struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return api.SearchView{}, &RemoteError{Status: resp.StatusCode, Code: e.Code, Message: e.Message}
	}

	var view api.SearchView
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		return api.SearchView{}, fmt.Errorf("%w: bad response: %w", ErrRemote, err)
	}
	return view, nil
}

// render prints a search result as a table of snipes.
func render(out io.Writer, id riotid.ID, v api.SearchView, matches int) error {
	if !v.Game.InGame {
		_, err := fmt.Fprintf(out, "%s is not currently in a live game.\n", id)
		return err
	}

	fmt.Fprintf(out, "Active game found: %s (%s)\n", v.Game.GameMode, v.Region)
	if !v.Game.SelfResolved {
		fmt.Fprintf(out, "warning: %s was not identified in the lobby; results use the account id\n", id)
	}
	if len(v.Snipes) == 0 {
		_, err := fmt.Fprintf(out, "No snipers found (no shared matches in the last %d games).\n", matches)
		return err
	}

	fmt.Fprintf(out, "Potential snipers (shared matches in the last %d games):\n", matches)
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PLAYER\tCHAMPION\tGAMES\tWITH/AGAINST\tW-L\tWIN RATE\tLAST PLAYED")
	for _, s := range v.Snipes {
		with := 0
		for _, m := range s.Matches {
			if m.Team == "with" {
				with++
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d/%d\t%d-%d\t%d%%\t%s\n",
			displayName(s.PlayerView),
			championLabel(s.PlayerView),
			s.TotalGames,
			with, len(s.Matches)-with,
			s.Wins, s.Losses,
			s.WinRate,
			lastPlayed(s.LastPlayed),
		)
	}
	return tw.Flush()
}

func displayName(p api.PlayerView) string {
	if p.TagLine == "" {
		return p.SummonerName
	}
	return p.SummonerName + "#" + p.TagLine
}

func championLabel(p api.PlayerView) string {
	if p.ChampionName != "" {
		return p.ChampionName
	}
	return fmt.Sprintf("#%d", p.ChampionID)
}

func lastPlayed(ms int64) string {
	if ms <= 0 {
		return "N/A"
	}
	return time.UnixMilli(ms).UTC().Format(lastPlayedLayout)
}
