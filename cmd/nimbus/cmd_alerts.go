package main

import (
	"fmt"
	"sort"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"nimbus/internal/format"
	"nimbus/internal/nws"
)

var alertsFlags struct {
	full     bool
	markdown bool
}

var alertsCmd = &cobra.Command{
	Use:   "alerts <STATE>...",
	Short: "Show active weather alerts for one or more US states",
	Long: `Fetches active National Weather Service alerts for the given two-letter
state codes. Multiple states are fetched concurrently.

Examples:
  nimbus alerts CA
  nimbus alerts CA OR WA --full`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAlerts,
}

func init() {
	f := alertsCmd.Flags()
	f.BoolVar(&alertsFlags.full, "full", false, "Print full alert text instead of a summary table")
	f.BoolVar(&alertsFlags.markdown, "markdown", false, "Render the summary table as Markdown")
}

func runAlerts(cmd *cobra.Command, args []string) error {
	s := openStore()
	if s != nil {
		defer s.Close()
	}
	weather, err := newWeatherClient(s, alertsCacheTTL)
	if err != nil {
		return err
	}

	var mu sync.Mutex
	byState := make(map[string]*nws.AlertCollection, len(args))

	g, ctx := errgroup.WithContext(cmd.Context())
	for _, state := range args {
		g.Go(func() error {
			ac, err := weather.ActiveAlerts(ctx, state)
			if err != nil {
				return err
			}
			mu.Lock()
			byState[state] = ac
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	states := make([]string, 0, len(byState))
	for state := range byState {
		states = append(states, state)
	}
	sort.Strings(states)

	if alertsFlags.full {
		for _, state := range states {
			fmt.Fprintf(out, "=== %s ===\n%s\n", state, nws.FormatAlerts(state, byState[state]))
		}
		return nil
	}

	mode := format.ASCII
	if alertsFlags.markdown {
		mode = format.Markdown
	}
	tbl := format.NewTable(mode)
	tbl.Header("STATE", "EVENT", "SEVERITY", "AREA")
	tbl.WidthMax(4, 60)

	total := 0
	for _, state := range states {
		for _, f := range byState[state].Features {
			p := f.Properties
			tbl.Row(state, p.Event, p.Severity, format.Truncate(p.AreaDesc, 120))
			total++
		}
	}
	if total == 0 {
		fmt.Fprintf(out, "No active alerts for %v.\n", states)
		return nil
	}
	fmt.Fprintln(out, tbl.String())
	fmt.Fprintf(out, "%d active alert(s). Use --full for details.\n", total)
	return nil
}
