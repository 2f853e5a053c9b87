package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"nimbus/internal/format"
)

var historyFlags struct {
	limit    int
	show     string
	markdown bool
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded chat sessions",
	Long: `Lists chat sessions recorded in the local database, newest first.
Use --show <session-id> to print a session's full transcript.`,
	RunE: runHistory,
}

func init() {
	f := historyCmd.Flags()
	f.IntVar(&historyFlags.limit, "limit", 20, "Maximum number of sessions to list")
	f.StringVar(&historyFlags.show, "show", "", "Print the transcript of the given session ID")
	f.BoolVar(&historyFlags.markdown, "markdown", false, "Render the session table as Markdown")
}

func runHistory(cmd *cobra.Command, _ []string) error {
	s := openStore()
	if s == nil {
		return fmt.Errorf("history unavailable: cannot open store at %s", cfg.DBPath)
	}
	defer s.Close()

	out := cmd.OutOrStdout()

	if historyFlags.show != "" {
		turns, err := s.ListTurns(historyFlags.show)
		if err != nil {
			return err
		}
		if len(turns) == 0 {
			fmt.Fprintf(out, "No turns recorded for session %s.\n", historyFlags.show)
			return nil
		}
		for _, t := range turns {
			fmt.Fprintf(out, "[%s] %s: %s\n", t.CreatedAt.Format("15:04:05"), t.Role, t.Content)
		}
		return nil
	}

	sessions, err := s.ListSessions(historyFlags.limit)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Fprintln(out, "No chat sessions recorded.")
		return nil
	}

	mode := format.ASCII
	if historyFlags.markdown {
		mode = format.Markdown
	}
	tbl := format.NewTable(mode)
	tbl.Header("SESSION", "SERVER", "STARTED")
	tbl.WidthMax(2, 50)

	for _, sess := range sessions {
		tbl.Row(sess.ID, format.Truncate(sess.Server, 120), format.FmtAge(sess.StartedAt))
	}
	fmt.Fprintln(out, tbl.String())
	fmt.Fprintf(out, "%d session(s). Use --show <id> for a transcript.\n", len(sessions))
	return nil
}
