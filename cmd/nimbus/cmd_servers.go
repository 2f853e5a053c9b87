package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"nimbus/internal/format"
	"nimbus/internal/hostconfig"
)

var serversFlags struct {
	markdown bool
}

var serversCmd = &cobra.Command{
	Use:   "servers",
	Short: "List MCP servers registered in the desktop host config",
	RunE:  runServers,
}

func init() {
	f := serversCmd.Flags()
	f.StringVar(&installFlags.configPath, "host-config", "", "Path to the host's MCP config file (default: per-OS location)")
	f.BoolVar(&serversFlags.markdown, "markdown", false, "Render the table as Markdown")
}

func runServers(cmd *cobra.Command, _ []string) error {
	path, err := hostConfigPath()
	if err != nil {
		return err
	}
	f, err := hostconfig.Load(path)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	names := f.Names()
	if len(names) == 0 {
		fmt.Fprintf(out, "No MCP servers registered in %s.\n", path)
		return nil
	}

	mode := format.ASCII
	if serversFlags.markdown {
		mode = format.Markdown
	}
	tbl := format.NewTable(mode)
	tbl.Header("NAME", "COMMAND", "ARGS", "CWD")
	tbl.WidthMax(2, 40)
	tbl.WidthMax(3, 40)

	for _, name := range names {
		entry, _, err := f.Get(name)
		if err != nil {
			return err
		}
		cwd := entry.Cwd
		if cwd == "" {
			cwd = "-"
		}
		tbl.Row(name, entry.Command, strings.Join(entry.Args, " "), cwd)
	}
	fmt.Fprintln(out, tbl.String())
	fmt.Fprintf(out, "%d server(s) in %s\n", len(names), path)
	return nil
}
