package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"nimbus/internal/hostconfig"
)

var installFlags struct {
	configPath string
	name       string
	command    string
	args       []string
	cwd        string
	env        []string
}

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Register the weather server with the desktop host",
	Long: `Adds an entry to the desktop host's MCP config file so it launches the
weather server on startup. By default the entry runs this binary's "serve"
command; --command/--args register an arbitrary server instead.

The config file location is detected per OS; override with --host-config.`,
	RunE: runInstall,
}

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove a server entry from the desktop host config",
	RunE:  runUninstall,
}

func init() {
	f := installCmd.Flags()
	f.StringVar(&installFlags.configPath, "host-config", "", "Path to the host's MCP config file (default: per-OS location)")
	f.StringVar(&installFlags.name, "name", "weather", "Server name to register")
	f.StringVar(&installFlags.command, "command", "", "Executable to register (default: this binary)")
	f.StringSliceVar(&installFlags.args, "args", nil, "Arguments for the registered command (default: serve)")
	f.StringVar(&installFlags.cwd, "cwd", "", "Working directory for the server process")
	f.StringSliceVar(&installFlags.env, "env", nil, "Environment entries KEY=VALUE for the server process")

	uf := uninstallCmd.Flags()
	uf.StringVar(&installFlags.configPath, "host-config", "", "Path to the host's MCP config file (default: per-OS location)")
	uf.StringVar(&installFlags.name, "name", "weather", "Server name to remove")
}

func hostConfigPath() (string, error) {
	if installFlags.configPath != "" {
		return installFlags.configPath, nil
	}
	return hostconfig.DefaultPath()
}

func runInstall(cmd *cobra.Command, _ []string) error {
	path, err := hostConfigPath()
	if err != nil {
		return err
	}
	f, err := hostconfig.Load(path)
	if err != nil {
		return err
	}

	command := installFlags.command
	args := installFlags.args
	if command == "" {
		command, err = os.Executable()
		if err != nil {
			return fmt.Errorf("resolve own executable: %w", err)
		}
		if args == nil {
			args = []string{"serve"}
		}
	}

	entry := hostconfig.ServerEntry{
		Command: command,
		Args:    args,
		Cwd:     installFlags.cwd,
	}
	if len(installFlags.env) > 0 {
		entry.Env = make(map[string]string, len(installFlags.env))
		for _, kv := range installFlags.env {
			k, v, ok := splitEnv(kv)
			if !ok {
				return fmt.Errorf("invalid --env entry %q (want KEY=VALUE)", kv)
			}
			entry.Env[k] = v
		}
	}

	if err := f.Register(installFlags.name, entry); err != nil {
		return err
	}
	if err := f.Save(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Registered %q in %s\n", installFlags.name, path)
	fmt.Fprintf(out, "Restart the host application to pick up the change.\n")
	return nil
}

func runUninstall(cmd *cobra.Command, _ []string) error {
	path, err := hostConfigPath()
	if err != nil {
		return err
	}
	f, err := hostconfig.Load(path)
	if err != nil {
		return err
	}

	if !f.Remove(installFlags.name) {
		return fmt.Errorf("no server named %q in %s", installFlags.name, path)
	}
	if err := f.Save(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %q from %s\n", installFlags.name, path)
	return nil
}

// splitEnv splits "KEY=VALUE" at the first '='.
func splitEnv(kv string) (key, value string, ok bool) {
	key, value, ok = strings.Cut(kv, "=")
	if key == "" {
		return "", "", false
	}
	return key, value, ok
}
