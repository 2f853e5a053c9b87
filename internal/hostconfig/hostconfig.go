// Package hostconfig reads and edits the desktop host's MCP server registry
// (e.g. claude_desktop_config.json). The file maps server names to launch
// descriptors; the host spawns each entry as a subprocess and speaks MCP to
// it over stdio.
//
// The file belongs to the host application, so edits are conservative:
// unknown top-level keys and other servers' entries round-trip untouched,
// and writes are atomic.
package hostconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/google/renameio/v2"
)

// ServerEntry is the launch descriptor for one registered MCP server.
type ServerEntry struct {
	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
	Cwd     string            `json:"cwd,omitempty"`
}

// File is a loaded host config. Top-level keys other than "mcpServers" and
// unrecognized fields inside other servers' entries are preserved on Save.
type File struct {
	path    string
	top     map[string]json.RawMessage
	servers map[string]json.RawMessage
}

// DefaultPath returns the host config location for the current OS.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Claude", "claude_desktop_config.json"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "Claude", "claude_desktop_config.json"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "Claude", "claude_desktop_config.json"), nil
	default:
		return filepath.Join(home, ".config", "Claude", "claude_desktop_config.json"), nil
	}
}

// Load reads the config at path. A missing file yields an empty config that
// Save will create.
func Load(path string) (*File, error) {
	f := &File{
		path:    path,
		top:     make(map[string]json.RawMessage),
		servers: make(map[string]json.RawMessage),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return f, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read host config: %w", err)
	}

	if err := json.Unmarshal(data, &f.top); err != nil {
		return nil, fmt.Errorf("parse host config %s: %w", path, err)
	}
	if raw, ok := f.top["mcpServers"]; ok {
		if err := json.Unmarshal(raw, &f.servers); err != nil {
			return nil, fmt.Errorf("parse mcpServers in %s: %w", path, err)
		}
	}
	return f, nil
}

// Path returns the file's location on disk.
func (f *File) Path() string { return f.path }

// Names returns the registered server names, sorted.
func (f *File) Names() []string {
	names := make([]string, 0, len(f.servers))
	for name := range f.servers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the entry for name, or false if not registered.
func (f *File) Get(name string) (ServerEntry, bool, error) {
	raw, ok := f.servers[name]
	if !ok {
		return ServerEntry{}, false, nil
	}
	var e ServerEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		return ServerEntry{}, false, fmt.Errorf("parse server entry %q: %w", name, err)
	}
	return e, true, nil
}

// Register adds or replaces the entry for name.
func (f *File) Register(name string, entry ServerEntry) error {
	if name == "" {
		return fmt.Errorf("server name is required")
	}
	if entry.Command == "" {
		return fmt.Errorf("server %q: command is required", name)
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode server entry %q: %w", name, err)
	}
	f.servers[name] = raw
	return nil
}

// Remove deletes the entry for name. Returns false if it was not registered.
func (f *File) Remove(name string) bool {
	if _, ok := f.servers[name]; !ok {
		return false
	}
	delete(f.servers, name)
	return true
}

// Save writes the config back atomically, creating the parent directory on
// first write. New files are created 0600: entries may carry API keys in env.
func (f *File) Save() error {
	raw, err := json.Marshal(f.servers)
	if err != nil {
		return fmt.Errorf("encode mcpServers: %w", err)
	}
	f.top["mcpServers"] = raw

	data, err := json.MarshalIndent(f.top, "", "  ")
	if err != nil {
		return fmt.Errorf("encode host config: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return fmt.Errorf("create host config dir: %w", err)
	}

	pending, err := renameio.NewPendingFile(f.path, renameio.WithPermissions(0600), renameio.WithExistingPermissions())
	if err != nil {
		return fmt.Errorf("create pending host config: %w", err)
	}
	defer pending.Cleanup()

	if _, err := pending.Write(data); err != nil {
		return fmt.Errorf("write host config: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replace host config: %w", err)
	}
	return nil
}
