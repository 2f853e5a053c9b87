package store

import "time"

// DefaultDBPath is the default relative path for the SQLite DB.
// Resolve against the user's home or cwd; Open() creates the parent dir.
const DefaultDBPath = ".nimbus/nimbus.db"

// Session is one chat session against an MCP server.
type Session struct {
	ID        string
	Server    string // command line used to launch the server
	StartedAt time.Time
}

// Turn is one message within a chat session.
type Turn struct {
	ID        int64
	SessionID string
	Role      string // "user", "assistant", "tool"
	Content   string
	CreatedAt time.Time
}

// Store is the persistence facade: cached API responses and chat history.
// CLI and chat use only this interface; implementation is SQLite.
type Store interface {
	// Response cache (keyed by request URL)
	GetCached(url string, maxAge time.Duration) ([]byte, bool, error)
	PutCached(url string, body []byte) error
	PruneCache(maxAge time.Duration) (int64, error)

	// Chat history
	CreateSession(server string) (*Session, error)
	AppendTurn(sessionID, role, content string) error
	ListSessions(limit int) ([]*Session, error)
	ListTurns(sessionID string) ([]*Turn, error)

	Close() error
}

// CacheAdapter bridges a Store to the nws.Cache interface with a fixed TTL.
// Cache errors are swallowed: a broken cache must never fail a fetch.
type CacheAdapter struct {
	Store  Store
	MaxAge time.Duration
}

func (c *CacheAdapter) Get(url string) ([]byte, bool) {
	body, ok, err := c.Store.GetCached(url, c.MaxAge)
	if err != nil {
		return nil, false
	}
	return body, ok
}

func (c *CacheAdapter) Put(url string, body []byte) {
	_ = c.Store.PutCached(url, body)
}
