package directory

import (
	"context"
	"fmt"
	"sync"
)

// Connection describes an identity-provider connection as known to the
// external identity directory.
type Connection struct {
	Name        string `yaml:"name" json:"name"`
	DisplayName string `yaml:"display_name" json:"display_name,omitempty"`
	Strategy    string `yaml:"strategy" json:"strategy,omitempty"`
}

// Display returns the directory's preferred label for the connection:
// display name first, then strategy, then the connection name itself.
func (c *Connection) Display() string {
	if c.DisplayName != "" {
		return c.DisplayName
	}
	if c.Strategy != "" {
		return c.Strategy
	}
	return c.Name
}

// NotFoundError indicates the directory has no entry for a connection name.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("connection not found in directory: %s", e.Name)
}

// Directory is the read-only external identity directory consulted by the
// mapping resolver. Implementations must be safe for concurrent use and must
// not require any engine lock to be held.
type Directory interface {
	LookupConnection(ctx context.Context, name string) (*Connection, error)
}

// StaticDirectory serves lookups from an in-memory connection table. It is
// the building block behind the file-backed directory and the test fixture
// for resolver scenarios.
type StaticDirectory struct {
	mu          sync.RWMutex
	connections map[string]Connection
}

// NewStaticDirectory creates a directory over the given connections.
func NewStaticDirectory(connections []Connection) *StaticDirectory {
	d := &StaticDirectory{}
	d.Replace(connections)
	return d
}

// LookupConnection returns the connection with the given name.
func (d *StaticDirectory) LookupConnection(_ context.Context, name string) (*Connection, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	conn, ok := d.connections[name]
	if !ok {
		return nil, &NotFoundError{Name: name}
	}
	return &conn, nil
}

// Replace atomically swaps the directory's connection table.
func (d *StaticDirectory) Replace(connections []Connection) {
	table := make(map[string]Connection, len(connections))
	for _, conn := range connections {
		table[conn.Name] = conn
	}
	d.mu.Lock()
	d.connections = table
	d.mu.Unlock()
}
