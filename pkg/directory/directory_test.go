package directory

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticDirectoryLookup(t *testing.T) {
	d := NewStaticDirectory([]Connection{
		{Name: "google-oauth2", Strategy: "google-oauth2"},
		{Name: "corp-ad", DisplayName: "Corporate AD", Strategy: "ad"},
	})

	conn, err := d.LookupConnection(context.Background(), "google-oauth2")
	require.NoError(t, err)
	assert.Equal(t, "google-oauth2", conn.Display())

	conn, err = d.LookupConnection(context.Background(), "corp-ad")
	require.NoError(t, err)
	assert.Equal(t, "Corporate AD", conn.Display())

	_, err = d.LookupConnection(context.Background(), "missing")
	var nfe *NotFoundError
	assert.ErrorAs(t, err, &nfe)
}

func TestConnectionDisplayFallbacks(t *testing.T) {
	tests := []struct {
		name     string
		conn     Connection
		expected string
	}{
		{
			name:     "display name wins",
			conn:     Connection{Name: "c", DisplayName: "Corp", Strategy: "ad"},
			expected: "Corp",
		},
		{
			name:     "strategy second",
			conn:     Connection{Name: "c", Strategy: "ad"},
			expected: "ad",
		},
		{
			name:     "name last",
			conn:     Connection{Name: "c"},
			expected: "c",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.conn.Display())
		})
	}
}

func TestLoadConnectionsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "connections.yaml")
	content := `connections:
  - name: google-oauth2
    strategy: google-oauth2
  - name: corp-ad
    display_name: Corporate AD
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	connections, err := LoadConnectionsFile(path)
	require.NoError(t, err)
	require.Len(t, connections, 2)
	assert.Equal(t, "google-oauth2", connections[0].Name)
	assert.Equal(t, "Corporate AD", connections[1].DisplayName)
}

func TestLoadConnectionsFileRejectsUnnamedEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "connections.yaml")
	require.NoError(t, os.WriteFile(path, []byte("connections:\n  - strategy: ad\n"), 0o644))

	_, err := LoadConnectionsFile(path)
	assert.Error(t, err)
}

func TestFileDirectoryReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "connections.yaml")
	require.NoError(t, os.WriteFile(path, []byte("connections:\n  - name: one\n"), 0o644))

	d, err := NewFileDirectory(path)
	require.NoError(t, err)
	defer d.Close()

	_, err = d.LookupConnection(context.Background(), "one")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("connections:\n  - name: two\n"), 0o644))

	// The reload is asynchronous; poll briefly.
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := d.LookupConnection(context.Background(), "two"); err == nil {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("directory did not reload changed connections file")
}

type countingDirectory struct {
	inner   Directory
	lookups int
}

func (d *countingDirectory) LookupConnection(ctx context.Context, name string) (*Connection, error) {
	d.lookups++
	return d.inner.LookupConnection(ctx, name)
}

func TestCachingDirectory(t *testing.T) {
	counting := &countingDirectory{
		inner: NewStaticDirectory([]Connection{{Name: "google-oauth2"}}),
	}
	cached := NewCachingDirectory(counting, 16, time.Minute)

	for i := 0; i < 3; i++ {
		conn, err := cached.LookupConnection(context.Background(), "google-oauth2")
		require.NoError(t, err)
		assert.Equal(t, "google-oauth2", conn.Name)
	}
	assert.Equal(t, 1, counting.lookups)

	// Misses pass through every time.
	for i := 0; i < 2; i++ {
		_, err := cached.LookupConnection(context.Background(), "missing")
		assert.Error(t, err)
	}
	assert.Equal(t, 3, counting.lookups)
}
