package directory

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// connectionsFile is the YAML layout of a directory connections file:
//
//	connections:
//	  - name: google-oauth2
//	    display_name: Google
//	    strategy: google-oauth2
type connectionsFile struct {
	Connections []Connection `yaml:"connections"`
}

// LoadConnectionsFile parses a YAML connections file.
func LoadConnectionsFile(path string) ([]Connection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read connections file: %w", err)
	}
	var file connectionsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse connections file: %w", err)
	}
	for _, conn := range file.Connections {
		if conn.Name == "" {
			return nil, fmt.Errorf("connections file %s contains an entry without a name", path)
		}
	}
	return file.Connections, nil
}

// FileDirectory is a StaticDirectory fed from a YAML file, reloaded on
// change so connection metadata can be rotated without a restart.
type FileDirectory struct {
	*StaticDirectory

	path    string
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewFileDirectory loads the connections file and starts watching it.
func NewFileDirectory(path string) (*FileDirectory, error) {
	connections, err := LoadConnectionsFile(path)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	// Watch the directory, not the file: editors and config reloaders
	// typically replace the file via rename, which drops a file watch.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch connections file: %w", err)
	}

	d := &FileDirectory{
		StaticDirectory: NewStaticDirectory(connections),
		path:            path,
		watcher:         watcher,
		done:            make(chan struct{}),
	}
	go d.watch()
	return d, nil
}

// Close stops the file watcher.
func (d *FileDirectory) Close() error {
	close(d.done)
	return d.watcher.Close()
}

func (d *FileDirectory) watch() {
	log := logrus.WithField("component", "directory")
	for {
		select {
		case <-d.done:
			return
		case event, ok := <-d.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if filepath.Clean(event.Name) != filepath.Clean(d.path) {
				continue
			}
			connections, err := LoadConnectionsFile(d.path)
			if err != nil {
				log.WithError(err).Warn("Failed to reload connections file, keeping previous table")
				continue
			}
			d.Replace(connections)
			log.WithField("connections", len(connections)).Info("Reloaded directory connections file")
		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			log.WithError(err).Warn("Connections file watcher error")
		}
	}
}
