// Package directory models the external identity directory that the mapping
// resolver consults to turn raw identity-provider connection names into
// display metadata.
//
// The engine only depends on the Directory interface; three implementations
// ship here:
//
//   - StaticDirectory: fixed in-memory table, builds test fixtures
//   - FileDirectory: YAML connections file with fsnotify hot reload
//   - CachingDirectory: expiring LRU in front of any Directory
//
// Directory lookups are read-only and are performed without holding any
// engine lock, so a slow directory can never stall graph operations.
package directory
