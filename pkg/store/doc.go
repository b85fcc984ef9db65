// Package store provides the authz.Store implementations.
//
// # Backends
//
// Three backends share identical semantics:
//
//   - MemoryStore: map-backed, mutex-serialized; tests and ephemeral
//     single-node deployments
//   - SQLStore (postgres): JSON documents in PostgreSQL with a version
//     column; optimistic compare-and-swap mutations
//   - SQLStore (sqlite): same document layout on an embedded SQLite file
//
// # Concurrency contract
//
// Every mutation is linearizable per entity id. The SQL backends implement
// this with optimistic versioning: a read-modify-write retries up to
// ConflictRetries times when the version column moved underneath it, then
// surfaces authz.ConflictError. ReplaceAll stages the new state fully (a
// fresh map, or an uncommitted transaction) and swaps it in one step, so a
// failed import never leaves partially replaced state.
//
// # Usage Example
//
//	cfg := store.DefaultConfig()
//	cfg.Type = "postgres"
//	cfg.PostgresURL = os.Getenv("WARDEN_POSTGRES_URL")
//
//	s, closeStore, err := store.Open(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer closeStore()
//
// # Related Packages
//
//   - pkg/authz: the Store interface and entity types
//   - pkg/snapshot: drives ReplaceAll for atomic import
package store
