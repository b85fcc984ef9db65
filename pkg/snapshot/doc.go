// Package snapshot exports and imports the engine's full configuration.
//
// # Overview
//
// A snapshot is a single JSON document holding every group and role. Export
// captures a consistent view under the shared state lock; Import validates
// the document up front and then atomically replaces the entire
// configuration, so a failed import never leaves partial state behind.
// Snapshots can additionally be archived to S3-compatible storage on a cron
// schedule.
//
// # Usage Example
//
//	manager := snapshot.NewManager(store, stateLock, cache, metrics)
//	snap, err := manager.Export(ctx)
//	if err != nil {
//		return err
//	}
//	// ... persist snap, later:
//	err = manager.Import(ctx, snap)
//
// # Related Packages
//
//   - pkg/graph: shares the state lock and closure cache
//   - pkg/store: ReplaceAll provides the atomic swap
package snapshot
