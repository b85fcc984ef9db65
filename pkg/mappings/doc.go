// Package mappings links groups to identity-provider connections.
//
// # Overview
//
// A mapping ties an external group name (as asserted by an identity
// provider) to a Warden group through a named connection. The package
// resolves connection names against the identity directory at write time
// and stores both the raw and resolved forms, so later reads never need
// the directory.
//
// # Usage Example
//
//	resolver := mappings.NewResolver(store, dir)
//	err := resolver.AddMappings(ctx, groupID, []authz.Mapping{
//		{GroupName: "Engineering", ConnectionName: "google-oauth2"},
//	})
//
// # Related Packages
//
//   - pkg/directory: connection lookup and display-name fallback
//   - pkg/authz: group and mapping types
package mappings
