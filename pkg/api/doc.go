// Package api exposes the Warden engine over HTTP.
//
// # Overview
//
// A gorilla/mux server fronts the graph service, the mapping resolver and
// the snapshot manager. Handlers are thin: they parse JSON, call the
// engine, and map domain errors onto status codes (404 not found, 400
// validation and snapshot rejection, 409 cycles and conflicts). Mutation
// endpoints answer 204; creations answer 201 with the entity.
//
// # Usage Example
//
//	server := api.NewServer(graphSvc, resolver, snapshots, logger, api.Options{})
//	http.ListenAndServe(":8080", server)
//
// # Related Packages
//
//   - pkg/graph: membership and role assignment operations
//   - pkg/mappings: identity-provider mapping resolution
//   - pkg/snapshot: configuration export/import
package api
