package api

import (
	"net/http"

	"github.com/wardenhq/warden/pkg/authz"
	"github.com/wardenhq/warden/pkg/httputil"
)

// writeDomainError maps engine errors onto HTTP status codes: missing
// entities are 404, malformed input and rejected snapshots are 400, cycle
// rejections and exhausted optimistic retries are 409, everything else 500.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case authz.IsNotFound(err):
		httputil.WriteError(w, http.StatusNotFound, err)
	case authz.IsValidation(err), authz.IsInvalidSnapshot(err):
		httputil.WriteError(w, http.StatusBadRequest, err)
	case authz.IsCycle(err), authz.IsConflict(err):
		httputil.WriteError(w, http.StatusConflict, err)
	default:
		httputil.WriteInternalError(w, err)
	}
}
