package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wardenhq/warden/pkg/httputil"
	"github.com/wardenhq/warden/pkg/snapshot"
)

// ConfigurationHandlers serves whole-state export, import and
// restore-from-archive.
type ConfigurationHandlers struct {
	snapshots *snapshot.Manager
	archive   SnapshotArchive
}

// NewConfigurationHandlers creates the configuration handler set. archive may
// be nil; restore then reports the archive as unconfigured.
func NewConfigurationHandlers(snapshots *snapshot.Manager, archive SnapshotArchive) *ConfigurationHandlers {
	return &ConfigurationHandlers{snapshots: snapshots, archive: archive}
}

// RegisterRoutes registers the configuration routes on the router.
func (h *ConfigurationHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/configuration/export", h.exportConfiguration).Methods("GET")
	router.HandleFunc("/configuration/import", h.importConfiguration).Methods("POST")
	router.HandleFunc("/configuration/restore", h.restoreConfiguration).Methods("POST")
}

func (h *ConfigurationHandlers) exportConfiguration(w http.ResponseWriter, r *http.Request) {
	snap, err := h.snapshots.Export(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, snap)
}

func (h *ConfigurationHandlers) importConfiguration(w http.ResponseWriter, r *http.Request) {
	// An empty body is a full reset.
	var snap snapshot.Snapshot
	if err := httputil.ParseJSON(r, &snap); err != nil && !errors.Is(err, httputil.ErrEmptyBody) {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	if err := h.snapshots.Import(r.Context(), &snap); err != nil {
		writeDomainError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

// restoreConfiguration imports the most recent archived snapshot.
func (h *ConfigurationHandlers) restoreConfiguration(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		httputil.WriteErrorMessage(w, http.StatusServiceUnavailable, "snapshot archive is not configured")
		return
	}
	key := h.archive.LatestKey()
	snap, err := h.archive.Retrieve(r.Context(), key)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := h.snapshots.Import(r.Context(), snap); err != nil {
		writeDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, map[string]string{"restored": key})
}
