package httputil

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	err := WriteJSON(rec, 200, map[string]int{"total": 3})
	require.NoError(t, err)

	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"total":3}`, rec.Body.String())
}

func TestWriteErrorMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteErrorMessage(rec, 404, "group not found")

	assert.Equal(t, 404, rec.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "group not found", body.Error)
}

func TestStatusHelpers(t *testing.T) {
	tests := []struct {
		name       string
		write      func(rec *httptest.ResponseRecorder)
		wantStatus int
	}{
		{"bad request", func(rec *httptest.ResponseRecorder) { WriteBadRequest(rec, "nope") }, 400},
		{"not found", func(rec *httptest.ResponseRecorder) { WriteNotFound(rec, "gone") }, 404},
		{"conflict", func(rec *httptest.ResponseRecorder) { WriteConflict(rec, "cycle") }, 409},
		{"internal", func(rec *httptest.ResponseRecorder) { WriteInternalError(rec, assert.AnError) }, 500},
		{"created", func(rec *httptest.ResponseRecorder) { WriteCreated(rec, nil) }, 201},
		{"no content", func(rec *httptest.ResponseRecorder) { WriteNoContent(rec) }, 204},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.write(rec)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
