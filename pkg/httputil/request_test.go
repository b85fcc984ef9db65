package httputil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSON(t *testing.T) {
	var dest struct {
		Name string `json:"name"`
	}

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"eng"}`))
	require.NoError(t, ParseJSON(r, &dest))
	assert.Equal(t, "eng", dest.Name)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{bad`))
	err := ParseJSON(r, &dest)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JSON")

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	err = ParseJSON(r, &dest)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty request body")
}

func TestParseJSONOrError(t *testing.T) {
	var dest map[string]string
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`nope`))

	ok := ParseJSONOrError(rec, r, &dest)
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPathVar(t *testing.T) {
	router := mux.NewRouter()
	var got string
	router.HandleFunc("/groups/{id}", func(w http.ResponseWriter, r *http.Request) {
		var err error
		got, err = PathVar(r, "id")
		require.NoError(t, err)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/groups/abc", nil))
	assert.Equal(t, "abc", got)

	// Missing parameter outside a route.
	_, err := PathVar(httptest.NewRequest(http.MethodGet, "/", nil), "id")
	assert.Error(t, err)
}

func TestRequireNonEmpty(t *testing.T) {
	rec := httptest.NewRecorder()
	assert.True(t, RequireNonEmpty(rec, "value", "name"))

	rec = httptest.NewRecorder()
	assert.False(t, RequireNonEmpty(rec, "", "name"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "name is required")
}
