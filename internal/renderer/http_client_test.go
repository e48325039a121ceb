package renderer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRasterizerStub(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/render", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, _, err := r.FormFile("file")
		require.NoError(t, err)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"pages": []string{"data:image/png;base64,p0", "data:image/png;base64,p1"},
		})
	})
	mux.HandleFunc("/page-count", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"page_count": 2})
	})
	mux.HandleFunc("/name-occurrences", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Elly Liu", r.FormValue("name"))
		_ = json.NewEncoder(w).Encode(map[string]any{"count": 3, "pages": []int{1, 4, 7}})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClientRenderPages(t *testing.T) {
	srv := newRasterizerStub(t)
	c := NewClient(srv.URL, 5*time.Second)

	pages, err := c.RenderPages(context.Background(), []byte("%PDF-1.7"))
	require.NoError(t, err)
	assert.Equal(t, []string{"data:image/png;base64,p0", "data:image/png;base64,p1"}, pages)
}

func TestClientCountPages(t *testing.T) {
	srv := newRasterizerStub(t)
	c := NewClient(srv.URL, 5*time.Second)

	n, err := c.CountPages(context.Background(), []byte("%PDF-1.7"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestClientCountNameOccurrences(t *testing.T) {
	srv := newRasterizerStub(t)
	c := NewClient(srv.URL, 5*time.Second)

	occ, err := c.CountNameOccurrences(context.Background(), []byte("%PDF-1.7"), "Elly Liu")
	require.NoError(t, err)
	assert.Equal(t, 3, occ.Count)
	assert.Equal(t, []int{1, 4, 7}, occ.Pages)
}

func TestClientErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no text layer", http.StatusUnprocessableEntity)
	}))
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL, 5*time.Second)

	_, err := c.CountNameOccurrences(context.Background(), []byte("%PDF-1.7"), "Elly Liu")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
}
