package knowledge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerReindex(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "vacunas.md", "Las vacunas anuales protegen a tu mascota.")

	embedder := &fakeEmbedder{}
	store := NewMemoryStore(embedder, nil)
	ing := NewIngestor(store, nil, nil)
	h := NewHandler(ing, store, dir, "", "", nil)

	req := httptest.NewRequest(http.MethodPost, "/admin/knowledge/reindex", nil)
	rec := httptest.NewRecorder()
	h.Reindex(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var payload map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, 1, payload["passages_indexed"])
	assert.Equal(t, 1, store.Len())
}

func TestHandlerReindexFailure(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "vacunas.md", "contenido")

	// No embedder: ingestion fails with ErrNoEmbedder.
	store := NewMemoryStore(nil, nil)
	ing := NewIngestor(store, nil, nil)
	h := NewHandler(ing, store, dir, "", "", nil)

	req := httptest.NewRequest(http.MethodPost, "/admin/knowledge/reindex", nil)
	rec := httptest.NewRecorder()
	h.Reindex(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandlerStats(t *testing.T) {
	embedder := &fakeEmbedder{}
	store := NewMemoryStore(embedder, nil)
	require.NoError(t, store.AddPassages(context.Background(), []Passage{
		{Content: "uno", Source: "a.md"},
		{Content: "dos", Source: "b.md"},
	}))
	h := NewHandler(NewIngestor(store, nil, nil), store, "", "", "", nil)

	req := httptest.NewRequest(http.MethodGet, "/admin/knowledge/stats", nil)
	rec := httptest.NewRecorder()
	h.Stats(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var payload map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, 2, payload["passages"])
}
