package knowledge

import (
	"encoding/json"
	"net/http"

	"github.com/vetcareai/vetcare-platform/pkg/logging"
)

// Handler exposes admin endpoints for re-indexing the knowledge base.
type Handler struct {
	ingestor *Ingestor
	store    *MemoryStore
	dir      string
	bucket   string
	prefix   string
	logger   *logging.Logger
}

// NewHandler creates a knowledge admin handler. dir and bucket name the
// ingestion sources configured for this deployment; either may be empty.
func NewHandler(ingestor *Ingestor, store *MemoryStore, dir, bucket, prefix string, logger *logging.Logger) *Handler {
	if ingestor == nil {
		panic("knowledge: ingestor is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		ingestor: ingestor,
		store:    store,
		dir:      dir,
		bucket:   bucket,
		prefix:   prefix,
		logger:   logger,
	}
}

// Reindex re-ingests all configured knowledge sources.
func (h *Handler) Reindex(w http.ResponseWriter, r *http.Request) {
	total := 0
	if h.dir != "" {
		n, err := h.ingestor.IngestDir(r.Context(), h.dir)
		if err != nil {
			h.logger.Error("knowledge: directory ingest failed", "dir", h.dir, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "directory ingest failed"})
			return
		}
		total += n
	}
	if h.bucket != "" {
		n, err := h.ingestor.IngestBucket(r.Context(), h.bucket, h.prefix)
		if err != nil {
			h.logger.Error("knowledge: bucket ingest failed", "bucket", h.bucket, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "bucket ingest failed"})
			return
		}
		total += n
	}
	h.logger.Info("knowledge: reindex completed", "passages", total)
	writeJSON(w, http.StatusOK, map[string]int{"passages_indexed": total})
}

// Stats reports the size of the in-memory index.
func (h *Handler) Stats(w http.ResponseWriter, _ *http.Request) {
	size := 0
	if h.store != nil {
		size = h.store.Len()
	}
	writeJSON(w, http.StatusOK, map[string]int{"passages": size})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
