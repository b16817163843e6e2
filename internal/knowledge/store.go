// Package knowledge implements the retrieval capability behind the
// assistant's informational answers: an embedding store with cosine top-K
// lookup, fed by local and S3 document ingestion.
package knowledge

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/vetcareai/vetcare-platform/pkg/logging"
)

// Passage is one retrieved text fragment with its source document.
type Passage struct {
	Content string `json:"content"`
	Source  string `json:"source"`
}

// Embedder turns texts into vectors. Implemented by GeminiEmbedder and by
// deterministic fakes in tests.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// MemoryStore keeps embedded passages in memory and supports cosine top-K
// retrieval. Good for a single-process deployment; a vector database is the
// drop-in upgrade path.
type MemoryStore struct {
	embedder Embedder
	logger   *logging.Logger

	mu       sync.RWMutex
	passages []storedPassage
}

type storedPassage struct {
	passage   Passage
	embedding []float32
}

// ErrNoEmbedder indicates the store was built without an embedding backend.
var ErrNoEmbedder = errors.New("knowledge: no embedder configured")

// NewMemoryStore creates an empty in-memory knowledge store. A nil embedder
// is allowed; the store then rejects ingestion and answers retrievals with
// ErrNoEmbedder so the assistant degrades to its no-context reply.
func NewMemoryStore(embedder Embedder, logger *logging.Logger) *MemoryStore {
	if logger == nil {
		logger = logging.Default()
	}
	return &MemoryStore{
		embedder: embedder,
		logger:   logger,
	}
}

// AddPassages embeds and stores the provided passages.
func (s *MemoryStore) AddPassages(ctx context.Context, passages []Passage) error {
	if len(passages) == 0 {
		return nil
	}
	if s.embedder == nil {
		return ErrNoEmbedder
	}

	texts := make([]string, len(passages))
	for i, p := range passages {
		texts[i] = p.Content
	}

	embeddings, err := s.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range passages {
		if i >= len(embeddings) {
			break
		}
		s.passages = append(s.passages, storedPassage{
			passage:   p,
			embedding: embeddings[i],
		})
	}

	s.logger.Info("knowledge passages indexed", "count", len(passages), "total", len(s.passages))
	return nil
}

// RetrieveContext returns the topK most similar passages to the question,
// best first. An empty store returns nil without error.
func (s *MemoryStore) RetrieveContext(ctx context.Context, question string, topK int) ([]Passage, error) {
	if topK <= 0 {
		topK = 3
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, nil
	}

	s.mu.RLock()
	empty := len(s.passages) == 0
	s.mu.RUnlock()
	if empty {
		return nil, nil
	}
	if s.embedder == nil {
		return nil, ErrNoEmbedder
	}

	embeddings, err := s.embedder.EmbedTexts(ctx, []string{question})
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, nil
	}
	queryVec := embeddings[0]

	type scored struct {
		score   float64
		passage Passage
	}

	s.mu.RLock()
	results := make([]scored, 0, len(s.passages))
	for _, doc := range s.passages {
		results = append(results, scored{
			score:   cosineSimilarity(queryVec, doc.embedding),
			passage: doc.passage,
		})
	}
	s.mu.RUnlock()

	sort.Slice(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})

	if topK > len(results) {
		topK = len(results)
	}
	out := make([]Passage, 0, topK)
	for _, r := range results[:topK] {
		out = append(out, r.passage)
	}
	return out, nil
}

// Len reports how many passages are currently indexed.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.passages)
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
