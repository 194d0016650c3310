// Package knowledge is the single interface the conversational layer uses:
// it orchestrates lazy ingestion and answers retrieval queries with text
// traceable to specific official documents.
package knowledge

import (
	"context"
	"sync"

	"gober/internal/ingest"
	"gober/internal/logger"
	"gober/internal/store"
)

// Embedder is the encoding capability the query path needs.
type Embedder interface {
	EmbedSingle(ctx context.Context, text string) ([]float32, error)
}

// Loader triggers a full ingest pass.
type Loader interface {
	Load(ctx context.Context, clearFirst bool) (*ingest.Stats, error)
}

// Answer is the structured result of AnswerWithSources.
type Answer struct {
	Query             string
	FoundSources      int
	FormattedResponse string
	Results           []store.SearchResult
	HasOfficialData   bool
}

// Service exposes document retrieval to the conversational layer. Construct
// it once per process and share it; the embedding client and store handles
// it holds are expensive to initialize.
type Service struct {
	store  store.Store
	emb    Embedder
	loader Loader

	contextK int
	answerK  int

	mu     sync.Mutex
	loaded bool
}

// Option configures the service.
type Option func(*Service)

// WithContextK sets how many results feed the low-latency context path.
func WithContextK(k int) Option {
	return func(s *Service) {
		if k > 0 {
			s.contextK = k
		}
	}
}

// WithAnswerK sets how many results feed the full source digest.
func WithAnswerK(k int) Option {
	return func(s *Service) {
		if k > 0 {
			s.answerK = k
		}
	}
}

// New creates the knowledge service over an already-opened store.
func New(st store.Store, emb Embedder, loader Loader, opts ...Option) *Service {
	s := &Service{
		store:    st,
		emb:      emb,
		loader:   loader,
		contextK: 2,
		answerK:  5,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureLoaded triggers a full ingest pass the first time the store reports
// zero chunks. It is idempotent and safe to call concurrently: the mutex
// guarantees a single load pass no matter how many queries race here. On
// failure the service stays unloaded so the next call retries.
func (s *Service) EnsureLoaded(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded {
		return nil
	}

	n, err := s.store.Count()
	if err != nil {
		return err
	}
	if n == 0 {
		logger.Info("store is empty, running initial load")
		if _, err := s.loader.Load(ctx, false); err != nil {
			return err
		}
	}
	s.loaded = true
	return nil
}

// Load runs a full ingest pass unconditionally. This is the administrative
// entry point; live queries rely on EnsureLoaded instead.
func (s *Service) Load(ctx context.Context, clearFirst bool) (*ingest.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats, err := s.loader.Load(ctx, clearFirst)
	if err != nil {
		return stats, err
	}
	s.loaded = true
	return stats, nil
}

// Clear destroys all stored chunks. The next EnsureLoaded starts from empty.
func (s *Service) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loaded = false
	return s.store.Clear()
}

// SearchDocuments returns up to k chunks ranked by similarity to the query,
// optionally restricted to one document type.
func (s *Service) SearchDocuments(ctx context.Context, query string, k int, documentType string) ([]store.SearchResult, error) {
	if err := s.EnsureLoaded(ctx); err != nil {
		return nil, err
	}
	vec, err := s.emb.EmbedSingle(ctx, query)
	if err != nil {
		return nil, err
	}
	return s.store.Search(vec, k, documentType)
}

// ContextForQuery is the hot-path variant used on a live voice turn: few
// results, serialized with exact source citations. Zero matches yield an
// empty string, not an error, so the caller can say "no tengo ese dato" and
// stop instead of guessing. A query cancelled by its context degrades to the
// same empty context.
func (s *Service) ContextForQuery(ctx context.Context, query string) (string, error) {
	results, err := s.SearchDocuments(ctx, query, s.contextK, "")
	if err != nil {
		if ctx.Err() != nil {
			logger.Warn("context query timed out: %v", err)
			return "", nil
		}
		return "", err
	}
	return FormatContext(results), nil
}

// AnswerWithSources is the fuller, higher-latency variant for explicit
// document searches: more results and a human-readable multi-source digest
// with per-result relevance percentages.
func (s *Service) AnswerWithSources(ctx context.Context, query string) (*Answer, error) {
	results, err := s.SearchDocuments(ctx, query, s.answerK, "")
	if err != nil {
		return nil, err
	}
	return &Answer{
		Query:             query,
		FoundSources:      len(results),
		FormattedResponse: FormatDigest(query, results),
		Results:           results,
		HasOfficialData:   len(results) > 0,
	}, nil
}

// Stats reports what the store currently holds.
func (s *Service) Stats() (store.Stats, error) {
	return s.store.Stats()
}

// Close releases the underlying store.
func (s *Service) Close() error {
	return s.store.Close()
}
