// Package ingest runs the load pass: corpus files are extracted, chunked,
// embedded and upserted into the vector store through a staged pipeline.
package ingest

import (
	"context"
	"fmt"

	"gober/internal/logger"
	"gober/internal/store"
)

// Embedder is the encoding capability the pipeline needs.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Model() string
}

// Options tunes a load pass.
type Options struct {
	MaxChars  int // chunk size threshold for prose
	RowBlock  int // spreadsheet rows per chunk
	BatchSize int // texts per embedding request
	Workers   int // extraction workers; defaults to NumCPU
}

// Loader performs full batch ingestion of the corpus directory.
type Loader struct {
	store   store.Store
	emb     Embedder
	dataDir string
	opts    Options
}

// NewLoader creates a loader over the given store and embedder.
func NewLoader(st store.Store, emb Embedder, dataDir string, opts Options) *Loader {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 32
	}
	return &Loader{store: st, emb: emb, dataDir: dataDir, opts: opts}
}

// Load runs a full ingest pass. When clearFirst is set, or when the
// embedding model changed since the last pass, the store is cleared first so
// no stale vectors from another embedding space survive.
func (l *Loader) Load(ctx context.Context, clearFirst bool) (*Stats, error) {
	lastModel, err := l.store.GetMeta("embedding_model")
	if err != nil {
		return nil, fmt.Errorf("get meta: %w", err)
	}
	if lastModel != "" && lastModel != l.emb.Model() {
		logger.Info("embedding model changed from %q to %q, reloading everything", lastModel, l.emb.Model())
		clearFirst = true
	}

	if clearFirst {
		if err := l.store.Clear(); err != nil {
			return nil, fmt.Errorf("clear store: %w", err)
		}
	}

	logger.Section("Load")
	logger.Info("loading documents from %s", l.dataDir)

	stats, err := runPipeline(ctx, l.dataDir, l.store, l.emb, l.opts)
	if err != nil {
		return stats, err
	}

	if err := l.store.SetMeta("embedding_model", l.emb.Model()); err != nil {
		return stats, fmt.Errorf("set meta: %w", err)
	}
	return stats, nil
}
