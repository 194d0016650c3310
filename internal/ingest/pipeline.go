package ingest

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"gober/internal/chunker"
	"gober/internal/extract"
	"gober/internal/logger"
	"gober/internal/store"
)

// Stats reports the outcome of a load pass.
type Stats struct {
	FilesTotal  int
	FilesLoaded int
	FilesFailed int
	Chunks      int
}

// fileBatch is the chunks extracted from a single file, pre-embedding.
type fileBatch struct {
	name   string
	chunks []store.Chunk
}

func runPipeline(ctx context.Context, dataDir string, st store.Store, emb Embedder, opts Options) (*Stats, error) {
	numWorkers := opts.Workers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return nil, err
	}

	// A fatal failure downstream cancels this context so upstream stages
	// blocked on channel sends unwind instead of leaking.
	pctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Stage 1: list corpus files. The data directory is flat and
	// administrator-managed; no recursive walk.
	pathCh := make(chan string, numWorkers)
	go func() {
		defer close(pathCh)
		for _, e := range entries {
			if e.IsDir() || !extract.Supported(e.Name()) {
				continue
			}
			select {
			case pathCh <- filepath.Join(dataDir, e.Name()):
			case <-pctx.Done():
				return
			}
		}
	}()

	var stats Stats
	var filesTotal, filesFailed atomic.Int64

	// Stage 2: extract + chunk (N workers). A file that fails to parse is
	// logged and skipped; one corrupt file must not block the rest.
	ck := chunker.New(chunker.WithMaxChars(opts.MaxChars))
	batchCh := make(chan fileBatch, numWorkers)
	var extractWg sync.WaitGroup
	for range numWorkers {
		extractWg.Add(1)
		go func() {
			defer extractWg.Done()
			for path := range pathCh {
				filesTotal.Add(1)
				chunks, err := extractFile(path, ck, opts.RowBlock)
				if err != nil {
					logger.Warn("skipping %s: %v", path, err)
					filesFailed.Add(1)
					continue
				}
				if len(chunks) == 0 {
					continue
				}
				select {
				case batchCh <- fileBatch{name: filepath.Base(path), chunks: chunks}:
				case <-pctx.Done():
					return
				}
			}
		}()
	}
	go func() {
		extractWg.Wait()
		close(batchCh)
	}()

	// Stage 3: embed (1 worker, sub-batches of BatchSize). Embedding failure
	// is fatal to the load pass; silently skipping would leave an incomplete
	// index with no warning.
	embeddedCh := make(chan fileBatch, 4)
	var embedErr error
	var embedWg sync.WaitGroup
	embedWg.Add(1)
	go func() {
		defer embedWg.Done()
		defer close(embeddedCh)

		for batch := range batchCh {
			texts := make([]string, len(batch.chunks))
			for i, c := range batch.chunks {
				texts[i] = c.Content
			}

			for i := 0; i < len(texts); i += opts.BatchSize {
				end := i + opts.BatchSize
				if end > len(texts) {
					end = len(texts)
				}
				embs, err := emb.Embed(pctx, texts[i:end])
				if err != nil {
					embedErr = err
					cancel()
					return
				}
				for j, e := range embs {
					batch.chunks[i+j].Embedding = e
				}
			}

			select {
			case embeddedCh <- batch:
			case <-pctx.Done():
				return
			}
		}
	}()

	// Stage 4: store (1 worker). Each file's chunks land in one transaction.
	var storeErr error
	var storeWg sync.WaitGroup
	storeWg.Add(1)
	go func() {
		defer storeWg.Done()
		for batch := range embeddedCh {
			if err := st.Upsert(batch.chunks); err != nil {
				logger.Warn("store %s: %v", batch.name, err)
				if storeErr == nil {
					storeErr = err
					cancel()
				}
				continue
			}
			stats.FilesLoaded++
			stats.Chunks += len(batch.chunks)
			logger.Info("loaded %s (%d chunks)", batch.name, len(batch.chunks))
		}
	}()

	storeWg.Wait()
	embedWg.Wait()

	stats.FilesTotal = int(filesTotal.Load())
	stats.FilesFailed = int(filesFailed.Load())

	// A store failure cancels the pipeline, which surfaces in the embed stage
	// as context.Canceled; report the root cause first.
	if storeErr != nil {
		return &stats, storeErr
	}
	if embedErr != nil {
		return &stats, embedErr
	}
	if err := ctx.Err(); err != nil {
		return &stats, err
	}
	return &stats, nil
}

// extractFile turns one corpus file into store-ready chunks (no embeddings
// yet). PDF pages go through the paragraph chunker; spreadsheet row blocks
// are already chunk-sized.
func extractFile(path string, ck *chunker.Chunker, rowBlock int) ([]store.Chunk, error) {
	name := filepath.Base(path)
	units, sourceType, err := extract.FromFile(path, rowBlock)
	if err != nil {
		return nil, err
	}

	docType := extract.Classify(name)
	now := time.Now()

	var chunks []store.Chunk
	for _, u := range units {
		switch sourceType {
		case extract.SourcePDF:
			for _, content := range ck.Pack(u.Text) {
				chunks = append(chunks, store.Chunk{
					Key:          store.MakeKey(name, strconv.Itoa(u.Loc.Page), content),
					Content:      content,
					Source:       name,
					SourceType:   sourceType,
					Page:         u.Loc.Page,
					DocumentType: docType,
					ProcessedAt:  now,
				})
			}
		case extract.SourceExcel:
			chunks = append(chunks, store.Chunk{
				Key:          store.MakeKey(name, u.Loc.Sheet, u.Text),
				Content:      u.Text,
				Source:       name,
				SourceType:   sourceType,
				Sheet:        u.Loc.Sheet,
				RowRange:     u.Loc.RowRange,
				DocumentType: docType,
				ProcessedAt:  now,
			})
		}
	}
	return chunks, nil
}
