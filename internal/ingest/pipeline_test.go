package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"gober/internal/store"
)

const testDim = 4

// hashEmbedder derives a deterministic vector from each text so tests need
// no running model.
type hashEmbedder struct{}

func (hashEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		var sum float32
		for _, r := range text {
			sum += float32(r % 13)
		}
		out[i] = []float32{sum, float32(len(text)), 1, 0}
	}
	return out, nil
}

func (hashEmbedder) Model() string { return "hash-test" }

type failingEmbedder struct{}

func (failingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, fmt.Errorf("model out of memory")
}

func (failingEmbedder) Model() string { return "failing" }

func writeWorkbook(t *testing.T, dir, name string, rows int) {
	t.Helper()
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"Meta", "Avance"}))
	for i := 1; i <= rows; i++ {
		require.NoError(t, f.SetSheetRow("Sheet1", fmt.Sprintf("A%d", i+1), &[]any{
			fmt.Sprintf("Meta %d", i), i,
		}))
	}
	require.NoError(t, f.SaveAs(filepath.Join(dir, name)))
	require.NoError(t, f.Close())
}

func openTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"), testDim)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLoad_IngestsCorpus(t *testing.T) {
	dataDir := t.TempDir()
	writeWorkbook(t, dataDir, "tablero_control.xlsx", 120)
	writeWorkbook(t, dataDir, "6_datos.xlsx", 10)

	st := openTestStore(t)
	loader := NewLoader(st, hashEmbedder{}, dataDir, Options{MaxChars: 1000, RowBlock: 50})

	stats, err := loader.Load(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.FilesTotal)
	assert.Equal(t, 2, stats.FilesLoaded)
	assert.Zero(t, stats.FilesFailed)
	// 120 rows at block 50 -> 3 chunks, plus 1 for the small tracker.
	assert.Equal(t, 4, stats.Chunks)

	n, err := st.Count()
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestLoad_Idempotent(t *testing.T) {
	dataDir := t.TempDir()
	writeWorkbook(t, dataDir, "tablero_control.xlsx", 120)

	st := openTestStore(t)
	loader := NewLoader(st, hashEmbedder{}, dataDir, Options{RowBlock: 50})

	_, err := loader.Load(context.Background(), false)
	require.NoError(t, err)
	first, err := st.Count()
	require.NoError(t, err)

	_, err = loader.Load(context.Background(), false)
	require.NoError(t, err)
	second, err := st.Count()
	require.NoError(t, err)

	assert.Equal(t, first, second, "reloading an unchanged corpus must not grow the store")
}

func TestLoad_ChunkMetadata(t *testing.T) {
	dataDir := t.TempDir()
	writeWorkbook(t, dataDir, "tablero_control.xlsx", 120)

	st := openTestStore(t)
	loader := NewLoader(st, hashEmbedder{}, dataDir, Options{RowBlock: 50})
	_, err := loader.Load(context.Background(), false)
	require.NoError(t, err)

	vecs, err := hashEmbedder{}.Embed(context.Background(), []string{"Meta 7"})
	require.NoError(t, err)
	results, err := st.Search(vecs[0], 10, "")
	require.NoError(t, err)
	require.Len(t, results, 3)

	ranges := map[string]bool{}
	for _, r := range results {
		assert.Equal(t, "tablero_control.xlsx", r.Chunk.Source)
		assert.Equal(t, "excel", r.Chunk.SourceType)
		assert.Equal(t, "tablero_control", r.Chunk.DocumentType)
		assert.Equal(t, "Sheet1", r.Chunk.Sheet)
		assert.False(t, r.Chunk.ProcessedAt.IsZero())
		ranges[r.Chunk.RowRange] = true
	}
	assert.Equal(t, map[string]bool{"1-50": true, "51-100": true, "101-120": true}, ranges)
}

func TestLoad_CorruptFileContained(t *testing.T) {
	dataDir := t.TempDir()
	writeWorkbook(t, dataDir, "tablero_control.xlsx", 10)
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "roto.pdf"), []byte("not a pdf"), 0o644))

	st := openTestStore(t)
	loader := NewLoader(st, hashEmbedder{}, dataDir, Options{RowBlock: 50})

	stats, err := loader.Load(context.Background(), false)
	require.NoError(t, err, "one corrupt file must not abort the load pass")
	assert.Equal(t, 2, stats.FilesTotal)
	assert.Equal(t, 1, stats.FilesLoaded)
	assert.Equal(t, 1, stats.FilesFailed)
}

func TestLoad_EmbedFailureIsFatal(t *testing.T) {
	dataDir := t.TempDir()
	writeWorkbook(t, dataDir, "tablero.xlsx", 10)

	st := openTestStore(t)
	loader := NewLoader(st, failingEmbedder{}, dataDir, Options{RowBlock: 50})

	_, err := loader.Load(context.Background(), false)
	require.Error(t, err, "an encoding failure must surface, not produce a silently incomplete index")

	n, cerr := st.Count()
	require.NoError(t, cerr)
	assert.Zero(t, n)
}

func TestLoad_FailedPassReleasesWorkers(t *testing.T) {
	// Enough files that extract workers end up blocked on the batch channel
	// when the embed stage dies; all of them must still unwind.
	dataDir := t.TempDir()
	for i := 0; i < 12; i++ {
		writeWorkbook(t, dataDir, fmt.Sprintf("tablero_%d.xlsx", i), 10)
	}

	st := openTestStore(t)
	loader := NewLoader(st, failingEmbedder{}, dataDir, Options{RowBlock: 50, Workers: 2})

	before := runtime.NumGoroutine()
	_, err := loader.Load(context.Background(), false)
	require.Error(t, err)

	deadline := time.Now().Add(2 * time.Second)
	for runtime.NumGoroutine() > before && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	assert.LessOrEqual(t, runtime.NumGoroutine(), before,
		"pipeline goroutines must not outlive a failed load pass")
}

func TestLoad_ModelChangeClearsStore(t *testing.T) {
	dataDir := t.TempDir()
	writeWorkbook(t, dataDir, "tablero.xlsx", 10)

	st := openTestStore(t)
	_, err := NewLoader(st, hashEmbedder{}, dataDir, Options{RowBlock: 50}).Load(context.Background(), false)
	require.NoError(t, err)

	// Vectors from another model live in a different space; they must not
	// survive a model switch.
	model, err := st.GetMeta("embedding_model")
	require.NoError(t, err)
	assert.Equal(t, "hash-test", model)

	otherDir := t.TempDir()
	writeWorkbook(t, otherDir, "nuevo.xlsx", 5)
	_, err = NewLoader(st, otherEmbedder{}, otherDir, Options{RowBlock: 50}).Load(context.Background(), false)
	require.NoError(t, err)

	stats, err := st.Stats()
	require.NoError(t, err)
	assert.Equal(t, []string{"nuevo.xlsx"}, stats.Sources)
}

func TestLoad_ClearFirst(t *testing.T) {
	dataDir := t.TempDir()
	writeWorkbook(t, dataDir, "tablero.xlsx", 10)

	st := openTestStore(t)
	loader := NewLoader(st, hashEmbedder{}, dataDir, Options{RowBlock: 50})
	_, err := loader.Load(context.Background(), false)
	require.NoError(t, err)

	otherDir := t.TempDir()
	writeWorkbook(t, otherDir, "otro.xlsx", 5)
	_, err = NewLoader(st, hashEmbedder{}, otherDir, Options{RowBlock: 50}).Load(context.Background(), true)
	require.NoError(t, err)

	stats, err := st.Stats()
	require.NoError(t, err)
	assert.Equal(t, []string{"otro.xlsx"}, stats.Sources)
}

func TestLoad_MissingDataDir(t *testing.T) {
	st := openTestStore(t)
	loader := NewLoader(st, hashEmbedder{}, filepath.Join(t.TempDir(), "no-existe"), Options{})

	_, err := loader.Load(context.Background(), false)
	assert.Error(t, err)
}

// otherEmbedder reports a different model name with the same dimension.
type otherEmbedder struct{ hashEmbedder }

func (otherEmbedder) Model() string { return "otro-modelo" }
