package extract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPDF_MissingFile(t *testing.T) {
	_, err := PDF(filepath.Join(t.TempDir(), "no-existe.pdf"))
	assert.Error(t, err)
}

func TestPDF_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roto.pdf")
	require.NoError(t, os.WriteFile(path, []byte("not a pdf"), 0o644))

	_, err := PDF(path)
	assert.Error(t, err)
}

// Page-level extraction needs a real PDF; drop a sample into testdata to run.
func TestPDF_ExtractsPages(t *testing.T) {
	path := filepath.Join("testdata", "sample.pdf")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Skip("integration test requires testdata/sample.pdf")
	}

	units, err := PDF(path)
	require.NoError(t, err)
	require.NotEmpty(t, units)

	lastPage := 0
	for _, u := range units {
		assert.Greater(t, u.Loc.Page, lastPage, "pages must be in file order")
		lastPage = u.Loc.Page
		assert.NotEmpty(t, u.Text)
		assert.Empty(t, u.Loc.Sheet)
	}
}
