package knowledge

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"gober/internal/store"
)

func TestFormatContext_Empty(t *testing.T) {
	assert.Empty(t, FormatContext(nil))
}

func TestFormatContext_SheetCitation(t *testing.T) {
	results := []store.SearchResult{{
		Chunk: store.Chunk{
			Content:  "Hoja: Metas\n...",
			Source:   "tablero_control.xlsx",
			Sheet:    "Metas",
			RowRange: "1-50",
		},
		Relevance: 0.7,
	}}

	text := FormatContext(results)
	assert.Contains(t, text, "FUENTE 1: tablero_control.xlsx - Hoja: Metas")
	assert.Contains(t, text, "---")
}

func TestFormatDigest_TruncatesLongContent(t *testing.T) {
	long := strings.Repeat("é", 300) // 600 bytes of two-byte runes
	results := []store.SearchResult{{
		Chunk:     store.Chunk{Content: long, Source: "informe.pdf", Page: 1, DocumentType: "informe_ejecutivo"},
		Relevance: 0.5,
	}}

	digest := FormatDigest("consulta", results)
	assert.Contains(t, digest, "...")
	assert.True(t, strings.Contains(digest, "informe.pdf - Página 1"))
	// Truncation must not split a rune.
	assert.True(t, strings.ContainsRune(digest, 'é'))
	assert.NotContains(t, digest, "�")
}

func TestFormatDigest_EmojiPerType(t *testing.T) {
	results := []store.SearchResult{
		{Chunk: store.Chunk{Content: "a", Source: "x.pdf", Page: 1, DocumentType: "informe_gestion"}, Relevance: 0.9},
		{Chunk: store.Chunk{Content: "b", Source: "y.xlsx", Sheet: "Datos", DocumentType: "datos_complementarios"}, Relevance: 0.4},
	}

	digest := FormatDigest("q", results)
	assert.Contains(t, digest, "📊")
	assert.Contains(t, digest, "📋")
	assert.Contains(t, digest, "Relevancia: 90.0%")
	assert.Contains(t, digest, "Relevancia: 40.0%")
	assert.Contains(t, digest, "documentos oficiales")
}

func TestFormatDigest_UnknownTypeFallsBack(t *testing.T) {
	results := []store.SearchResult{
		{Chunk: store.Chunk{Content: "a", Source: "x.pdf", Page: 2, DocumentType: "otro"}, Relevance: 0.9},
	}
	digest := FormatDigest("q", results)
	assert.Contains(t, digest, "📄")
}
