package knowledge

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"gober/internal/store"
)

var docTypeEmoji = map[string]string{
	"informe_gestion":       "📊",
	"informe_ejecutivo":     "📄",
	"tablero_control":       "📈",
	"datos_complementarios": "📋",
	"documento_general":     "📝",
}

// citation renders the exact provenance of a chunk: filename plus page
// number or sheet name, whichever the source format carries.
func citation(c store.Chunk) string {
	if c.Page > 0 {
		return fmt.Sprintf("%s - Página %d", c.Source, c.Page)
	}
	if c.Sheet != "" {
		return fmt.Sprintf("%s - Hoja: %s", c.Source, c.Sheet)
	}
	return c.Source
}

// FormatContext serializes results for injection into a live conversation
// turn. Each result is a FUENTE line with the exact citation followed by the
// raw chunk content. No results means an empty string.
func FormatContext(results []store.SearchResult) string {
	if len(results) == 0 {
		return ""
	}
	var parts []string
	for i, r := range results {
		parts = append(parts, fmt.Sprintf("FUENTE %d: %s", i+1, citation(r.Chunk)))
		parts = append(parts, r.Chunk.Content)
		parts = append(parts, "---")
	}
	return strings.Join(parts, "\n")
}

// FormatDigest builds the human-readable multi-source answer used for
// explicit document searches.
func FormatDigest(query string, results []store.SearchResult) string {
	if len(results) == 0 {
		return fmt.Sprintf("No encontré información específica sobre %q en los documentos oficiales disponibles.", query)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📋 **Información encontrada sobre %q:**\n", query)

	for i, r := range results {
		emoji, ok := docTypeEmoji[r.Chunk.DocumentType]
		if !ok {
			emoji = "📄"
		}

		content := r.Chunk.Content
		if len(content) > 400 {
			cut := 400
			for cut > 0 && !utf8.RuneStart(content[cut]) {
				cut--
			}
			content = content[:cut] + "..."
		}

		fmt.Fprintf(&b, "\n**%d. %s %s**\n", i+1, emoji, citation(r.Chunk))
		fmt.Fprintf(&b, "*Relevancia: %.1f%%*\n", r.Relevance*100)
		b.WriteString(content)
		b.WriteString("\n---\n")
	}

	b.WriteString("\n✅ **Toda esta información proviene de documentos oficiales.**")
	return b.String()
}
