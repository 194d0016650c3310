package store

import "time"

// Chunk is the atomic retrievable unit: a piece of text from an official
// document together with the provenance metadata needed to cite it.
type Chunk struct {
	// Key is the deterministic identifier <source>_<page|sheet>_<hash prefix>.
	// Re-ingesting unchanged content produces the same key.
	Key          string
	Content      string
	Source       string // filename of the source document
	SourceType   string // "pdf" or "excel"
	Page         int    // 1-based page number, 0 for spreadsheet chunks
	Sheet        string // sheet name, empty for PDF chunks
	RowRange     string // e.g. "51-100", empty for PDF chunks
	DocumentType string
	ProcessedAt  time.Time
	Embedding    []float32
}

// SearchResult is a stored chunk with its distance to the query vector.
type SearchResult struct {
	Chunk    Chunk
	Distance float64
	// Relevance is 1 - Distance clamped to [0, 1]. Cosine distance ranges
	// up to 2 for opposed vectors.
	Relevance float64
}

// Stats summarizes the stored corpus.
type Stats struct {
	TotalChunks   int
	DocumentTypes map[string]int
	UniqueSources int
	Sources       []string
}
