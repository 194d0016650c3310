// Package chunker merges paragraph-level text fragments into bounded-size
// chunks without splitting paragraphs across chunk boundaries.
package chunker

import "strings"

// DefaultMaxChars is the target upper bound for a prose chunk.
const DefaultMaxChars = 1000

// Chunker packs paragraphs greedily in arrival order. Packing is not
// size-optimal; it trades packing efficiency for paragraph integrity and
// chunk-to-page traceability.
type Chunker struct {
	maxChars int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithMaxChars sets the chunk size threshold in characters.
func WithMaxChars(n int) Option {
	return func(c *Chunker) {
		if n > 0 {
			c.maxChars = n
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{maxChars: DefaultMaxChars}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MaxChars returns the configured size threshold.
func (c *Chunker) MaxChars() int { return c.maxChars }

// Pack splits text into paragraphs on blank lines and accumulates them into
// chunks. When adding the next paragraph would reach the threshold, the
// buffer is flushed and the paragraph starts a new chunk. A single paragraph
// longer than the threshold becomes its own oversized chunk rather than
// being cut mid-sentence.
func (c *Chunker) Pack(text string) []string {
	var chunks []string
	var buf strings.Builder

	flush := func() {
		if s := strings.TrimSpace(buf.String()); s != "" {
			chunks = append(chunks, s)
		}
		buf.Reset()
	}

	for _, para := range strings.Split(text, "\n\n") {
		if strings.TrimSpace(para) == "" {
			continue
		}
		if buf.Len() > 0 && buf.Len()+len(para) >= c.maxChars {
			flush()
		}
		buf.WriteString(para)
		buf.WriteString("\n\n")
	}
	flush()

	return chunks
}
