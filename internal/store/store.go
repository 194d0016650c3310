package store

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
)

func init() {
	sqlite_vec.Auto()
}

// Store persists document chunks with their embeddings and answers
// nearest-neighbor queries over them.
type Store interface {
	// Upsert writes a batch of chunks in a single transaction. A chunk whose
	// key already exists is fully replaced, including its embedding. Either
	// the whole batch lands or none of it does.
	Upsert(chunks []Chunk) error
	// Search returns up to k chunks ordered by ascending distance to the
	// query embedding. A non-empty documentType restricts the search to
	// chunks of that type before ranking, so k results are the top-k within
	// the type.
	Search(queryEmbedding []float32, k int, documentType string) ([]SearchResult, error)
	// Stats reports totals computed from stored metadata.
	Stats() (Stats, error)
	// Count returns the number of stored chunks.
	Count() (int, error)
	// Clear removes all chunks and embeddings in a single transaction.
	// Running Clear concurrently with Search is undefined; callers must
	// sequence them.
	Clear() error
	// GetMeta returns a metadata value by key, or "" if not set.
	GetMeta(key string) (string, error)
	// SetMeta sets a metadata key-value pair.
	SetMeta(key, value string) error
	// Close closes the underlying database.
	Close() error
}

// SQLiteStore implements Store backed by SQLite + sqlite-vec.
type SQLiteStore struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path and initializes
// the schema with the given embedding dimension.
func Open(dbPath string, dimension int) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := Init(db, dimension); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// MakeKey derives the deterministic chunk key from the source filename, the
// location inside it (page number or sheet name) and the chunk content.
// Unchanged content keeps its key across reloads; changed content gets a new one.
func MakeKey(source, location, content string) string {
	h := sha256.Sum256([]byte(content))
	return fmt.Sprintf("%s_%s_%s", source, location, hex.EncodeToString(h[:])[:8])
}

func (s *SQLiteStore) Upsert(chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	upsert, err := tx.Prepare(`
		INSERT INTO chunks (chunk_key, content, source, source_type, page, sheet, row_range, document_type, processed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(chunk_key) DO UPDATE SET
			content = excluded.content,
			source = excluded.source,
			source_type = excluded.source_type,
			page = excluded.page,
			sheet = excluded.sheet,
			row_range = excluded.row_range,
			document_type = excluded.document_type,
			processed_at = excluded.processed_at
	`)
	if err != nil {
		return err
	}
	defer upsert.Close()

	for _, c := range chunks {
		if c.Key == "" {
			return fmt.Errorf("chunk from %s has empty key", c.Source)
		}
		if _, err := upsert.Exec(
			c.Key, c.Content, c.Source, c.SourceType,
			c.Page, c.Sheet, c.RowRange, c.DocumentType,
			c.ProcessedAt.UTC().Format(time.RFC3339),
		); err != nil {
			return fmt.Errorf("upsert chunk %s: %w", c.Key, err)
		}

		var rowID int64
		if err := tx.QueryRow("SELECT id FROM chunks WHERE chunk_key = ?", c.Key).Scan(&rowID); err != nil {
			return fmt.Errorf("resolve chunk %s: %w", c.Key, err)
		}

		blob, err := sqlite_vec.SerializeFloat32(c.Embedding)
		if err != nil {
			return fmt.Errorf("serialize embedding for %s: %w", c.Key, err)
		}
		if _, err := tx.Exec("DELETE FROM vec_chunks WHERE chunk_id = ?", rowID); err != nil {
			return fmt.Errorf("replace embedding for %s: %w", c.Key, err)
		}
		if _, err := tx.Exec("INSERT INTO vec_chunks (chunk_id, embedding) VALUES (?, ?)", rowID, blob); err != nil {
			return fmt.Errorf("insert embedding for %s: %w", c.Key, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Search(queryEmbedding []float32, k int, documentType string) ([]SearchResult, error) {
	blob, err := sqlite_vec.SerializeFloat32(queryEmbedding)
	if err != nil {
		return nil, fmt.Errorf("serialize query embedding: %w", err)
	}

	// vec0 KNN queries require k as a MATCH-side constraint; a LIMIT pushed
	// through the join is rejected.
	query := `
		SELECT v.distance, c.chunk_key, c.content, c.source, c.source_type,
		       c.page, c.sheet, c.row_range, c.document_type, c.processed_at
		FROM vec_chunks v
		JOIN chunks c ON c.id = v.chunk_id
		WHERE v.embedding MATCH ? AND k = ?`
	args := []any{blob, k}
	if documentType != "" {
		// Pre-filter: the KNN scan only considers chunks of the requested type.
		query += ` AND v.chunk_id IN (SELECT id FROM chunks WHERE document_type = ?)`
		args = append(args, documentType)
	}
	query += `
		ORDER BY v.distance`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		var processedAt string
		err := rows.Scan(
			&r.Distance,
			&r.Chunk.Key, &r.Chunk.Content, &r.Chunk.Source, &r.Chunk.SourceType,
			&r.Chunk.Page, &r.Chunk.Sheet, &r.Chunk.RowRange, &r.Chunk.DocumentType,
			&processedAt,
		)
		if err != nil {
			return nil, err
		}
		r.Chunk.ProcessedAt, _ = time.Parse(time.RFC3339, processedAt)
		r.Relevance = 1 - r.Distance
		if r.Relevance < 0 {
			r.Relevance = 0
		} else if r.Relevance > 1 {
			r.Relevance = 1
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func (s *SQLiteStore) Stats() (Stats, error) {
	stats := Stats{DocumentTypes: map[string]int{}}

	if err := s.db.QueryRow("SELECT COUNT(*) FROM chunks").Scan(&stats.TotalChunks); err != nil {
		return stats, err
	}

	rows, err := s.db.Query("SELECT document_type, COUNT(*) FROM chunks GROUP BY document_type")
	if err != nil {
		return stats, err
	}
	defer rows.Close()
	for rows.Next() {
		var docType string
		var n int
		if err := rows.Scan(&docType, &n); err != nil {
			return stats, err
		}
		stats.DocumentTypes[docType] = n
	}
	if err := rows.Err(); err != nil {
		return stats, err
	}

	srcRows, err := s.db.Query("SELECT DISTINCT source FROM chunks ORDER BY source")
	if err != nil {
		return stats, err
	}
	defer srcRows.Close()
	for srcRows.Next() {
		var src string
		if err := srcRows.Scan(&src); err != nil {
			return stats, err
		}
		stats.Sources = append(stats.Sources, src)
	}
	stats.UniqueSources = len(stats.Sources)
	return stats, srcRows.Err()
}

func (s *SQLiteStore) Count() (int, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM chunks").Scan(&n)
	return n, err
}

func (s *SQLiteStore) Clear() error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM vec_chunks"); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM chunks"); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) GetMeta(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM meta WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (s *SQLiteStore) SetMeta(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
