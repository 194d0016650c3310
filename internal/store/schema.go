package store

import (
	"database/sql"
	"fmt"
)

const schemaTemplate = `
PRAGMA journal_mode=WAL;

CREATE TABLE IF NOT EXISTS chunks (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    chunk_key     TEXT NOT NULL UNIQUE,
    content       TEXT NOT NULL,
    source        TEXT NOT NULL,
    source_type   TEXT NOT NULL,
    page          INTEGER NOT NULL DEFAULT 0,
    sheet         TEXT NOT NULL DEFAULT '',
    row_range     TEXT NOT NULL DEFAULT '',
    document_type TEXT NOT NULL DEFAULT 'documento_general',
    processed_at  DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_chunks_document_type ON chunks(document_type);
CREATE INDEX IF NOT EXISTS idx_chunks_source ON chunks(source);

CREATE VIRTUAL TABLE IF NOT EXISTS vec_chunks USING vec0(
    chunk_id INTEGER PRIMARY KEY,
    embedding float[%d] distance_metric=cosine
);

CREATE TABLE IF NOT EXISTS meta (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// Init creates the schema tables if they don't exist. The embedding dimension
// is baked into the vec0 table, so changing models with a different dimension
// requires a new database file.
func Init(db *sql.DB, dimension int) error {
	_, err := db.Exec(fmt.Sprintf(schemaTemplate, dimension))
	return err
}
