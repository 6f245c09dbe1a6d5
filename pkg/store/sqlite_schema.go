package store

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema contains the SQL statements to create the document store schema.
const Schema = `
-- Documents table: one row per document, body holds the JSON encoding
CREATE TABLE IF NOT EXISTS documents (
    collection TEXT NOT NULL,
    id TEXT NOT NULL,

    -- Extracted lifecycle fields used by retention queries
    status TEXT,
    created_at TEXT,
    updated_at TEXT,

    body TEXT NOT NULL,
    PRIMARY KEY (collection, id)
);

CREATE INDEX IF NOT EXISTS idx_documents_created ON documents(collection, created_at);
CREATE INDEX IF NOT EXISTS idx_documents_updated ON documents(collection, updated_at);
CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(collection, status);

-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

// InsertSchemaVersion records the schema version.
const InsertSchemaVersion = `INSERT OR IGNORE INTO schema_version (version) VALUES (?)`

// GetSchemaVersion returns the latest schema version.
const GetSchemaVersion = `SELECT MAX(version) FROM schema_version`

// timeLayout is fixed-width so that lexical comparison in SQL matches
// chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"
