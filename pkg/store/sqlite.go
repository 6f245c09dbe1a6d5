package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite" // pure Go driver, registered as "sqlite"
)

// SQLite driver names.
const (
	// DriverCGO selects github.com/mattn/go-sqlite3.
	DriverCGO = "sqlite3"

	// DriverPure selects modernc.org/sqlite.
	DriverPure = "sqlite"
)

// SQLiteConfig contains configuration for the SQLite storage backend.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// Driver is the database/sql driver name: "sqlite3" or "sqlite".
	// Default: "sqlite3"
	Driver string

	// Database is the logical database name recorded in backups.
	// Default: the file name without extension.
	Database string

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int

	// WALMode enables Write-Ahead Logging mode.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/giftpoints.db",
		Driver:       DriverCGO,
		MaxOpenConns: 10,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStorage implements Store using a single SQLite documents table.
type SQLiteStorage struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStorage opens the database and initializes the schema.
func NewSQLiteStorage(config *SQLiteConfig) (*SQLiteStorage, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}
	if config.Driver == "" {
		config.Driver = DriverCGO
	}
	if config.Driver != DriverCGO && config.Driver != DriverPure {
		return nil, NewStoreError("sqlite", "open", "", fmt.Errorf("unknown driver %q", config.Driver))
	}
	if config.Database == "" {
		base := filepath.Base(config.Path)
		config.Database = strings.TrimSuffix(base, filepath.Ext(base))
	}

	logger := slog.Default().With("component", "store.sqlite")

	db, err := sql.Open(config.Driver, config.Path)
	if err != nil {
		return nil, NewStoreError("sqlite", "open", "", err)
	}
	if config.MaxOpenConns > 0 {
		db.SetMaxOpenConns(config.MaxOpenConns)
	}

	s := &SQLiteStorage{
		db:     db,
		config: config,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite store initialized",
		"path", config.Path,
		"driver", config.Driver,
		"wal_mode", config.WALMode,
	)

	return s, nil
}

// initialize sets pragmas and creates the schema.
func (s *SQLiteStorage) initialize() error {
	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return NewStoreError("sqlite", "enable_wal", "", err)
		}
	}

	busyTimeoutMs := s.config.BusyTimeout.Milliseconds()
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeoutMs)); err != nil {
		return NewStoreError("sqlite", "set_busy_timeout", "", err)
	}

	if _, err := s.db.Exec(Schema); err != nil {
		return NewStoreError("sqlite", "create_schema", "", err)
	}

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return NewStoreError("sqlite", "insert_schema_version", "", err)
	}

	var version int
	if err := s.db.QueryRow(GetSchemaVersion).Scan(&version); err != nil && err != sql.ErrNoRows {
		return NewStoreError("sqlite", "get_schema_version", "", err)
	}
	if version != SchemaVersion {
		return NewStoreError("sqlite", "schema_version_mismatch", "",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	return nil
}

// Name returns the logical database name.
func (s *SQLiteStorage) Name() string {
	return s.config.Database
}

// Ping checks that the database answers.
func (s *SQLiteStorage) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrNotConnected, err)
	}
	return nil
}

// ListCollections returns the distinct collection names, sorted.
func (s *SQLiteStorage) ListCollections(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT collection FROM documents ORDER BY collection")
	if err != nil {
		return nil, NewStoreError("sqlite", "list_collections", "", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, NewStoreError("sqlite", "list_collections", "", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, NewStoreError("sqlite", "list_collections", "", err)
	}
	return names, nil
}

// Find returns documents matching filter, ordered by id.
func (s *SQLiteStorage) Find(ctx context.Context, collection string, filter Filter) ([]Document, error) {
	where, args := s.buildWhereClause(collection, filter)

	rows, err := s.db.QueryContext(ctx, "SELECT body FROM documents WHERE "+where+" ORDER BY id", args...)
	if err != nil {
		return nil, NewStoreError("sqlite", "find", collection, err)
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, NewStoreError("sqlite", "scan", collection, err)
		}
		doc, err := decodeDocument(body)
		if err != nil {
			return nil, NewStoreError("sqlite", "decode", collection, err)
		}
		// Columns only cover the indexed time fields; re-check in Go.
		if filter.Match(doc) {
			docs = append(docs, doc)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, NewStoreError("sqlite", "find", collection, err)
	}
	return docs, nil
}

// DeleteMany removes documents by id in a single statement.
func (s *SQLiteStorage) DeleteMany(ctx context.Context, collection string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	args := make([]any, 0, len(ids)+1)
	args = append(args, collection)
	for _, id := range ids {
		args = append(args, id)
	}

	query := "DELETE FROM documents WHERE collection = ? AND id IN (" + placeholders(len(ids)) + ")"
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, NewStoreError("sqlite", "delete_many", collection, err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, NewStoreError("sqlite", "delete_many", collection, err)
	}
	return count, nil
}

// DeleteAll empties a collection.
func (s *SQLiteStorage) DeleteAll(ctx context.Context, collection string) (int64, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE collection = ?", collection)
	if err != nil {
		return 0, NewStoreError("sqlite", "delete_all", collection, err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, NewStoreError("sqlite", "delete_all", collection, err)
	}
	return count, nil
}

// InsertMany inserts documents inside one transaction.
func (s *SQLiteStorage) InsertMany(ctx context.Context, collection string, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return NewStoreError("sqlite", "insert_many", collection, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO documents (collection, id, status, created_at, updated_at, body)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return NewStoreError("sqlite", "insert_many", collection, err)
	}
	defer stmt.Close()

	for _, doc := range docs {
		d := doc.Clone()
		if d == nil {
			d = Document{}
		}
		if d.ID() == "" {
			d[IDField] = uuid.NewString()
		}

		body, err := json.Marshal(d)
		if err != nil {
			return NewStoreError("sqlite", "encode", collection, err)
		}

		_, err = stmt.ExecContext(ctx,
			collection, d.ID(), nullString(d.Status()),
			timeColumn(d, CreatedAtField), timeColumn(d, UpdatedAtField),
			string(body),
		)
		if err != nil {
			return NewStoreError("sqlite", "insert_many", collection, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return NewStoreError("sqlite", "commit", collection, err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	if err := s.db.Close(); err != nil {
		return NewStoreError("sqlite", "close", "", err)
	}
	s.logger.Info("SQLite store closed")
	return nil
}

// buildWhereClause translates the indexable parts of a filter into SQL.
func (s *SQLiteStorage) buildWhereClause(collection string, filter Filter) (string, []any) {
	conditions := []string{"collection = ?"}
	args := []any{collection}

	if filter.Before != nil {
		switch filter.timeField() {
		case CreatedAtField:
			conditions = append(conditions, "created_at IS NOT NULL AND created_at <= ?")
			args = append(args, filter.Before.UTC().Format(timeLayout))
		case UpdatedAtField:
			conditions = append(conditions, "updated_at IS NOT NULL AND updated_at <= ?")
			args = append(args, filter.Before.UTC().Format(timeLayout))
		}
	}

	if len(filter.Statuses) > 0 {
		conditions = append(conditions, "status IN ("+placeholders(len(filter.Statuses))+")")
		for _, st := range filter.Statuses {
			args = append(args, st)
		}
	}

	if len(filter.IDs) > 0 {
		conditions = append(conditions, "id IN ("+placeholders(len(filter.IDs))+")")
		for _, id := range filter.IDs {
			args = append(args, id)
		}
	}

	return strings.Join(conditions, " AND "), args
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func nullString(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func timeColumn(d Document, field string) any {
	t, ok := d.Time(field)
	if !ok {
		return nil
	}
	return t.UTC().Format(timeLayout)
}

func decodeDocument(body string) (Document, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(body)))
	dec.UseNumber()
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}
