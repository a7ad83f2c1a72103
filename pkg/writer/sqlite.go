package writer

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/glebarez/sqlite"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/serverless-otel/ingestd/internal/logger"
	"github.com/serverless-otel/ingestd/pkg/record"
)

// connCacheSize and connCacheTTL bound SQLiteWriter's open-connection
// cache the same way FilesystemManager bounds its initialization cache:
// a warm writer handles many records against the same segment, so caching
// the *sql.DB avoids a re-open (and schema re-check) per write, but the
// cache must still have a ceiling so a long-running process handling many
// distinct segments doesn't accumulate one held-open file descriptor per
// segment forever.
const (
	connCacheSize = 50
	connCacheTTL  = 15 * time.Minute
)

// SQLiteWriter persists each record as a row in a single embedded
// relational database file per segment, using the pure-Go glebarez/sqlite
// driver so the process carries no cgo dependency.
type SQLiteWriter struct {
	BaseDir string

	mu    sync.Mutex
	conns *expirable.LRU[string, *sql.DB]
}

var _ SegmentWriter = (*SQLiteWriter)(nil)

// NewSQLiteWriter constructs a SQLiteWriter rooted at baseDir.
func NewSQLiteWriter(baseDir string) *SQLiteWriter {
	w := &SQLiteWriter{BaseDir: baseDir}
	w.conns = expirable.NewLRU[string, *sql.DB](connCacheSize, w.evictConn, connCacheTTL)
	return w
}

// evictConn closes a connection evicted from the cache by size or TTL.
// Size evictions and Close's Purge invoke it synchronously with w.mu held;
// TTL expirations invoke it from expirable.LRU's own background goroutine,
// without w.mu.
func (w *SQLiteWriter) evictConn(key string, db *sql.DB) {
	if err := db.Close(); err != nil {
		logger.Error("closing evicted sqlite connection", "segment_key", key, "error", err)
	}
}

func (w *SQLiteWriter) dbPath(dataset, segment string) string {
	return filepath.Join(w.BaseDir, dataset, segment, segment+".sqlite")
}

// openConn returns a cached *sql.DB for (dataset, segment), creating the
// database file and its schema on first use. Connections are cached up to
// connCacheSize/connCacheTTL, since the lease, not the connection, is what
// gates concurrent mutation; entries evicted by size or age are closed by
// evictConn.
func (w *SQLiteWriter) openConn(dataset, segment string) (*sql.DB, error) {
	key := dataset + "/" + segment

	w.mu.Lock()
	defer w.mu.Unlock()

	if db, ok := w.conns.Get(key); ok {
		return db, nil
	}

	path := w.dbPath(dataset, segment)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating segment directory: %w", err)
	}

	_, existsErr := os.Stat(path)
	databaseExists := existsErr == nil

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = memory",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying %q: %w", pragma, err)
		}
	}

	if !databaseExists {
		const createTable = `CREATE TABLE segment_data (
			correlation_id TEXT PRIMARY KEY,
			timestamp INTEGER,
			payload TEXT
		)`
		if _, err := db.Exec(createTable); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating schema: %w", err)
		}
	}

	w.conns.Add(key, db)
	return db, nil
}

// Write inserts rec as a single row keyed by correlation-id. A duplicate
// correlation-id within a segment violates the primary key and is
// surfaced as a write error rather than silently ignored.
func (w *SQLiteWriter) Write(ctx context.Context, dataset, segment string, rec record.Record) error {
	db, err := w.openConn(dataset, segment)
	if err != nil {
		return err
	}

	timestamp, err := rec.TimestampNanos()
	if err != nil {
		return fmt.Errorf("invalid timestamp: %w", err)
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling payload: %w", err)
	}

	const insert = `INSERT INTO segment_data(correlation_id, timestamp, payload) VALUES (?, ?, ?)`
	if _, err := db.ExecContext(ctx, insert, rec.CorrelationID(), timestamp, string(payload)); err != nil {
		return fmt.Errorf("inserting segment row: %w", err)
	}

	logger.DebugCtx(ctx, "wrote segment row",
		logger.WriterKind(string(KindSQLite)),
		logger.SegmentID(segment),
		logger.RowCount(1))

	return nil
}

// Close closes every cached connection via evictConn. Safe to call once
// at process shutdown.
func (w *SQLiteWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.conns.Purge()
	return nil
}
