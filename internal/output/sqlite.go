package output

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jakopako/pinpoint/internal/report"
	_ "modernc.org/sqlite"
)

const reportsSchema = `CREATE TABLE IF NOT EXISTS reports (
	id TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	url TEXT,
	comment TEXT NOT NULL,
	target TEXT,
	errors INTEGER NOT NULL DEFAULT 0,
	document TEXT NOT NULL,
	screenshot BLOB
)`

// SQLiteWriter stores reports in a local sqlite database.
type SQLiteWriter struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteWriter opens (and if necessary creates) the database at
// db_path.
func NewSQLiteWriter(wc *WriterConfig) (*SQLiteWriter, error) {
	if wc.DBPath == "" {
		return nil, errors.New("db_path needs to be specified for the SQLiteWriter")
	}
	db, err := sql.Open("sqlite", wc.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=10000",
	}
	for _, pragma := range append(pragmas, reportsSchema) {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
	}
	return &SQLiteWriter{
		db:     db,
		logger: slog.With(slog.String("writer", string(SQLITE_WRITER_TYPE))),
	}, nil
}

func (w *SQLiteWriter) Write(ctx context.Context, r *report.Report) error {
	doc, err := encodeJSON(r)
	if err != nil {
		return err
	}
	var screenshot []byte
	if r.Image != nil {
		screenshot = r.Image.Data
	}
	_, err = w.db.ExecContext(ctx,
		`INSERT INTO reports (id, created_at, url, comment, target, errors, document, screenshot)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.CreatedAt.UTC().Format(time.RFC3339Nano), r.URL, r.Comment, r.Target,
		len(r.Errors()), string(doc), screenshot)
	if err != nil {
		return fmt.Errorf("error while inserting report %s: %w", r.ID, err)
	}
	w.logger.Info(fmt.Sprintf("stored report %s", r.ID))
	return nil
}

func (w *SQLiteWriter) Close() error {
	return w.db.Close()
}
