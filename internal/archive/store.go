// Package archive persists completed transcription runs to PostgreSQL so
// sidecar contents stay queryable after the files themselves move on.
package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Schema is the SQL DDL for the archive tables. Execute it via
// [Store.Migrate] or apply it manually during deployment.
const Schema = `
CREATE TABLE IF NOT EXISTS transcription_runs (
    id             BIGSERIAL PRIMARY KEY,
    media_path     TEXT NOT NULL,
    sidecar_path   TEXT NOT NULL,
    format         TEXT NOT NULL,
    model          TEXT NOT NULL DEFAULT '',
    language       TEXT NOT NULL DEFAULT '',
    diarized       BOOLEAN NOT NULL DEFAULT FALSE,
    word_count     INTEGER NOT NULL DEFAULT 0,
    transcribed_at TIMESTAMPTZ NOT NULL,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_transcription_runs_media ON transcription_runs(media_path);

CREATE TABLE IF NOT EXISTS transcription_paragraphs (
    id         BIGSERIAL PRIMARY KEY,
    run_id     BIGINT NOT NULL REFERENCES transcription_runs(id) ON DELETE CASCADE,
    position   INTEGER NOT NULL,
    speaker    TEXT NOT NULL,
    start_sec  DOUBLE PRECISION NOT NULL,
    end_sec    DOUBLE PRECISION NOT NULL,
    word_count INTEGER NOT NULL,
    body       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_transcription_paragraphs_run ON transcription_paragraphs(run_id);
`

// DB is the database interface used by [Store]. Both *pgxpool.Pool and
// *pgx.Conn satisfy this interface.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Run describes one completed transcription of one media file.
type Run struct {
	MediaPath     string
	SidecarPath   string
	Format        string
	Model         string
	Language      string
	Diarized      bool
	WordCount     int
	TranscribedAt time.Time
}

// ParagraphRecord is one grouped paragraph belonging to a [Run].
type ParagraphRecord struct {
	Position  int
	Speaker   string
	StartSec  float64
	EndSec    float64
	WordCount int
	Body      string
}

// Store writes transcription runs to PostgreSQL.
type Store struct {
	db DB
}

// NewStore creates a [Store] that uses the given database connection or
// pool. The caller is responsible for calling [Store.Migrate] to ensure the
// schema exists before issuing queries.
func NewStore(db DB) *Store {
	return &Store{db: db}
}

// Migrate executes the [Schema] DDL against the database, creating the
// archive tables and indexes if they do not already exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("archive: migrate: %w", err)
	}
	return nil
}

// SaveRun inserts a run and its paragraphs, returning the new run ID.
func (s *Store) SaveRun(ctx context.Context, run Run, paragraphs []ParagraphRecord) (int64, error) {
	const insertRun = `
		INSERT INTO transcription_runs (
			media_path, sidecar_path, format, model, language,
			diarized, word_count, transcribed_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id`

	var runID int64
	err := s.db.QueryRow(ctx, insertRun,
		run.MediaPath, run.SidecarPath, run.Format, run.Model, run.Language,
		run.Diarized, run.WordCount, run.TranscribedAt,
	).Scan(&runID)
	if err != nil {
		return 0, fmt.Errorf("archive: save run %q: %w", run.MediaPath, err)
	}

	const insertParagraph = `
		INSERT INTO transcription_paragraphs (
			run_id, position, speaker, start_sec, end_sec, word_count, body
		) VALUES ($1,$2,$3,$4,$5,$6,$7)`

	for _, p := range paragraphs {
		if _, err := s.db.Exec(ctx, insertParagraph,
			runID, p.Position, p.Speaker, p.StartSec, p.EndSec, p.WordCount, p.Body,
		); err != nil {
			return 0, fmt.Errorf("archive: save paragraph %d of run %d: %w", p.Position, runID, err)
		}
	}

	return runID, nil
}
