// Package history keeps a SQLite ledger of pipeline runs, the papers each run
// handled and the episodes it produced.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/nguyentantai21042004/daily-papers/internal/model"
)

const (
	dbFile     = "history.db"
	dateLayout = "2006-01-02"
	// Fixed width so timestamps sort as text.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// Run statuses.
const (
	RunRunning   = "running"
	RunCompleted = "completed"
	RunEmpty     = "empty"
	RunFailed    = "failed"
)

// Paper outcomes.
const (
	PaperDone   = "done"
	PaperFailed = "failed"
)

// Store is the history database.
type Store struct {
	db   *sql.DB
	path string
}

// RunSummary is what FinishRun records about a run.
type RunSummary struct {
	Status   string
	Fetched  int
	Selected int
	Err      error
}

// RunRecord is one row of the run history, joined with its episode if any.
type RunRecord struct {
	ID         string
	PaperDate  time.Time
	Status     string
	Fetched    int
	Selected   int
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
	Failed     int
	Episode    string
}

// EpisodeRecord is one produced episode.
type EpisodeRecord struct {
	RunID        string
	PaperDate    time.Time
	Title        string
	AudioPath    string
	VideoPath    string
	Duration     time.Duration
	SegmentCount int
	UploadID     string
	CreatedAt    time.Time
}

// Open creates dir if needed, opens dir/history.db and applies migrations.
func Open(ctx context.Context, dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// StartRun inserts a run in the running state.
func (s *Store) StartRun(ctx context.Context, runID string, day time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, paper_date, status, started_at) VALUES (?, ?, ?, ?)`,
		runID, day.Format(dateLayout), RunRunning, now(),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// FinishRun stores the final status and counters of a run.
func (s *Store) FinishRun(ctx context.Context, runID string, summary RunSummary) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, fetched = ?, selected = ?, error_message = ?, finished_at = ? WHERE id = ?`,
		summary.Status, summary.Fetched, summary.Selected, errorText(summary.Err), now(), runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finish run: unknown run %s", runID)
	}
	return nil
}

// RecordPaper stores the outcome of one paper within a run. Stage and err are
// empty for successful papers.
func (s *Store) RecordPaper(ctx context.Context, runID string, paper model.Paper, status, stage string, paperErr error) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO papers (run_id, base_id, paper_id, title, status, stage, error_message, recorded_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(run_id, base_id) DO UPDATE SET
            status = excluded.status,
            stage = excluded.stage,
            error_message = excluded.error_message,
            recorded_at = excluded.recorded_at`,
		runID, paper.BaseID(), paper.ID, paper.Title, status, nullableString(stage), errorText(paperErr), now(),
	)
	if err != nil {
		return fmt.Errorf("record paper %s: %w", paper.ID, err)
	}
	return nil
}

// RecordEpisode stores the episode produced by a run.
func (s *Store) RecordEpisode(ctx context.Context, runID string, ep model.Episode, uploadID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO episodes (run_id, paper_date, title, audio_path, video_path, duration_ms, segment_count, upload_id, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(run_id) DO UPDATE SET upload_id = excluded.upload_id`,
		runID, ep.Date.Format(dateLayout), ep.Title, ep.AudioPath, nullableString(ep.VideoPath),
		ep.Duration.Milliseconds(), len(ep.Segments), nullableString(uploadID), now(),
	)
	if err != nil {
		return fmt.Errorf("record episode: %w", err)
	}
	return nil
}

// ProcessedIDs returns the subset of ids (compared without version suffix)
// that already made it into an episode.
func (s *Store) ProcessedIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	processed := make(map[string]bool)
	if len(ids) == 0 {
		return processed, nil
	}

	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, model.BaseID(id))
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(args)), ",")

	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT p.base_id FROM papers p
         JOIN episodes e ON e.run_id = p.run_id
         WHERE p.status = '`+PaperDone+`' AND p.base_id IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("query processed papers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan processed paper: %w", err)
		}
		processed[id] = true
	}
	return processed, rows.Err()
}

// RecentRuns returns the latest runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.paper_date, r.status, r.fetched, r.selected, r.error_message, r.started_at, r.finished_at,
                (SELECT COUNT(1) FROM papers p WHERE p.run_id = r.id AND p.status = '`+PaperFailed+`'),
                e.title
         FROM runs r LEFT JOIN episodes e ON e.run_id = r.id
         ORDER BY r.started_at DESC, r.rowid DESC LIMIT ?`,
		limitOrDefault(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var (
			rec                          RunRecord
			paperDate, startedRaw        string
			errMsg, finishedRaw, episode sql.NullString
		)
		if err := rows.Scan(&rec.ID, &paperDate, &rec.Status, &rec.Fetched, &rec.Selected, &errMsg, &startedRaw, &finishedRaw, &rec.Failed, &episode); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		rec.PaperDate = parseDate(paperDate)
		rec.StartedAt = parseTime(startedRaw)
		rec.FinishedAt = parseTime(finishedRaw.String)
		rec.Error = errMsg.String
		rec.Episode = episode.String
		runs = append(runs, rec)
	}
	return runs, rows.Err()
}

// RecentEpisodes returns the latest episodes, newest first.
func (s *Store) RecentEpisodes(ctx context.Context, limit int) ([]EpisodeRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, paper_date, title, audio_path, video_path, duration_ms, segment_count, upload_id, created_at
         FROM episodes ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		limitOrDefault(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("query episodes: %w", err)
	}
	defer rows.Close()

	var episodes []EpisodeRecord
	for rows.Next() {
		var (
			rec                 EpisodeRecord
			paperDate, created  string
			videoPath, uploadID sql.NullString
			durationMS          int64
		)
		if err := rows.Scan(&rec.RunID, &paperDate, &rec.Title, &rec.AudioPath, &videoPath, &durationMS, &rec.SegmentCount, &uploadID, &created); err != nil {
			return nil, fmt.Errorf("scan episode: %w", err)
		}
		rec.PaperDate = parseDate(paperDate)
		rec.VideoPath = videoPath.String
		rec.UploadID = uploadID.String
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		rec.CreatedAt = parseTime(created)
		episodes = append(episodes, rec)
	}
	return episodes, rows.Err()
}

func now() string {
	return time.Now().UTC().Format(timeLayout)
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseDate(raw string) time.Time {
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func errorText(err error) any {
	if err == nil {
		return nil
	}
	return err.Error()
}

func limitOrDefault(limit int) int {
	if limit <= 0 {
		return 20
	}
	return limit
}
