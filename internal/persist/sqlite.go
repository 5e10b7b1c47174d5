package persist

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/nvall/meetscribe/internal/summarize"
)

// LocalStore keeps a durable copy of every finalized session in sqlite. It
// is the fallback when the remote sessions API is unreachable and the
// backing store for the read API.
type LocalStore struct {
	db *sql.DB
}

func NewLocalStore(dbPath string) (*LocalStore, error) {
	if strings.TrimSpace(dbPath) == "" {
		dbPath = filepath.Join("data", "meetscribe.db")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &LocalStore{db: db}
	if err := store.init(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *LocalStore) init() error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return fmt.Errorf("apply pragma %q: %w", p, err)
		}
	}

	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL DEFAULT '',
			transcript TEXT NOT NULL DEFAULT '',
			summary TEXT NOT NULL DEFAULT '',
			keywords TEXT NOT NULL DEFAULT '[]',
			action_items TEXT NOT NULL DEFAULT '[]',
			owner_email TEXT NOT NULL DEFAULT '',
			download_url TEXT NOT NULL DEFAULT '',
			audio_url TEXT NOT NULL DEFAULT '',
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			status TEXT NOT NULL
		);
	`); err != nil {
		return fmt.Errorf("create sessions table: %w", err)
	}

	if _, err := s.db.Exec("CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions(started_at)"); err != nil {
		return fmt.Errorf("create sessions index: %w", err)
	}

	return nil
}

func (s *LocalStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// UpsertSession inserts or replaces a record keyed by session id.
func (s *LocalStore) UpsertSession(rec Record) error {
	if strings.TrimSpace(rec.ID) == "" {
		return errors.New("session id is required")
	}

	keywords, err := json.Marshal(emptyIfNilStrings(rec.Keywords))
	if err != nil {
		return fmt.Errorf("marshal keywords: %w", err)
	}
	actionItems, err := json.Marshal(emptyIfNilItems(rec.ActionItems))
	if err != nil {
		return fmt.Errorf("marshal action items: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO sessions(id, title, transcript, summary, keywords, action_items, owner_email, download_url, audio_url, started_at, ended_at, status)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			transcript = excluded.transcript,
			summary = excluded.summary,
			keywords = excluded.keywords,
			action_items = excluded.action_items,
			owner_email = excluded.owner_email,
			download_url = excluded.download_url,
			audio_url = excluded.audio_url,
			ended_at = excluded.ended_at,
			status = excluded.status`,
		rec.ID,
		rec.Title,
		rec.Transcript,
		rec.Summary,
		string(keywords),
		string(actionItems),
		rec.OwnerEmail,
		rec.DownloadURL,
		rec.AudioURL,
		rec.StartedAt.UTC().Format(time.RFC3339Nano),
		rec.EndedAt.UTC().Format(time.RFC3339Nano),
		rec.Status,
	)
	if err != nil {
		return fmt.Errorf("upsert session %s: %w", rec.ID, err)
	}
	return nil
}

func (s *LocalStore) GetSession(id string) (Record, error) {
	row := s.db.QueryRow(sessionColumns+" FROM sessions WHERE id = ?", id)
	rec, err := scanSession(row)
	if err != nil {
		return Record{}, fmt.Errorf("query session %s: %w", id, err)
	}
	return rec, nil
}

// GetSessionsByDate returns sessions started on the given UTC date
// (YYYY-MM-DD), newest first.
func (s *LocalStore) GetSessionsByDate(date string) ([]Record, error) {
	rows, err := s.db.Query(
		sessionColumns+` FROM sessions WHERE substr(started_at, 1, 10) = ? ORDER BY started_at DESC`,
		date,
	)
	if err != nil {
		return nil, fmt.Errorf("query sessions by date %s: %w", date, err)
	}
	defer func() { _ = rows.Close() }()

	records := make([]Record, 0, 16)
	for rows.Next() {
		rec, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions rows: %w", err)
	}

	return records, nil
}

func (s *LocalStore) GetDates() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT substr(started_at, 1, 10) AS date FROM sessions ORDER BY date DESC`)
	if err != nil {
		return nil, fmt.Errorf("query dates: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan date: %w", err)
		}
		dates = append(dates, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dates rows: %w", err)
	}

	return dates, nil
}

const sessionColumns = `SELECT id, title, transcript, summary, keywords, action_items, owner_email, download_url, audio_url, started_at, ended_at, status`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (Record, error) {
	var rec Record
	var keywords, actionItems, startedAt, endedAt string

	if err := row.Scan(
		&rec.ID, &rec.Title, &rec.Transcript, &rec.Summary,
		&keywords, &actionItems,
		&rec.OwnerEmail, &rec.DownloadURL, &rec.AudioURL,
		&startedAt, &endedAt, &rec.Status,
	); err != nil {
		return Record{}, err
	}

	if err := json.Unmarshal([]byte(keywords), &rec.Keywords); err != nil {
		return Record{}, fmt.Errorf("parse keywords for session %s: %w", rec.ID, err)
	}
	if err := json.Unmarshal([]byte(actionItems), &rec.ActionItems); err != nil {
		return Record{}, fmt.Errorf("parse action items for session %s: %w", rec.ID, err)
	}

	parsedStart, err := time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return Record{}, fmt.Errorf("parse started_at for session %s: %w", rec.ID, err)
	}
	rec.StartedAt = parsedStart

	parsedEnd, err := time.Parse(time.RFC3339Nano, endedAt)
	if err != nil {
		return Record{}, fmt.Errorf("parse ended_at for session %s: %w", rec.ID, err)
	}
	rec.EndedAt = parsedEnd

	return rec, nil
}

func emptyIfNilStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

func emptyIfNilItems(in []summarize.ActionItem) []summarize.ActionItem {
	if in == nil {
		return []summarize.ActionItem{}
	}
	return in
}
