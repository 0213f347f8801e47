// internal/db/store.go
package db

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"bigbrain/internal/models"
)

// Store records every orchestration exchange for later inspection and
// export. Recording is best-effort around the core: callers log store
// failures and carry on.
type Store struct {
	db *sql.DB
}

// Exchange is one top-level orchestrator call.
type Exchange struct {
	ID          string
	Kind        string // ask_codex, ask_gemini, ask_both, consensus, debate, council
	Topic       string
	ProjectPath string
	CreatedAt   time.Time
}

// Response is one model response within an exchange. Round is 0 for
// single-shot kinds; Stage distinguishes council stages and the consensus
// synthesis.
type Response struct {
	ID             int64
	ExchangeID     string
	Model          string
	Round          int
	Stage          string
	Content        string
	ElapsedSeconds float64
	Success        bool
	Error          string
	CreatedAt      time.Time
}

func Open() (*Store, error) {
	dir, err := dataDir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return OpenPath(filepath.Join(dir, "exchanges.db"))
}

func OpenPath(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, err
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func dataDir() (string, error) {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "bigbrain"), nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS exchanges (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		topic TEXT NOT NULL,
		project_path TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS responses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		exchange_id TEXT NOT NULL REFERENCES exchanges(id),
		model TEXT NOT NULL,
		round INTEGER DEFAULT 0,
		stage TEXT DEFAULT '',
		content TEXT NOT NULL,
		elapsed_seconds REAL NOT NULL,
		success INTEGER NOT NULL,
		error TEXT DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_responses_exchange ON responses(exchange_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

// CreateExchange records the start of a top-level orchestrator call.
func (s *Store) CreateExchange(id, kind, topic, projectPath string) error {
	_, err := s.db.Exec(
		`INSERT INTO exchanges (id, kind, topic, project_path) VALUES (?, ?, ?, ?)`,
		id, kind, topic, projectPath,
	)
	return err
}

// AddResponse appends one model response to an exchange.
func (s *Store) AddResponse(exchangeID string, round int, stage string, resp models.ModelResponse) error {
	_, err := s.db.Exec(
		`INSERT INTO responses (exchange_id, model, round, stage, content, elapsed_seconds, success, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		exchangeID, resp.Model, round, stage, resp.Response, resp.ElapsedSeconds, resp.Success, resp.Error,
	)
	return err
}

// GetExchange retrieves one exchange by ID.
func (s *Store) GetExchange(id string) (*Exchange, error) {
	row := s.db.QueryRow(
		`SELECT id, kind, topic, project_path, created_at FROM exchanges WHERE id = ?`, id,
	)

	var e Exchange
	var projectPath sql.NullString
	if err := row.Scan(&e.ID, &e.Kind, &e.Topic, &projectPath, &e.CreatedAt); err != nil {
		return nil, err
	}
	e.ProjectPath = projectPath.String
	return &e, nil
}

// ListExchanges returns all exchanges, most recent first.
func (s *Store) ListExchanges() ([]Exchange, error) {
	rows, err := s.db.Query(
		`SELECT id, kind, topic, project_path, created_at FROM exchanges ORDER BY created_at DESC, id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exchanges []Exchange
	for rows.Next() {
		var e Exchange
		var projectPath sql.NullString
		if err := rows.Scan(&e.ID, &e.Kind, &e.Topic, &projectPath, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.ProjectPath = projectPath.String
		exchanges = append(exchanges, e)
	}
	return exchanges, rows.Err()
}

// GetResponses returns an exchange's responses in insertion order.
func (s *Store) GetResponses(exchangeID string) ([]Response, error) {
	rows, err := s.db.Query(
		`SELECT id, exchange_id, model, round, stage, content, elapsed_seconds, success, error, created_at
		 FROM responses WHERE exchange_id = ? ORDER BY id`,
		exchangeID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var responses []Response
	for rows.Next() {
		var r Response
		if err := rows.Scan(&r.ID, &r.ExchangeID, &r.Model, &r.Round, &r.Stage, &r.Content,
			&r.ElapsedSeconds, &r.Success, &r.Error, &r.CreatedAt); err != nil {
			return nil, err
		}
		responses = append(responses, r)
	}
	return responses, rows.Err()
}
