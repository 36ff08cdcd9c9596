package projects

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/effort-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS projects (
	id                      TEXT PRIMARY KEY,
	project_name            TEXT NOT NULL,
	function_point_analysis TEXT NOT NULL,
	estimation_results      TEXT NOT NULL,
	created_at              DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_projects_created_at ON projects(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Create(ctx context.Context, p model.Project) (*model.Project, error) {
	if p.ProjectName == "" {
		return nil, eris.New("sqlite: project name is required")
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.DateCreated.IsZero() {
		p.DateCreated = time.Now()
	}
	p.DateCreated = p.DateCreated.UTC()

	fpJSON, err := json.Marshal(p.FunctionPointAnalysis)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal function point analysis")
	}
	resJSON, err := json.Marshal(p.EstimationResults)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal estimation results")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO projects (id, project_name, function_point_analysis, estimation_results, created_at) VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.ProjectName, string(fpJSON), string(resJSON), p.DateCreated,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert project")
	}
	return &p, nil
}

func (s *SQLiteStore) List(ctx context.Context, limit int) ([]model.Project, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_name, function_point_analysis, estimation_results, created_at FROM projects ORDER BY created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list projects")
	}
	defer rows.Close()

	projects := []model.Project{}
	for rows.Next() {
		var (
			p       model.Project
			fpJSON  string
			resJSON string
		)
		if err := rows.Scan(&p.ID, &p.ProjectName, &fpJSON, &resJSON, &p.DateCreated); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan project")
		}
		if err := json.Unmarshal([]byte(fpJSON), &p.FunctionPointAnalysis); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal function point analysis")
		}
		if err := json.Unmarshal([]byte(resJSON), &p.EstimationResults); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal estimation results")
		}
		projects = append(projects, p)
	}
	return projects, eris.Wrap(rows.Err(), "sqlite: list projects iterate")
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects`).Scan(&n); err != nil {
		return 0, eris.Wrap(err, "sqlite: count projects")
	}
	return n, nil
}
