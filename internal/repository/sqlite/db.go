// Package sqlite implements repository.Repository against a SQLite
// database via github.com/mattn/go-sqlite3: plain database/sql, PRAGMA
// tuning on connect, one struct per entity, and result.Result-wrapped
// outcomes in place of (T, error) pairs.
package sqlite

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/jpicklyk/task-orchestrator/internal/repository"
)

// Store is the SQLite-backed repository.Repository implementation.
type Store struct {
	db *sql.DB
}

// Open connects to dsn (a file path, or ":memory:") and applies the
// schema if it is not already present.
func Open(dsn string) (*Store, error) {
	if dsn == "" {
		dsn = ":memory:"
	}
	db, err := sql.Open("sqlite3", dsn+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite database: %w", err)
	}
	if err := configurePragmas(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func configurePragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA foreign_keys = ON;",
		"PRAGMA journal_mode = WAL;",
		"PRAGMA busy_timeout = 5000;",
		"PRAGMA synchronous = NORMAL;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("applying %q: %w", p, err)
		}
	}
	return nil
}

var schema = `
CREATE TABLE IF NOT EXISTS projects (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	summary TEXT NOT NULL,
	description TEXT,
	status TEXT NOT NULL,
	tags TEXT,
	created_at DATETIME NOT NULL,
	modified_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS features (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	summary TEXT NOT NULL,
	description TEXT,
	status TEXT NOT NULL,
	priority TEXT NOT NULL,
	project_id TEXT REFERENCES projects(id),
	requires_verification BOOLEAN NOT NULL DEFAULT 0,
	tags TEXT,
	created_at DATETIME NOT NULL,
	modified_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS tasks (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	summary TEXT NOT NULL,
	description TEXT,
	status TEXT NOT NULL,
	priority TEXT NOT NULL,
	complexity INTEGER NOT NULL DEFAULT 0,
	project_id TEXT REFERENCES projects(id),
	feature_id TEXT REFERENCES features(id),
	requires_verification BOOLEAN NOT NULL DEFAULT 0,
	tags TEXT,
	created_at DATETIME NOT NULL,
	modified_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS sections (
	id TEXT PRIMARY KEY,
	entity_type TEXT NOT NULL,
	entity_id TEXT NOT NULL,
	title TEXT NOT NULL,
	ordinal INTEGER NOT NULL,
	content_format TEXT NOT NULL,
	content TEXT NOT NULL,
	usage_description TEXT,
	tags TEXT,
	UNIQUE(entity_type, entity_id, ordinal)
);
CREATE INDEX IF NOT EXISTS idx_sections_entity ON sections(entity_type, entity_id);

CREATE TABLE IF NOT EXISTS dependencies (
	id TEXT PRIMARY KEY,
	from_task_id TEXT NOT NULL REFERENCES tasks(id),
	to_task_id TEXT NOT NULL REFERENCES tasks(id),
	type TEXT NOT NULL,
	unblock_at TEXT,
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_dependencies_from ON dependencies(from_task_id);
CREATE INDEX IF NOT EXISTS idx_dependencies_to ON dependencies(to_task_id);

CREATE TABLE IF NOT EXISTS role_transitions (
	id TEXT PRIMARY KEY,
	entity_id TEXT NOT NULL,
	entity_type TEXT NOT NULL,
	from_role TEXT,
	to_role TEXT,
	from_status TEXT,
	to_status TEXT,
	transitioned_at DATETIME NOT NULL,
	trigger TEXT,
	summary TEXT
);
CREATE INDEX IF NOT EXISTS idx_role_transitions_entity ON role_transitions(entity_id);

CREATE TABLE IF NOT EXISTS templates (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	target_type TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS template_sections (
	id TEXT PRIMARY KEY,
	template_id TEXT NOT NULL REFERENCES templates(id),
	title TEXT NOT NULL,
	ordinal INTEGER NOT NULL,
	content_format TEXT NOT NULL,
	content TEXT NOT NULL,
	usage_description TEXT
);
CREATE INDEX IF NOT EXISTS idx_template_sections_template ON template_sections(template_id);
`

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}

// Projects implements repository.Repository.
func (s *Store) Projects() repository.ProjectRepository { return &projectRepo{db: s.db} }

// Features implements repository.Repository.
func (s *Store) Features() repository.FeatureRepository { return &featureRepo{db: s.db} }

// Tasks implements repository.Repository.
func (s *Store) Tasks() repository.TaskRepository { return &taskRepo{db: s.db} }

// Sections implements repository.Repository.
func (s *Store) Sections() repository.SectionRepository { return &sectionRepo{db: s.db} }

// Dependencies implements repository.Repository.
func (s *Store) Dependencies() repository.DependencyRepository { return &dependencyRepo{db: s.db} }

// RoleTransitions implements repository.Repository.
func (s *Store) RoleTransitions() repository.RoleTransitionRepository {
	return &roleTransitionRepo{db: s.db}
}

// Templates implements repository.Repository.
func (s *Store) Templates() repository.TemplateRepository { return &templateRepo{db: s.db} }

var _ repository.Repository = (*Store)(nil)
