package db

import (
	"database/sql"
)

func init() {
	RegisterMigration(Migration{
		Version:     1,
		Description: "Create users, projects and project_members tables",
		Up:          migration001_initial,
	})
}

func migration001_initial(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE users (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);

		CREATE TABLE projects (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			admin_id TEXT NOT NULL REFERENCES users(id),
			file_tree TEXT NOT NULL DEFAULT '{}',
			created_at INTEGER NOT NULL
		);

		CREATE TABLE project_members (
			project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			user_id TEXT NOT NULL REFERENCES users(id),
			PRIMARY KEY (project_id, user_id)
		);

		CREATE INDEX idx_project_members_user ON project_members(user_id);
	`)
	return err
}
