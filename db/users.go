package db

import (
	"database/sql"
	"errors"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("record not found")

// CreateUser inserts a new user
func CreateUser(u *User) error {
	_, err := GetDB().Exec(`
		INSERT INTO users (id, name, email, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, u.ID, u.Name, u.Email, u.PasswordHash, u.CreatedAt)
	return err
}

// GetUserByEmail retrieves a user by email, returns ErrNotFound if missing
func GetUserByEmail(email string) (*User, error) {
	return scanUser(GetDB().QueryRow(`
		SELECT id, name, email, password_hash, created_at
		FROM users WHERE email = ?
	`, email))
}

// GetUserByID retrieves a user by id, returns ErrNotFound if missing
func GetUserByID(id string) (*User, error) {
	return scanUser(GetDB().QueryRow(`
		SELECT id, name, email, password_hash, created_at
		FROM users WHERE id = ?
	`, id))
}

// ListUsers returns all users ordered by name
func ListUsers() ([]User, error) {
	rows, err := GetDB().Query(`
		SELECT id, name, email, password_hash, created_at
		FROM users ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func scanUser(row *sql.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
