package store

import (
	"database/sql"

	"letschat/internal/model"
)

// InsertUser adds a user with its fixture password. Existing ids are left
// untouched so seeding is idempotent.
func (db *DB) InsertUser(u model.User, password string) error {
	_, err := db.Exec(`
		INSERT INTO users (id, email, name, avatar_url, password)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		u.ID, u.Email, u.Name, u.AvatarURL, password)
	return err
}

// UserByEmail returns the user with the given email plus its fixture
// password, or nil if no such user exists.
func (db *DB) UserByEmail(email string) (*model.User, string, error) {
	var (
		u        model.User
		password string
	)
	err := db.QueryRow(`
		SELECT id, email, name, avatar_url, password
		FROM users WHERE email = ?`, email).
		Scan(&u.ID, &u.Email, &u.Name, &u.AvatarURL, &password)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", err
	}
	return &u, password, nil
}

// UserByID returns a user by id, or nil if absent.
func (db *DB) UserByID(id string) (*model.User, error) {
	var u model.User
	err := db.QueryRow(`
		SELECT id, email, name, avatar_url FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Email, &u.Name, &u.AvatarURL)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ListUsers returns every user in id order.
func (db *DB) ListUsers() ([]model.User, error) {
	rows, err := db.Query(`
		SELECT id, email, name, avatar_url
		FROM users ORDER BY CAST(id AS INTEGER)`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.AvatarURL); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
