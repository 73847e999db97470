// Package storage persists dashboard accounts in SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"wastedash/internal/auth"

	_ "modernc.org/sqlite"
)

var ErrUserNotFound = errors.New("storage: user not found")

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Lookup implements auth.UserStore.
func (r *SQLiteRepository) Lookup(ctx context.Context, username string) (auth.User, error) {
	var u auth.User
	err := r.db.QueryRowContext(ctx,
		`SELECT username, password_hash FROM users WHERE username = ?`,
		username,
	).Scan(&u.Username, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.User{}, ErrUserNotFound
	}
	if err != nil {
		return auth.User{}, fmt.Errorf("lookup user: %w", err)
	}
	return u, nil
}

// UpsertUser creates the account or replaces its password hash.
func (r *SQLiteRepository) UpsertUser(ctx context.Context, username, passwordHash string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash) VALUES (?, ?)
		 ON CONFLICT(username) DO UPDATE SET
		     password_hash = excluded.password_hash,
		     updated_at    = CURRENT_TIMESTAMP`,
		username, passwordHash,
	)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	slog.InfoContext(ctx, "User account stored", "username", username)
	return nil
}

// CountUsers reports how many accounts exist. Used at startup to decide
// whether seeding is required.
func (r *SQLiteRepository) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}
