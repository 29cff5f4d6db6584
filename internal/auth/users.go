package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mind-engage/mindengage-exam/internal/db"
)

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

var errUserNotFound = errors.New("user not found")

// UserStore is the SQL-backed user table.
type UserStore struct{}

func (UserStore) ByUsername(ctx context.Context, q db.Querier, username string) (User, error) {
	var u User
	var created int64
	err := q.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE username=$1`, username).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, errUserNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("get user: %w", err)
	}
	u.CreatedAt = time.Unix(created, 0).UTC()
	return u, nil
}

func (UserStore) Create(ctx context.Context, q db.Querier, username, hash string) (User, error) {
	now := time.Now().UTC()
	var id int64
	err := q.QueryRowContext(ctx,
		`INSERT INTO users (username, password_hash, created_at) VALUES ($1,$2,$3) RETURNING id`,
		username, hash, now.Unix()).Scan(&id)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return User{}, ErrDuplicateUsername
		}
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	return User{ID: id, Username: username, PasswordHash: hash, CreatedAt: time.Unix(now.Unix(), 0).UTC()}, nil
}

// List returns every user ordered by id.
func (UserStore) List(ctx context.Context, q db.Querier) ([]User, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, username, created_at FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	var out []User
	for rows.Next() {
		var u User
		var created int64
		if err := rows.Scan(&u.ID, &u.Username, &created); err != nil {
			return nil, err
		}
		u.CreatedAt = time.Unix(created, 0).UTC()
		out = append(out, u)
	}
	return out, rows.Err()
}
