// Package subs persists keyword subscriptions and periodically re-runs them
// against the upstream search to notify users about new works.
package subs

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// Subscription is one durable keyword watch. LastWorkID is the newest work id
// seen for the keyword; zero means the subscription has never been checked.
type Subscription struct {
	ID          int64        `db:"id"`
	UserID      int64        `db:"user_id"`
	ChatID      int64        `db:"chat_id"`
	Keyword     string       `db:"keyword"`
	LastWorkID  int64        `db:"last_work_id"`
	LastChecked sql.NullTime `db:"last_checked"`
	CreatedAt   time.Time    `db:"created_at"`
}

const subColumns = `id, user_id, chat_id, keyword, last_work_id, last_checked, created_at`

// Store persists subscriptions in Postgres.
type Store struct {
	db *sqlx.DB
}

// NewStore wraps an open database handle.
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Add inserts a subscription and reports whether it was created. A duplicate
// (same user, same keyword) is not an error, just created=false.
func (s *Store) Add(ctx context.Context, userID, chatID int64, keyword string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO subscriptions (user_id, chat_id, keyword)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, keyword) DO NOTHING`,
		userID, chatID, keyword)
	if err != nil {
		return false, fmt.Errorf("add subscription: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("add subscription: %w", err)
	}
	return n > 0, nil
}

// Remove deletes a subscription and reports whether it existed.
func (s *Store) Remove(ctx context.Context, userID int64, keyword string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM subscriptions
		WHERE user_id = $1 AND keyword = $2`,
		userID, keyword)
	if err != nil {
		return false, fmt.Errorf("remove subscription: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("remove subscription: %w", err)
	}
	return n > 0, nil
}

// ListByUser returns one user's subscriptions, newest first.
func (s *Store) ListByUser(ctx context.Context, userID int64) ([]Subscription, error) {
	var out []Subscription
	err := s.db.SelectContext(ctx, &out, `
		SELECT `+subColumns+`
		FROM subscriptions
		WHERE user_id = $1
		ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	return out, nil
}

// All returns every subscription, oldest first, for the periodic check.
func (s *Store) All(ctx context.Context) ([]Subscription, error) {
	var out []Subscription
	err := s.db.SelectContext(ctx, &out, `
		SELECT `+subColumns+`
		FROM subscriptions
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load subscriptions: %w", err)
	}
	return out, nil
}

// MarkChecked records a completed check and the newest work id seen.
func (s *Store) MarkChecked(ctx context.Context, id, lastWorkID int64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE subscriptions
		SET last_work_id = $2, last_checked = now()
		WHERE id = $1`,
		id, lastWorkID)
	if err != nil {
		return fmt.Errorf("mark subscription checked: %w", err)
	}
	return nil
}

// CountByUser returns how many subscriptions a user holds.
func (s *Store) CountByUser(ctx context.Context, userID int64) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, `
		SELECT COUNT(*) FROM subscriptions WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("count subscriptions: %w", err)
	}
	return n, nil
}

// Count returns the total number of subscriptions.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM subscriptions`)
	if err != nil {
		return 0, fmt.Errorf("count subscriptions: %w", err)
	}
	return n, nil
}
