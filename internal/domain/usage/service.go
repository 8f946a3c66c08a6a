// Package usage counts messages per user per UTC day for the free tier.
package usage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/matiasleandrokruk/simonsays/internal/infra/sqlite"
)

// DefaultDailyLimit is the free-tier allowance when none is configured.
const DefaultDailyLimit = 20

// Status is today's usage of one user.
type Status struct {
	Day       string `json:"day"`
	Count     int    `json:"count"`
	Limit     int    `json:"limit"`
	Remaining int    `json:"remaining"`
}

// Service implements coach.UsageCounter on the daily_usage table.
type Service struct {
	db    *sql.DB
	limit int
	now   func() time.Time
}

// NewService creates a counter. A non-positive limit selects DefaultDailyLimit.
func NewService(db *sql.DB, limit int) *Service {
	if limit <= 0 {
		limit = DefaultDailyLimit
	}
	return &Service{db: db, limit: limit, now: time.Now}
}

// Limit returns the configured daily allowance.
func (s *Service) Limit() int { return s.limit }

// Check returns today's count for userID.
func (s *Service) Check(ctx context.Context, userID string) (Status, error) {
	day := sqlite.DayKey(s.now())
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT count FROM daily_usage WHERE user_id = ? AND day = ?
	`, userID, day).Scan(&count)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return Status{}, fmt.Errorf("check usage: %w", err)
	}
	return Status{
		Day:       day,
		Count:     count,
		Limit:     s.limit,
		Remaining: max(s.limit-count, 0),
	}, nil
}

// Remaining implements coach.UsageCounter.
func (s *Service) Remaining(ctx context.Context, userID string) (int, error) {
	st, err := s.Check(ctx, userID)
	if err != nil {
		return 0, err
	}
	return st.Remaining, nil
}

// Increment adds one message to today's counter.
func (s *Service) Increment(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO daily_usage (user_id, day, count) VALUES (?, ?, 1)
		ON CONFLICT(user_id, day) DO UPDATE SET count = count + 1
	`, userID, sqlite.DayKey(s.now()))
	if err != nil {
		return fmt.Errorf("increment usage: %w", err)
	}
	return nil
}
