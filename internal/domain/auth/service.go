// Package auth — anonymous sign-in, credential linking and login.
// Every device starts anonymous; linking an email and password lets the same
// account sign in elsewhere.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/matiasleandrokruk/simonsays/internal/infra/sqlite"
	pkgauth "github.com/matiasleandrokruk/simonsays/pkg/auth"
	"github.com/matiasleandrokruk/simonsays/pkg/uuid"
)

// ErrInvalidCredentials is returned by Login when email or password is incorrect.
// One error for both cases avoids leaking whether an email exists.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrEmailAlreadyExists is returned by LinkCredentials when the email is taken.
var ErrEmailAlreadyExists = errors.New("email already registered")

// ErrAlreadyLinked is returned when an account already has credentials.
var ErrAlreadyLinked = errors.New("account already has credentials")

// ErrInvalidInput is returned for a malformed email or a short password.
var ErrInvalidInput = errors.New("invalid email or password")

// ErrUserNotFound is returned when the token refers to a deleted account.
var ErrUserNotFound = errors.New("user not found")

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// Result is returned after any successful sign-in.
type Result struct {
	Token     string `json:"token"`
	UserID    string `json:"user_id"`
	Anonymous bool   `json:"anonymous"`
	ExpiresIn int64  `json:"expires_in"`
}

// Service implements the account operations on SQLite.
type Service struct {
	db     *sql.DB
	tokens *pkgauth.TokenIssuer
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates an auth Service. logger may be nil.
func NewService(db *sql.DB, tokens *pkgauth.TokenIssuer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: db, tokens: tokens, logger: logger, now: time.Now}
}

// SignInAnonymous creates a fresh anonymous account with an empty profile.
func (s *Service) SignInAnonymous(ctx context.Context) (*Result, error) {
	userID := uuid.New()
	now := sqlite.FormatTime(s.now())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO user_account (id, is_anonymous, created_at, updated_at)
		VALUES (?, 1, ?, ?)
	`, userID, now, now); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO user_profile (user_id, updated_at) VALUES (?, ?)
	`, userID, now); err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit sign-in: %w", err)
	}

	s.logger.Info("anonymous account created", zap.String("user_id", userID))
	return s.issue(userID, true)
}

// LinkCredentials attaches an email and password to an anonymous account.
func (s *Service) LinkCredentials(ctx context.Context, userID, email, password string) (*Result, error) {
	email, err := normalizeEmail(email)
	if err != nil || len(password) < MinPasswordLength {
		return nil, ErrInvalidInput
	}

	var existing sql.NullString
	err = s.db.QueryRowContext(ctx, `SELECT email FROM user_account WHERE id = ?`, userID).Scan(&existing)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if existing.Valid && existing.String != "" {
		return nil, ErrAlreadyLinked
	}

	hash, err := pkgauth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE user_account
		SET email = ?, password_hash = ?, is_anonymous = 0, updated_at = ?
		WHERE id = ?
	`, email, hash, sqlite.FormatTime(s.now()), userID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, fmt.Errorf("failed to link credentials: %w", err)
	}

	s.logger.Info("credentials linked", zap.String("user_id", userID))
	return s.issue(userID, false)
}

// Login verifies credentials and returns a token. Every failure is
// ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (*Result, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	var userID string
	var passwordHash sql.NullString
	err = s.db.QueryRowContext(ctx, `
		SELECT id, password_hash FROM user_account WHERE email = ? LIMIT 1
	`, email).Scan(&userID, &passwordHash)
	if err != nil {
		s.logger.Debug("login failed", zap.String("reason", "user_not_found_or_query_error"))
		return nil, ErrInvalidCredentials
	}

	if !passwordHash.Valid || !pkgauth.VerifyPassword(passwordHash.String, password) {
		s.logger.Debug("login failed", zap.String("reason", "invalid_password"), zap.String("user_id", userID))
		return nil, ErrInvalidCredentials
	}
	return s.issue(userID, false)
}

func (s *Service) issue(userID string, anonymous bool) (*Result, error) {
	token, err := s.tokens.Issue(userID, anonymous)
	if err != nil {
		return nil, fmt.Errorf("failed to generate JWT: %w", err)
	}
	return &Result{
		Token:     token,
		UserID:    userID,
		Anonymous: anonymous,
		ExpiresIn: int64(s.tokens.TTL().Seconds()),
	}, nil
}

func normalizeEmail(raw string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	return strings.ToLower(addr.Address), nil
}

// isUniqueViolation checks for SQLite's "UNIQUE constraint failed" message.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
