// Package marketplace — community coaches and Pro custom coaches.
package marketplace

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/matiasleandrokruk/simonsays/internal/domain/coach"
	"github.com/matiasleandrokruk/simonsays/internal/infra/sqlite"
	"github.com/matiasleandrokruk/simonsays/pkg/uuid"
)

var (
	// ErrProRequired: crear coaches propios es exclusivo del plan Pro.
	ErrProRequired = errors.New("custom coaches require a pro subscription")
	// ErrInvalidCoach covers a missing name, an oversized field or an unknown base persona.
	ErrInvalidCoach = errors.New("invalid custom coach")
)

const (
	MaxNameLength         = 80
	MaxDescriptionLength  = 500
	MaxInstructionsLength = 4000
)

// Entitlements reports whether a user holds the Pro entitlement.
type Entitlements interface {
	IsUnlimited(ctx context.Context, userID string) bool
}

// Coach is a community coach listed in the marketplace.
type Coach struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	CreatorName string        `json:"creator_name"`
	BasePersona coach.Persona `json:"base_persona"`
	Price       float64       `json:"price"`
	Rating      float64       `json:"rating"`
	Purchases   int           `json:"purchases"`
}

// CustomCoach is a coach a Pro user built on top of a base persona.
type CustomCoach struct {
	ID           string        `json:"id"`
	UserID       string        `json:"user_id"`
	Name         string        `json:"name"`
	Description  string        `json:"description"`
	BasePersona  coach.Persona `json:"base_persona"`
	Instructions string        `json:"instructions"`
	CreatedAt    time.Time     `json:"created_at"`
}

// CreateCustomCoachInput: campos editables del coach propio.
type CreateCustomCoachInput struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	BasePersona  string `json:"base_persona"`
	Instructions string `json:"instructions"`
}

type Service struct {
	db           *sql.DB
	entitlements Entitlements
	now          func() time.Time
}

func NewService(db *sql.DB, entitlements Entitlements) *Service {
	return &Service{db: db, entitlements: entitlements, now: time.Now}
}

// ListMarketplace devuelve el catálogo de la comunidad, más vendidos primero.
func (s *Service) ListMarketplace(ctx context.Context) ([]Coach, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, creator_name, base_persona, price, rating, purchases
		FROM marketplace_coach
		ORDER BY purchases DESC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list marketplace: %w", err)
	}
	defer rows.Close()

	out := []Coach{}
	for rows.Next() {
		var c Coach
		var persona string
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatorName, &persona, &c.Price, &c.Rating, &c.Purchases); err != nil {
			return nil, fmt.Errorf("scan marketplace coach: %w", err)
		}
		c.BasePersona = coach.PersonaOrDefault(persona)
		out = append(out, c)
	}
	return out, rows.Err()
}

// CreateCustomCoach stores a new coach for a Pro user.
func (s *Service) CreateCustomCoach(ctx context.Context, userID string, in CreateCustomCoachInput) (*CustomCoach, error) {
	if !s.entitlements.IsUnlimited(ctx, userID) {
		return nil, ErrProRequired
	}

	c, err := s.validate(userID, in)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO custom_coach (id, user_id, name, description, base_persona, instructions, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.UserID, c.Name, c.Description, string(c.BasePersona), c.Instructions, sqlite.FormatTime(c.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("create custom coach: %w", err)
	}
	return c, nil
}

// ListCustomCoaches returns the user's coaches, oldest first.
func (s *Service) ListCustomCoaches(ctx context.Context, userID string) ([]CustomCoach, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, name, description, base_persona, instructions, created_at
		FROM custom_coach
		WHERE user_id = ?
		ORDER BY created_at ASC, rowid ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list custom coaches: %w", err)
	}
	defer rows.Close()

	out := []CustomCoach{}
	for rows.Next() {
		var c CustomCoach
		var persona, created string
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Description, &persona, &c.Instructions, &created); err != nil {
			return nil, fmt.Errorf("scan custom coach: %w", err)
		}
		c.BasePersona = coach.PersonaOrDefault(persona)
		if c.CreatedAt, err = sqlite.ParseTime(created); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Service) validate(userID string, in CreateCustomCoachInput) (*CustomCoach, error) {
	name := strings.TrimSpace(in.Name)
	desc := strings.TrimSpace(in.Description)
	instr := strings.TrimSpace(in.Instructions)
	switch {
	case name == "":
		return nil, fmt.Errorf("%w: name is required", ErrInvalidCoach)
	case utf8.RuneCountInString(name) > MaxNameLength:
		return nil, fmt.Errorf("%w: name too long", ErrInvalidCoach)
	case utf8.RuneCountInString(desc) > MaxDescriptionLength:
		return nil, fmt.Errorf("%w: description too long", ErrInvalidCoach)
	case utf8.RuneCountInString(instr) > MaxInstructionsLength:
		return nil, fmt.Errorf("%w: instructions too long", ErrInvalidCoach)
	}

	base := coach.DefaultPersona
	if in.BasePersona != "" {
		p, ok := coach.ParsePersona(in.BasePersona)
		if !ok {
			return nil, fmt.Errorf("%w: unknown base persona %q", ErrInvalidCoach, in.BasePersona)
		}
		base = p
	}

	return &CustomCoach{
		ID:           uuid.New(),
		UserID:       userID,
		Name:         name,
		Description:  desc,
		BasePersona:  base,
		Instructions: instr,
		CreatedAt:    s.now().UTC(),
	}, nil
}
