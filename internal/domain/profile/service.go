// Package profile stores the personalisation a user gives their coach.
package profile

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
)

var (
	ErrNotFound       = errors.New("profile not found")
	ErrInvalidPersona = errors.New("unknown coach persona")
	ErrFieldTooLong   = errors.New("profile field too long")
)

// MaxFieldLength bounds name, profession and focus (in runes).
const MaxFieldLength = 200

// Profile is the stored personalisation. Tone is nil until the user picks one.
type Profile struct {
	UserID      string              `json:"user_id"`
	Name        string              `json:"name"`
	Profession  string              `json:"profession"`
	Focus       string              `json:"focus"`
	Tone        *coach.ToneSettings `json:"tone,omitempty"`
	ActiveCoach coach.Persona       `json:"active_coach"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// Input replaces the editable fields. An empty ActiveCoach keeps the current one.
type Input struct {
	Name        string              `json:"name"`
	Profession  string              `json:"profession"`
	Focus       string              `json:"focus"`
	Tone        *coach.ToneSettings `json:"tone,omitempty"`
	ActiveCoach string              `json:"active_coach,omitempty"`
}

type Service struct {
	db  *sql.DB
	now func() time.Time
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db, now: time.Now}
}

// Get returns the profile of userID or ErrNotFound.
func (s *Service) Get(ctx context.Context, userID string) (*Profile, error) {
	var (
		p                         Profile
		toneSet                   int
		formality, direct, detail int
		active, updated           string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, name, profession, focus, tone_set, tone_formality, tone_directness, tone_detail, active_coach, updated_at
		FROM user_profile WHERE user_id = ?
	`, userID).Scan(&p.UserID, &p.Name, &p.Profession, &p.Focus, &toneSet, &formality, &direct, &detail, &active, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	if toneSet == 1 {
		p.Tone = &coach.ToneSettings{Formality: formality, Directness: direct, Detail: detail}
	}
	p.ActiveCoach = coach.PersonaOrDefault(active)
	if p.UpdatedAt, err = sqlite.ParseTime(updated); err != nil {
		return nil, err
	}
	return &p, nil
}

// Save upserts the profile of userID.
func (s *Service) Save(ctx context.Context, userID string, in Input) (*Profile, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Profession = strings.TrimSpace(in.Profession)
	in.Focus = strings.TrimSpace(in.Focus)
	for _, v := range []string{in.Name, in.Profession, in.Focus} {
		if utf8.RuneCountInString(v) > MaxFieldLength {
			return nil, ErrFieldTooLong
		}
	}

	active := ""
	if in.ActiveCoach != "" {
		p, ok := coach.ParsePersona(in.ActiveCoach)
		if !ok {
			return nil, ErrInvalidPersona
		}
		active = string(p)
	}

	tone := coach.DefaultTone()
	toneSet := 0
	if in.Tone != nil {
		tone = in.Tone.Clamp()
		toneSet = 1
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_profile (user_id, name, profession, focus, tone_set, tone_formality, tone_directness, tone_detail, active_coach, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, COALESCE(NULLIF(?, ''), 'productivity'), ?)
		ON CONFLICT(user_id) DO UPDATE SET
			name = excluded.name,
			profession = excluded.profession,
			focus = excluded.focus,
			tone_set = excluded.tone_set,
			tone_formality = excluded.tone_formality,
			tone_directness = excluded.tone_directness,
			tone_detail = excluded.tone_detail,
			active_coach = COALESCE(NULLIF(?, ''), user_profile.active_coach),
			updated_at = excluded.updated_at
	`, userID, in.Name, in.Profession, in.Focus, toneSet, tone.Formality, tone.Directness, tone.Detail, active,
		sqlite.FormatTime(s.now()), active)
	if err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}
	return s.Get(ctx, userID)
}

// SetActiveCoach records the persona the user last picked.
func (s *Service) SetActiveCoach(ctx context.Context, userID, persona string) error {
	p, ok := coach.ParsePersona(persona)
	if !ok {
		return ErrInvalidPersona
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE user_profile SET active_coach = ?, updated_at = ? WHERE user_id = ?
	`, string(p), sqlite.FormatTime(s.now()), userID)
	if err != nil {
		return fmt.Errorf("set active coach: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// CoachingContext implements coach.ProfileSource. A missing profile is an
// empty context.
func (s *Service) CoachingContext(ctx context.Context, userID string) (coach.UserContext, error) {
	p, err := s.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return coach.UserContext{}, nil
	}
	if err != nil {
		return coach.UserContext{}, err
	}
	return coach.UserContext{
		Name:       p.Name,
		Profession: p.Profession,
		Focus:      p.Focus,
		Tone:       p.Tone,
	}, nil
}
