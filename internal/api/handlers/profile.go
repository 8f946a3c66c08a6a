package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/matiasleandrokruk/simonsays/internal/domain/coach"
	"github.com/matiasleandrokruk/simonsays/internal/domain/profile"
)

// ProfileService is satisfied by *profile.Service.
type ProfileService interface {
	Get(ctx context.Context, userID string) (*profile.Profile, error)
	Save(ctx context.Context, userID string, in profile.Input) (*profile.Profile, error)
	SetActiveCoach(ctx context.Context, userID, persona string) error
}

type ProfileHandler struct {
	profiles ProfileService
}

func NewProfileHandler(profiles ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// SetCoachRequest is the body of PUT /api/v1/profile/coach.
type SetCoachRequest struct {
	CoachID string `json:"coach_id"`
}

// GetProfile handles GET /api/v1/profile.
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	p, err := h.profiles.Get(r.Context(), userID)
	if err != nil {
		writeProfileError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// SaveProfile handles PUT /api/v1/profile.
func (h *ProfileHandler) SaveProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var in profile.Input
	if !decodeBody(w, r, &in) {
		return
	}
	p, err := h.profiles.Save(r.Context(), userID, in)
	if err != nil {
		writeProfileError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// SetActiveCoach handles PUT /api/v1/profile/coach.
func (h *ProfileHandler) SetActiveCoach(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req SetCoachRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.profiles.SetActiveCoach(r.Context(), userID, req.CoachID); err != nil {
		writeProfileError(w, err)
		return
	}
	persona, _ := coach.ParsePersona(req.CoachID)
	writeJSON(w, http.StatusOK, map[string]coach.Persona{"active_coach": persona})
}

func writeProfileError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, profile.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, profile.ErrInvalidPersona), errors.Is(err, profile.ErrFieldTooLong):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "profile request failed")
	}
}

// ListPersonas handles GET /api/v1/personas.
func ListPersonas(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, listResponse[coach.PersonaInfo]{Data: coach.Catalogue()})
}

// GetQuote handles GET /api/v1/quote.
func GetQuote(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"quote": coach.RandomQuote()})
}
