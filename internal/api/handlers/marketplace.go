package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/matiasleandrokruk/simonsays/internal/domain/marketplace"
)

// MarketplaceService is satisfied by *marketplace.Service.
type MarketplaceService interface {
	ListMarketplace(ctx context.Context) ([]marketplace.Coach, error)
	CreateCustomCoach(ctx context.Context, userID string, in marketplace.CreateCustomCoachInput) (*marketplace.CustomCoach, error)
	ListCustomCoaches(ctx context.Context, userID string) ([]marketplace.CustomCoach, error)
}

type MarketplaceHandler struct {
	svc MarketplaceService
}

func NewMarketplaceHandler(svc MarketplaceService) *MarketplaceHandler {
	return &MarketplaceHandler{svc: svc}
}

// List handles GET /api/v1/marketplace.
func (h *MarketplaceHandler) List(w http.ResponseWriter, r *http.Request) {
	coaches, err := h.svc.ListMarketplace(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list marketplace")
		return
	}
	writeJSON(w, http.StatusOK, listResponse[marketplace.Coach]{Data: coaches})
}

// ListCustom handles GET /api/v1/coaches/custom.
func (h *MarketplaceHandler) ListCustom(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	coaches, err := h.svc.ListCustomCoaches(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list custom coaches")
		return
	}
	writeJSON(w, http.StatusOK, listResponse[marketplace.CustomCoach]{Data: coaches})
}

// CreateCustom handles POST /api/v1/coaches/custom.
//
// Response codes:
//   - 201 Created
//   - 400 Bad Request: missing name, oversized field or unknown base persona
//   - 403 Forbidden: the user is not Pro
func (h *MarketplaceHandler) CreateCustom(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var in marketplace.CreateCustomCoachInput
	if !decodeBody(w, r, &in) {
		return
	}
	c, err := h.svc.CreateCustomCoach(r.Context(), userID, in)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, c)
	case errors.Is(err, marketplace.ErrProRequired):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, marketplace.ErrInvalidCoach):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "failed to create custom coach")
	}
}
