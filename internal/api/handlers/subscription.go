package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/matiasleandrokruk/simonsays/internal/domain/usage"
	"github.com/matiasleandrokruk/simonsays/internal/infra/billing"
)

// SubscriptionSource is satisfied by *billing.RevenueCatClient and billing.StaticChecker.
type SubscriptionSource interface {
	IsUnlimited(ctx context.Context, userID string) bool
	SubscriptionInfo(ctx context.Context, userID string) (*billing.SubscriptionInfo, error)
}

// UsageService is satisfied by *usage.Service.
type UsageService interface {
	Check(ctx context.Context, userID string) (usage.Status, error)
}

type SubscriptionHandler struct {
	subs   SubscriptionSource
	usage  UsageService
	logger *zap.Logger
}

func NewSubscriptionHandler(subs SubscriptionSource, u UsageService, logger *zap.Logger) *SubscriptionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubscriptionHandler{subs: subs, usage: u, logger: logger}
}

// UsageResponse is today's quota plus whether it applies at all.
type UsageResponse struct {
	usage.Status
	Unlimited bool `json:"unlimited"`
}

// Subscription handles GET /api/v1/subscription. Lookup failures report the
// free tier.
func (h *SubscriptionHandler) Subscription(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	info, err := h.subs.SubscriptionInfo(r.Context(), userID)
	if err != nil {
		h.logger.Warn("subscription lookup failed", zap.String("user_id", userID), zap.Error(err))
		info = &billing.SubscriptionInfo{}
	}
	writeJSON(w, http.StatusOK, info)
}

// Usage handles GET /api/v1/usage.
func (h *SubscriptionHandler) Usage(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	st, err := h.usage.Check(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read usage")
		return
	}
	writeJSON(w, http.StatusOK, UsageResponse{
		Status:    st,
		Unlimited: h.subs.IsUnlimited(r.Context(), userID),
	})
}
