package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matiasleandrokruk/simonsays/internal/domain/coach"
	"github.com/matiasleandrokruk/simonsays/internal/domain/marketplace"
)

func TestMarketplaceHandler_List(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, 0)
	h := NewMarketplaceHandler(env.marketplace)

	rr := serve(t, http.MethodGet, "/marketplace", "/marketplace", "u1", nil, h.List)
	require.Equal(t, http.StatusOK, rr.Code)
	list := decode[listResponse[marketplace.Coach]](t, rr)
	require.NotEmpty(t, list.Data)
	assert.Equal(t, "mkt-inbox-zero", list.Data[0].ID)
	for i := 1; i < len(list.Data); i++ {
		assert.GreaterOrEqual(t, list.Data[i-1].Purchases, list.Data[i].Purchases)
	}
}

func TestMarketplaceHandler_CreateCustom(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, 0, "pro")
	env.seedUser(t, "free")
	env.seedUser(t, "pro")
	h := NewMarketplaceHandler(env.marketplace)

	in := marketplace.CreateCustomCoachInput{
		Name:         "Deep Work",
		Description:  "Guards the morning block",
		BasePersona:  "focus",
		Instructions: "Always ask what the single outcome of today is.",
	}

	rr := serve(t, http.MethodPost, "/coaches/custom", "/coaches/custom", "free", in, h.CreateCustom)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = serve(t, http.MethodPost, "/coaches/custom", "/coaches/custom", "pro", marketplace.CreateCustomCoachInput{BasePersona: "focus"}, h.CreateCustom)
	assert.Equal(t, http.StatusBadRequest, rr.Code, "missing name")

	rr = serve(t, http.MethodPost, "/coaches/custom", "/coaches/custom", "pro", in, h.CreateCustom)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decode[marketplace.CustomCoach](t, rr)
	assert.Equal(t, coach.PersonaFocus, created.BasePersona)
	assert.NotEmpty(t, created.ID)

	rr = serve(t, http.MethodGet, "/coaches/custom", "/coaches/custom", "pro", nil, h.ListCustom)
	require.Equal(t, http.StatusOK, rr.Code)
	list := decode[listResponse[marketplace.CustomCoach]](t, rr)
	require.Len(t, list.Data, 1)
	assert.Equal(t, "Deep Work", list.Data[0].Name)

	rr = serve(t, http.MethodGet, "/coaches/custom", "/coaches/custom", "free", nil, h.ListCustom)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decode[listResponse[marketplace.CustomCoach]](t, rr).Data)
}
