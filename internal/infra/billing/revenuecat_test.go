package billing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestClient(t *testing.T, status int, body string) (*RevenueCatClient, *http.Request) {
	t.Helper()
	var captured http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = *r.Clone(context.Background())
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	c := NewRevenueCatClient(srv.URL, "rc-secret")
	c.now = func() time.Time { return fixedNow }
	return c, &captured
}

func TestSubscriptionInfo_ActiveFutureExpiry(t *testing.T) {
	t.Parallel()

	c, req := newTestClient(t, http.StatusOK, `{
		"subscriber": {
			"entitlements": {"pro": {"expires_date": "2026-04-01T00:00:00Z", "product_identifier": "simon_says_pro_monthly"}},
			"subscriptions": {"simon_says_pro_monthly": {"unsubscribe_detected_at": null, "billing_issues_detected_at": null}}
		}
	}`)

	info, err := c.SubscriptionInfo(context.Background(), "user/1")
	require.NoError(t, err)
	assert.True(t, info.Active)
	assert.True(t, info.WillRenew)
	assert.Equal(t, "simon_says_pro_monthly", info.ProductIdentifier)
	require.NotNil(t, info.ExpiresAt)
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), *info.ExpiresAt)

	assert.Equal(t, "/v1/subscribers/user%2F1", req.URL.EscapedPath())
	assert.Equal(t, "Bearer rc-secret", req.Header.Get("Authorization"))
}

func TestSubscriptionInfo_NullExpiryIsLifetime(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, http.StatusOK, `{"subscriber":{"entitlements":{"pro":{"expires_date":null,"product_identifier":"lifetime"}}}}`)
	assert.True(t, c.IsUnlimited(context.Background(), "u1"))
}

func TestSubscriptionInfo_ExpiredOrMissing(t *testing.T) {
	t.Parallel()

	for name, body := range map[string]string{
		"expired": `{"subscriber":{"entitlements":{"pro":{"expires_date":"2026-02-01T00:00:00Z"}}}}`,
		"missing": `{"subscriber":{"entitlements":{}}}`,
	} {
		c, _ := newTestClient(t, http.StatusOK, body)
		info, err := c.SubscriptionInfo(context.Background(), "u1")
		require.NoError(t, err, name)
		assert.False(t, info.Active, name)
		assert.False(t, info.WillRenew, name)
	}
}

func TestSubscriptionInfo_CancelledDoesNotRenew(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, http.StatusOK, `{
		"subscriber": {
			"entitlements": {"pro": {"expires_date": "2026-04-01T00:00:00Z", "product_identifier": "m"}},
			"subscriptions": {"m": {"unsubscribe_detected_at": "2026-02-20T10:00:00Z"}}
		}
	}`)
	info, err := c.SubscriptionInfo(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, info.Active)
	assert.False(t, info.WillRenew)
}

func TestIsUnlimited_ErrorsDegradeToFree(t *testing.T) {
	t.Parallel()

	for name, tc := range map[string]struct {
		status int
		body   string
	}{
		"server error":   {http.StatusInternalServerError, `oops`},
		"unauthorized":   {http.StatusUnauthorized, `{}`},
		"malformed json": {http.StatusOK, `{"subscriber":`},
		"bad date":       {http.StatusOK, `{"subscriber":{"entitlements":{"pro":{"expires_date":"soon"}}}}`},
	} {
		c, _ := newTestClient(t, tc.status, tc.body)
		assert.False(t, c.IsUnlimited(context.Background(), "u1"), name)
	}
}

func TestSubscriptionInfo_MissingKey(t *testing.T) {
	t.Parallel()

	c := NewRevenueCatClient("", "")
	assert.Equal(t, DefaultBaseURL, c.baseURL)
	_, err := c.SubscriptionInfo(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
	assert.False(t, c.IsUnlimited(context.Background(), "u1"))
}

func TestSubscriptionInfo_KeyNotInError(t *testing.T) {
	t.Parallel()

	c := NewRevenueCatClient("http://127.0.0.1:1", "rc-secret")
	_, err := c.SubscriptionInfo(context.Background(), "u1")
	require.Error(t, err)
	assert.False(t, strings.Contains(err.Error(), "rc-secret"))
}

func TestWithEntitlement(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, http.StatusOK, `{"subscriber":{"entitlements":{"premium":{"expires_date":null}}}}`)
	WithEntitlement("premium")(c)
	assert.True(t, c.IsUnlimited(context.Background(), "u1"))
}

func TestStaticChecker(t *testing.T) {
	t.Parallel()

	s := StaticChecker{Unlimited: false, Users: map[string]bool{"vip": true}}
	assert.True(t, s.IsUnlimited(context.Background(), "vip"))
	assert.False(t, s.IsUnlimited(context.Background(), "anyone"))

	info, err := s.SubscriptionInfo(context.Background(), "vip")
	require.NoError(t, err)
	assert.True(t, info.Active)
}
