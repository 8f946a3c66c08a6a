// Package billing — read-only entitlement lookups.
// Purchases happen on the device; the server only asks RevenueCat whether a
// subscriber currently holds the Pro entitlement.
//   - GET {base}/v1/subscribers/{app_user_id}  (Authorization: Bearer <key>)
package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultBaseURL     = "https://api.revenuecat.com"
	DefaultEntitlement = "pro"
)

// ErrMissingAPIKey is returned by SubscriptionInfo when no key is configured.
var ErrMissingAPIKey = errors.New("billing: revenuecat api key not configured")

// SubscriptionInfo describes the Pro entitlement of a subscriber.
type SubscriptionInfo struct {
	Active            bool       `json:"active"`
	ExpiresAt         *time.Time `json:"expires_at,omitempty"`
	ProductIdentifier string     `json:"product_identifier,omitempty"`
	WillRenew         bool       `json:"will_renew"`
}

// RevenueCatClient implements coach.EntitlementChecker against the REST API.
type RevenueCatClient struct {
	baseURL     string
	apiKey      string
	entitlement string
	httpClient  *http.Client
	logger      *zap.Logger
	now         func() time.Time
}

// Option configures a RevenueCatClient.
type Option func(*RevenueCatClient)

func WithHTTPClient(c *http.Client) Option {
	return func(r *RevenueCatClient) { r.httpClient = c }
}

func WithLogger(l *zap.Logger) Option {
	return func(r *RevenueCatClient) { r.logger = l }
}

// WithEntitlement overrides the entitlement identifier (default "pro").
func WithEntitlement(id string) Option {
	return func(r *RevenueCatClient) {
		if id != "" {
			r.entitlement = id
		}
	}
}

// NewRevenueCatClient creates a client with a 10s timeout. An empty baseURL
// selects DefaultBaseURL.
func NewRevenueCatClient(baseURL, apiKey string, opts ...Option) *RevenueCatClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &RevenueCatClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		entitlement: DefaultEntitlement,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		logger:      zap.NewNop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ─── wire types ─────────────────────────────────────────────────────────────

type subscriberResponse struct {
	Subscriber struct {
		Entitlements  map[string]entitlementJSON  `json:"entitlements"`
		Subscriptions map[string]subscriptionJSON `json:"subscriptions"`
	} `json:"subscriber"`
}

type entitlementJSON struct {
	ExpiresDate       *string `json:"expires_date"`
	ProductIdentifier string  `json:"product_identifier"`
}

type subscriptionJSON struct {
	UnsubscribeDetectedAt   *string `json:"unsubscribe_detected_at"`
	BillingIssuesDetectedAt *string `json:"billing_issues_detected_at"`
}

// ─── lookups ────────────────────────────────────────────────────────────────

// IsUnlimited reports whether userID holds an active entitlement. Any lookup
// failure degrades to the free tier.
func (c *RevenueCatClient) IsUnlimited(ctx context.Context, userID string) bool {
	info, err := c.SubscriptionInfo(ctx, userID)
	if err != nil {
		c.logger.Warn("entitlement lookup failed, treating as free tier",
			zap.String("user_id", userID),
			zap.Error(err))
		return false
	}
	return info.Active
}

// SubscriptionInfo fetches the subscriber and evaluates the entitlement.
func (c *RevenueCatClient) SubscriptionInfo(ctx context.Context, userID string) (*SubscriptionInfo, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	endpoint := c.baseURL + "/v1/subscribers/" + url.PathEscape(userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("billing: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("billing: GET subscriber: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("billing: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("billing: subscriber lookup returned status %d", resp.StatusCode)
	}

	var sub subscriberResponse
	if err := json.Unmarshal(body, &sub); err != nil {
		return nil, fmt.Errorf("billing: decode subscriber: %w", err)
	}
	return c.evaluate(sub)
}

// evaluate applies the entitlement rule: present with a null or future
// expires_date.
func (c *RevenueCatClient) evaluate(sub subscriberResponse) (*SubscriptionInfo, error) {
	ent, ok := sub.Subscriber.Entitlements[c.entitlement]
	if !ok {
		return &SubscriptionInfo{}, nil
	}

	info := &SubscriptionInfo{ProductIdentifier: ent.ProductIdentifier}
	if ent.ExpiresDate == nil {
		info.Active = true
	} else {
		expires, err := time.Parse(time.RFC3339, *ent.ExpiresDate)
		if err != nil {
			return nil, fmt.Errorf("billing: parse expires_date: %w", err)
		}
		info.ExpiresAt = &expires
		info.Active = expires.After(c.now())
	}

	if s, ok := sub.Subscriber.Subscriptions[ent.ProductIdentifier]; ok && info.Active {
		info.WillRenew = s.UnsubscribeDetectedAt == nil && s.BillingIssuesDetectedAt == nil
	}
	return info, nil
}

// StaticChecker grants or denies every user the same tier. It backs local
// development and tests when no RevenueCat key is configured.
type StaticChecker struct {
	Unlimited bool
	// Users overrides Unlimited per user id.
	Users map[string]bool
}

func (s StaticChecker) IsUnlimited(_ context.Context, userID string) bool {
	if v, ok := s.Users[userID]; ok {
		return v
	}
	return s.Unlimited
}

// SubscriptionInfo mirrors RevenueCatClient for the static tier.
func (s StaticChecker) SubscriptionInfo(ctx context.Context, userID string) (*SubscriptionInfo, error) {
	active := s.IsUnlimited(ctx, userID)
	return &SubscriptionInfo{Active: active, WillRenew: active}, nil
}
