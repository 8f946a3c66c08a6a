// Route registration: public routes (/health, /metrics, /auth/*) and
// JWT-protected routes (/api/v1/*).
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/matiasleandrokruk/simonsays/internal/api/handlers"
	apmiddleware "github.com/matiasleandrokruk/simonsays/internal/api/middleware"
)

// Pinger reports whether the backing store is reachable. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Services is everything the router needs. Metrics may be nil, in which
// case /metrics is not mounted.
type Services struct {
	DB            Pinger
	Tokens        apmiddleware.TokenParser
	Auth          handlers.AuthService
	Profiles      handlers.ProfileService
	Conversations handlers.ConversationService
	Chat          handlers.ReplyService
	Usage         handlers.UsageService
	Marketplace   handlers.MarketplaceService
	Subscriptions handlers.SubscriptionSource
	Metrics       http.Handler
	Logger        *zap.Logger
}

// NewRouter creates and configures a new chi router with all routes.
func NewRouter(s Services) *chi.Mux {
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	// Global middleware (runs on all routes)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apmiddleware.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	// ===== PUBLIC ROUTES (no auth required) =====

	r.Get("/health", healthHandler(s.DB))
	if s.Metrics != nil {
		r.Handle("/metrics", s.Metrics)
	}

	authHandler := handlers.NewAuthHandler(s.Auth)
	r.Route("/auth", func(r chi.Router) {
		r.Post("/anonymous", authHandler.Anonymous) // POST /auth/anonymous
		r.Post("/login", authHandler.Login)         // POST /auth/login
	})

	// ===== PROTECTED ROUTES (JWT required) =====

	profileHandler := handlers.NewProfileHandler(s.Profiles)
	conversationHandler := handlers.NewConversationHandler(s.Conversations, s.Chat)
	marketplaceHandler := handlers.NewMarketplaceHandler(s.Marketplace)
	subscriptionHandler := handlers.NewSubscriptionHandler(s.Subscriptions, s.Usage, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(apmiddleware.Auth(s.Tokens))

		r.Post("/auth/link", authHandler.Link) // POST /api/v1/auth/link

		r.Route("/profile", func(r chi.Router) {
			r.Get("/", profileHandler.GetProfile)          // GET /api/v1/profile
			r.Put("/", profileHandler.SaveProfile)         // PUT /api/v1/profile
			r.Put("/coach", profileHandler.SetActiveCoach) // PUT /api/v1/profile/coach
		})

		r.Get("/personas", handlers.ListPersonas) // GET /api/v1/personas
		r.Get("/quote", handlers.GetQuote)        // GET /api/v1/quote

		r.Route("/conversations", func(r chi.Router) {
			r.Post("/", conversationHandler.Create)                   // POST /api/v1/conversations
			r.Get("/", conversationHandler.List)                      // GET /api/v1/conversations
			r.Get("/{id}/messages", conversationHandler.Messages)     // GET /api/v1/conversations/{id}/messages
			r.Post("/{id}/messages", conversationHandler.PostMessage) // POST /api/v1/conversations/{id}/messages
		})

		r.Get("/marketplace", marketplaceHandler.List) // GET /api/v1/marketplace
		r.Route("/coaches/custom", func(r chi.Router) {
			r.Get("/", marketplaceHandler.ListCustom)    // GET /api/v1/coaches/custom
			r.Post("/", marketplaceHandler.CreateCustom) // POST /api/v1/coaches/custom
		})

		r.Get("/subscription", subscriptionHandler.Subscription) // GET /api/v1/subscription
		r.Get("/usage", subscriptionHandler.Usage)               // GET /api/v1/usage
	})

	return r
}

// healthHandler answers 200 when the store responds, 503 otherwise.
func healthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status":"unavailable"}`)) //nolint:errcheck
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`)) //nolint:errcheck
	}
}
