package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/matiasleandrokruk/simonsays/internal/api"
	domainauth "github.com/matiasleandrokruk/simonsays/internal/domain/auth"
	"github.com/matiasleandrokruk/simonsays/internal/domain/coach"
	"github.com/matiasleandrokruk/simonsays/internal/domain/conversation"
	"github.com/matiasleandrokruk/simonsays/internal/domain/marketplace"
	"github.com/matiasleandrokruk/simonsays/internal/domain/profile"
	"github.com/matiasleandrokruk/simonsays/internal/domain/usage"
	"github.com/matiasleandrokruk/simonsays/internal/infra/eventbus"
	"github.com/matiasleandrokruk/simonsays/internal/infra/metrics"
	"github.com/matiasleandrokruk/simonsays/internal/infra/sqlite"
	"github.com/matiasleandrokruk/simonsays/internal/server"
	"github.com/matiasleandrokruk/simonsays/internal/version"
	pkgauth "github.com/matiasleandrokruk/simonsays/pkg/auth"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd(flags *globalFlags) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, flags, port)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Override HTTP_PORT")
	return cmd
}

func runServe(ctx context.Context, flags *globalFlags, port int) error {
	cfg, logger, err := loadRuntime(flags)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	if port > 0 {
		cfg.HTTP.Port = port
	}
	if err := cfg.RequireJWTSecret(); err != nil {
		return err
	}

	db, err := sqlite.OpenMigrated(ctx, cfg.DB.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close() //nolint:errcheck

	tokens, err := pkgauth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry)
	if err != nil {
		return fmt.Errorf("token issuer: %w", err)
	}
	completer, err := newCompleter(ctx, cfg.LLM, logger)
	if err != nil {
		return err
	}
	entitlements := newEntitlements(cfg.Billing, logger)

	bus := eventbus.New()
	reg := metrics.NewRegistry()
	recorder := metrics.NewRecorder(reg, logger)
	events := bus.Subscribe(coach.TopicCompletionFinished)

	profiles := profile.NewService(db)
	conversations := conversation.NewService(db)
	usageSvc := usage.NewService(db, cfg.Usage.FreeDailyLimit)
	chat := coach.NewChatService(profiles, conversations, usageSvc, entitlements, completer,
		coach.WithLogger(logger),
		coach.WithEvents(bus))

	router := api.NewRouter(api.Services{
		DB:            db,
		Tokens:        tokens,
		Auth:          domainauth.NewService(db, tokens, logger),
		Profiles:      profiles,
		Conversations: conversations,
		Chat:          chat,
		Usage:         usageSvc,
		Marketplace:   marketplace.NewService(db, entitlements),
		Subscriptions: entitlements,
		Metrics:       metrics.Handler(reg),
		Logger:        logger,
	})

	srvCfg := server.DefaultConfig()
	srvCfg.Port = cfg.HTTP.Port
	srv := server.NewServer(router, srvCfg, logger)

	logger.Info("simonsays starting",
		zap.String("version", version.Version),
		zap.String("addr", srv.Addr()),
		zap.String("db", cfg.DB.Path),
		zap.Int("free_daily_limit", usageSvc.Limit()))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return recorder.Run(gctx, events)
	})
	g.Go(func() error {
		// In-flight requests keep their context through shutdown.
		return srv.Start(context.WithoutCancel(gctx))
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		bus.Close()
		return err
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("simonsays stopped", zap.Uint64("dropped_events", bus.Dropped()))
	return nil
}
