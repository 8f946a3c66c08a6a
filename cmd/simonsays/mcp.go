package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/matiasleandrokruk/simonsays/internal/domain/coach"
	"github.com/matiasleandrokruk/simonsays/internal/mcpserver"
	"github.com/matiasleandrokruk/simonsays/internal/version"
)

func newMCPCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the coach as MCP tools over stdio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadRuntime(flags)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			completer, err := newCompleter(ctx, cfg.LLM, logger)
			if err != nil {
				return err
			}
			chat := coach.NewChatService(nil, nil, nil, nil, completer, coach.WithLogger(logger))
			return mcpserver.Run(ctx, mcpserver.New(chat, version.Version, logger))
		},
	}
}
