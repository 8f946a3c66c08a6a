package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matiasleandrokruk/simonsays/internal/domain/coach"
)

type askOptions struct {
	persona    string
	message    string
	name       string
	profession string
	focus      string
}

func newAskCmd(flags *globalFlags) *cobra.Command {
	opts := &askOptions{}
	cmd := &cobra.Command{
		Use:   "ask",
		Short: "Ask a coach persona once and print the reply",
		Example: `  simonsays ask --persona focus --message "I keep switching tasks"
  simonsays ask -m "Plan my week" --name Ada --profession designer`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(opts.message) == "" {
				return errors.New("--message is required")
			}
			cfg, logger, err := loadRuntime(flags)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			completer, err := newCompleter(cmd.Context(), cfg.LLM, logger)
			if err != nil {
				return err
			}
			// Ask touches neither the stores nor the quota.
			chat := coach.NewChatService(nil, nil, nil, nil, completer, coach.WithLogger(logger))

			reply := chat.Ask(cmd.Context(), coach.PersonaOrDefault(opts.persona), coach.UserContext{
				Name:       opts.name,
				Profession: opts.profession,
				Focus:      opts.focus,
			}, opts.message)

			fmt.Fprintln(cmd.OutOrStdout(), reply.Message.Text) //nolint:errcheck
			if reply.Failed {
				return fmt.Errorf("completion failed (%s)", reply.Kind)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.persona, "persona", string(coach.DefaultPersona), "Coach persona id")
	cmd.Flags().StringVarP(&opts.message, "message", "m", "", "Question for the coach")
	cmd.Flags().StringVar(&opts.name, "name", "", "Your name")
	cmd.Flags().StringVar(&opts.profession, "profession", "", "Your profession")
	cmd.Flags().StringVar(&opts.focus, "focus", "", "What you are working on")
	return cmd
}
