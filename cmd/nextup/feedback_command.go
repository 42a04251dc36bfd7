package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"nextup/internal/assistant"
	"nextup/internal/session"
)

func newFeedbackCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "feedback <kind> <key|title> <outcome>",
		Short: "Record your reaction to a suggestion",
		Long: "Record your reaction to a suggestion. The suggestion may be named by its key\n" +
			"or by its title. Outcomes: pending, liked, disliked, skipped, added.",
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			outcome, err := session.ParseOutcome(args[2])
			if err != nil {
				return err
			}
			return ctx.withKind(args[0], func(_ *assistant.Assistant, svc assistant.KindService) error {
				key, err := svc.ResolveKey(args[1])
				if err != nil {
					return err
				}
				updated, err := svc.RecordOutcome(cmd.Context(), key, outcome)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s for %s\n", updated.Outcome, updated.Summary)
				return nil
			})
		},
	}
}
