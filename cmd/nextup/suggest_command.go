package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"nextup/internal/assistant"
	"nextup/internal/services"
)

func newSuggestCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "suggest <kind>",
		Short: "Ask the model for the next suggestion",
		Long: "Ask the model for one new suggestion of the given kind, taking every earlier\n" +
			"suggestion, reaction and constraint into account. Kinds: " + kindList() + ".",
		Args: kindArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withKind(args[0], func(_ *assistant.Assistant, svc assistant.KindService) error {
				suggestion, err := svc.Next(cmd.Context())
				if err != nil {
					if errors.Is(err, services.ErrDuplicateSuggestion) && suggestion.Key != "" {
						fmt.Fprintf(cmd.ErrOrStderr(), "Already suggested: %s\n", suggestion.Summary)
					}
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, suggestion)
				}
				printSuggestion(cmd.OutOrStdout(), suggestion)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the suggestion as JSON")
	return cmd
}

func printSuggestion(out io.Writer, s assistant.Suggestion) {
	fmt.Fprintln(out, s.Summary)
	if s.Genre != "" {
		fmt.Fprintf(out, "  Genre:  %s\n", s.Genre)
	}
	if s.Reason != "" {
		fmt.Fprintf(out, "  Why:    %s\n", s.Reason)
	}
	fmt.Fprintf(out, "  Key:    %s\n", s.Key)
	fmt.Fprintf(out, "Record your reaction with: nextup feedback %s %s <liked|disliked|skipped|added>\n", s.Kind, s.Key)
}
