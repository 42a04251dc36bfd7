package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"nextup/internal/assistant"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "history <kind>",
		Short: "List earlier suggestions and your reactions",
		Args:  kindArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withKind(args[0], func(_ *assistant.Assistant, svc assistant.KindService) error {
				history := svc.History()
				if jsonOutput {
					return writeJSON(cmd, history)
				}
				out := cmd.OutOrStdout()
				if len(history) == 0 {
					fmt.Fprintf(out, "No %s suggestions yet\n", svc.Kind())
					return nil
				}
				rows := make([][]string, 0, len(history))
				for i, s := range history {
					rows = append(rows, []string{
						strconv.Itoa(i + 1),
						s.Summary,
						s.Genre,
						string(s.Outcome),
						formatResponded(s.RespondedAt),
						s.Key,
					})
				}
				fmt.Fprintln(out, renderTable([]column{
					right("#"), wrapped("Suggestion", 60), left("Genre"), left("Outcome"), left("Responded"), left("Key"),
				}, rows))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print history as JSON")
	return cmd
}

func formatResponded(at time.Time) string {
	if at.IsZero() {
		return "-"
	}
	return at.Local().Format("2006-01-02 15:04")
}
