package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"nextup/internal/assistant"
	"nextup/internal/media"
)

func newLogCommand(ctx *commandContext) *cobra.Command {
	var (
		kindFlag   string
		limit      int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show recently recorded reactions",
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := ""
			if kindFlag != "" {
				parsed, err := media.ParseKind(kindFlag)
				if err != nil {
					return err
				}
				kind = string(parsed)
			}
			return ctx.withAssistant(func(a *assistant.Assistant) error {
				events, err := a.FeedbackEvents(cmd.Context(), kind, limit)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, events)
				}
				out := cmd.OutOrStdout()
				if len(events) == 0 {
					fmt.Fprintln(out, "No reactions recorded yet")
					return nil
				}
				rows := make([][]string, 0, len(events))
				for _, ev := range events {
					rows = append(rows, []string{
						ev.At.Local().Format("2006-01-02 15:04"),
						ev.Kind,
						ev.Title,
						ev.Outcome,
					})
				}
				fmt.Fprintln(out, renderTable([]column{left("When"), left("Kind"), wrapped("Title", 50), left("Outcome")}, rows))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&kindFlag, "kind", "k", "", "Only show one content kind")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of entries")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print entries as JSON")
	return cmd
}
