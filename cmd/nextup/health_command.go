package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"nextup/internal/assistant"
)

func newHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the model provider accepts requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withAssistant(func(a *assistant.Assistant) error {
				st, err := a.Settings()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Provider: %s\n", st.Provider)
				if err := a.HealthCheck(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(out, "Model provider is reachable")
				return nil
			})
		},
	}
}
