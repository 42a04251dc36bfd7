package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"nextup/internal/assistant"
)

func newConstraintsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "constraints <kind>",
		Short: "Show the standing instructions sent with every request",
		Args:  kindArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withKind(args[0], func(_ *assistant.Assistant, svc assistant.KindService) error {
				printConstraints(cmd.OutOrStdout(), svc.Constraints())
				return nil
			})
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <kind> <constraint>...",
		Short: "Replace the constraints of a kind",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withKind(args[0], func(_ *assistant.Assistant, svc assistant.KindService) error {
				stored, err := svc.SetConstraints(args[1:])
				if err != nil {
					return err
				}
				printConstraints(cmd.OutOrStdout(), stored)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <kind> <constraint>",
		Short: "Append one constraint",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withKind(args[0], func(_ *assistant.Assistant, svc assistant.KindService) error {
				stored, err := svc.SetConstraints(append(svc.Constraints(), args[1]))
				if err != nil {
					return err
				}
				printConstraints(cmd.OutOrStdout(), stored)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear <kind>",
		Short: "Remove every constraint of a kind",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withKind(args[0], func(_ *assistant.Assistant, svc assistant.KindService) error {
				if _, err := svc.SetConstraints(nil); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Constraints cleared")
				return nil
			})
		},
	})

	return cmd
}

func printConstraints(out io.Writer, constraints []string) {
	if len(constraints) == 0 {
		fmt.Fprintln(out, "No constraints")
		return
	}
	for i, c := range constraints {
		fmt.Fprintf(out, "%d. %s\n", i+1, c)
	}
}
