package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"nextup/internal/assistant"
	"nextup/internal/media"
	"nextup/internal/settings"
)

func newSettingsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show your preferences",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withAssistant(func(a *assistant.Assistant) error {
				st, err := a.Settings()
				if err != nil {
					return err
				}
				printSettings(cmd.OutOrStdout(), st)
				return nil
			})
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <field> <value>",
		Short: "Change one preference",
		Long: "Change one preference. Fields: continuous_playback, provider, repair_model,\n" +
			"models.<kind> (for example models.movie).",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withAssistant(func(a *assistant.Assistant) error {
				st, err := a.SetSetting(args[0], args[1])
				if err != nil {
					return err
				}
				printSettings(cmd.OutOrStdout(), st)
				return nil
			})
		},
	})
	return cmd
}

func printSettings(out io.Writer, st settings.Settings) {
	rows := [][]string{
		{"continuous_playback", yesNo(st.Playback())},
		{"provider", st.Provider},
	}
	for _, kind := range media.Kinds() {
		rows = append(rows, []string{"models." + string(kind), st.ModelFor(kind)})
	}
	repair := st.RepairModel
	if repair == "" {
		repair = "(same as the kind's model)"
	}
	rows = append(rows, []string{"repair_model", repair})
	fmt.Fprintln(out, renderTable([]column{left("Setting"), left("Value")}, rows))
}
