package main

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"nextup/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var (
		lines     int
		follow    bool
		component string
		kind      string
		level     string
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show nextup's own log file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := filepath.Join(cfg.Paths.LogDir, "nextup.log")
			filter := logs.Filter{Component: component, Kind: kind, MinLevel: level}
			out := cmd.OutOrStdout()
			emit := func(line string) {
				if filter.Match(line) {
					fmt.Fprintln(out, line)
				}
			}

			// Read extra lines when filtering so the requested count survives it.
			window := lines
			if !filter.Empty() && window > 0 {
				window *= 10
			}
			tail, offset, err := logs.Tail(path, window)
			if err != nil {
				return err
			}
			if !filter.Empty() {
				matched := tail[:0]
				for _, line := range tail {
					if filter.Match(line) {
						matched = append(matched, line)
					}
				}
				if len(matched) > lines {
					matched = matched[len(matched)-lines:]
				}
				tail = matched
			}
			for _, line := range tail {
				fmt.Fprintln(out, line)
			}
			if !follow {
				if len(tail) == 0 {
					fmt.Fprintf(cmd.ErrOrStderr(), "No log lines in %s\n", path)
				}
				return nil
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return logs.Follow(runCtx, path, offset, 250*time.Millisecond, emit)
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines")
	cmd.Flags().StringVar(&component, "component", "", "Only show one component")
	cmd.Flags().StringVarP(&kind, "kind", "k", "", "Only show one content kind")
	cmd.Flags().StringVar(&level, "level", "", "Minimum level (debug, info, warn, error)")
	return cmd
}
