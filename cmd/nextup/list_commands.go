package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"nextup/internal/assistant"
	"nextup/internal/library"
	"nextup/internal/media"
)

type listSpec struct {
	name  string
	short string
}

var (
	listFavorites = listSpec{name: library.Favorites, short: "Manage favorite movies, books, shows and games"}
	listQueue     = listSpec{name: library.Queue, short: "Manage the queue of things to try next"}
)

func newListCommand(ctx *commandContext, spec listSpec) *cobra.Command {
	cmd := &cobra.Command{
		Use:   spec.name,
		Short: spec.short,
	}
	cmd.AddCommand(newListShowCommand(ctx, spec))
	cmd.AddCommand(newListAddCommand(ctx, spec))
	cmd.AddCommand(newListRemoveCommand(ctx, spec))
	return cmd
}

func newListShowCommand(ctx *commandContext, spec listSpec) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:     "list <kind>",
		Aliases: []string{"ls", "show"},
		Short:   "Show the " + spec.name + " of a kind",
		Args:    kindArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withKind(args[0], func(_ *assistant.Assistant, svc assistant.KindService) error {
				items, err := svc.Items(spec.name)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, items)
				}
				out := cmd.OutOrStdout()
				if len(items) == 0 {
					fmt.Fprintf(out, "No %s in %s\n", svc.Kind().Plural(), spec.name)
					return nil
				}
				rows := make([][]string, 0, len(items))
				for i, item := range items {
					rows = append(rows, []string{strconv.Itoa(i + 1), item.Summary})
				}
				fmt.Fprintln(out, renderTable([]column{right("#"), wrapped("Item", 70)}, rows))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print items as JSON")
	return cmd
}

func newListAddCommand(ctx *commandContext, spec listSpec) *cobra.Command {
	return &cobra.Command{
		Use:   "add <kind> field=value...",
		Short: "Add an item to " + spec.name,
		Long: "Add an item to " + spec.name + ". Fields are given as name=value pairs, for example\n" +
			"  nextup " + spec.name + " add movie title=Heat director=\"Michael Mann\" year=1995",
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := parseFieldArgs(args[1:])
			if err != nil {
				return err
			}
			return ctx.withKind(args[0], func(_ *assistant.Assistant, svc assistant.KindService) error {
				item, added, err := svc.AddItem(spec.name, fields)
				if err != nil {
					return err
				}
				if !added {
					fmt.Fprintf(cmd.OutOrStdout(), "%s is already in %s\n", item.Summary, spec.name)
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s to %s\n", item.Summary, spec.name)
				return nil
			})
		},
	}
}

func newListRemoveCommand(ctx *commandContext, spec listSpec) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <kind> field=value...",
		Aliases: []string{"rm"},
		Short:   "Remove an item from " + spec.name,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := parseFieldArgs(args[1:])
			if err != nil {
				return err
			}
			return ctx.withKind(args[0], func(_ *assistant.Assistant, svc assistant.KindService) error {
				item, err := svc.RemoveItem(spec.name, fields)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from %s\n", item.Summary, spec.name)
				return nil
			})
		},
	}
}

func parseFieldArgs(args []string) (media.Fields, error) {
	fields := make(media.Fields, len(args))
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		name = strings.ToLower(strings.TrimSpace(name))
		if !ok || name == "" {
			return nil, fmt.Errorf("field %q must look like name=value", arg)
		}
		fields[name] = strings.TrimSpace(value)
	}
	return fields, nil
}
