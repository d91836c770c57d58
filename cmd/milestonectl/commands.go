package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"milestonenotifier/internal/app/server"
	"milestonenotifier/internal/domain/milestones"
	"milestonenotifier/internal/domain/notes"
)

func newActivateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "activate",
		Short: "Check that the notifier's dependencies are available",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.Context(), func(app *server.App) error {
				if err := app.Plugin.Activate(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Milestone notifier activated")
				return nil
			})
		},
	}
}

func newDeactivateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate",
		Short: "Remove every milestone note",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.Context(), func(app *server.App) error {
				removed, err := app.Plugin.Deactivate(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d milestone %s\n", removed, plural(removed, "note", "notes"))
				return nil
			})
		},
	}
}

func newEvaluateCommand(ctx *commandContext) *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Apply the milestone rules to the current (or given) customer count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.Context(), func(app *server.App) error {
				if err := app.Notifier.CheckCapabilities(cmd.Context()); err != nil {
					return err
				}
				if !cmd.Flags().Changed("count") {
					stored, err := app.Users.CountByRole(cmd.Context(), app.Config.CustomerRole)
					if err != nil {
						return err
					}
					count = stored
				}
				note, err := app.Notifier.Evaluate(cmd.Context(), count)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if note == nil {
					fmt.Fprintf(out, "No change at %s customers\n", humanize.Comma(int64(count)))
					return nil
				}
				fmt.Fprintf(out, "Created %s note %q (%s)\n", note.Name, note.Title, note.ID)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&count, "count", 0, "Customer count to evaluate instead of the stored one")
	return cmd
}

func newCountCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Print the number of registered customers and the next milestone",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.Context(), func(app *server.App) error {
				count, err := app.Users.CountByRole(cmd.Context(), app.Config.CustomerRole)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Customers: %s\n", humanize.Comma(int64(count)))
				if next, ok := nextMilestone(count); ok {
					fmt.Fprintf(out, "Next milestone: %s (%s to go)\n", humanize.Comma(int64(next)), humanize.Comma(int64(next-count)))
				} else {
					fmt.Fprintln(out, "Next milestone: none")
				}
				return nil
			})
		},
	}
}

func newNotesCommand(ctx *commandContext) *cobra.Command {
	var name string
	var limit int
	cmd := &cobra.Command{
		Use:   "notes",
		Short: "List milestone notes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.Context(), func(app *server.App) error {
				filter := notes.Filter{Name: name, Source: app.Config.NoteSource}
				items, err := app.Notes.List(cmd.Context(), filter, limit, 0)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(items) == 0 {
					fmt.Fprintln(out, "No milestone notes")
					return nil
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Name", "Title", "Status", "Milestone", "Created"},
					noteRows(items),
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Only notes with this name (first-customer, tenth-customer, other-milestone)")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of notes to show")
	return cmd
}

func noteRows(items []notes.Note) [][]string {
	rows := make([][]string, 0, len(items))
	for _, note := range items {
		milestone := "-"
		if content, err := milestones.ContentOf(note); err == nil {
			switch {
			case content.FirstCustomer:
				milestone = "1"
			case content.TenthCustomer:
				milestone = "10"
			case content.Milestone > 0:
				milestone = humanize.Comma(int64(content.Milestone))
			}
		}
		rows = append(rows, []string{
			note.ID,
			note.Name,
			note.Title,
			note.Status,
			milestone,
			humanize.Time(note.CreatedAt),
		})
	}
	return rows
}

func nextMilestone(count int) (int, bool) {
	for _, m := range milestones.Milestones {
		if m > count {
			return m, true
		}
	}
	return 0, false
}

func plural(n int64, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
