package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexanderramin/timesflying/internal/cli/formatter"
	"github.com/alexanderramin/timesflying/internal/domain"
	"github.com/alexanderramin/timesflying/internal/service"
	"github.com/spf13/cobra"
)

func newStartCmd(app *App) *cobra.Command {
	var project string
	var last bool

	cmd := &cobra.Command{
		Use:   "start [description...]",
		Short: "Start tracking, stopping the running entry first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if project != "" && last {
				return fmt.Errorf("--project and --last are mutually exclusive")
			}

			var projectID string
			switch {
			case project != "":
				id, err := resolveProjectID(ctx, app, project)
				if err != nil {
					return err
				}
				projectID = id
			case last:
				id, err := app.Catalog.GetLastProject(ctx)
				if err != nil {
					return err
				}
				if id != nil {
					projectID = *id
				}
			}

			entry, err := app.Tracking.Start(ctx, strings.Join(args, " "), projectID)
			if err != nil {
				return err
			}
			return printActive(cmd, app, entry)
		},
	}

	cmd.Flags().StringVarP(&project, "project", "p", "", "Project name or ID")
	cmd.Flags().BoolVar(&last, "last", false, "Reuse the project of the most recent entry")
	return cmd
}

func newStopCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entry, err := app.Tracking.Stop(cmd.Context())
			if err != nil {
				return err
			}
			if entry == nil {
				fmt.Fprintln(cmd.OutOrStdout(), formatter.Dim("Not tracking."))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatStopped(entry, app.Config.ShowSeconds))
			return nil
		},
	}
}

func newContinueCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "continue ID",
		Short: "Start a new entry copying an earlier one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := resolveEntryID(ctx, app, args[0])
			if err != nil {
				return err
			}
			entry, err := app.Tracking.Continue(ctx, id)
			if err != nil {
				return err
			}
			if entry == nil {
				return fmt.Errorf("entry not found: %q", args[0])
			}
			return printActive(cmd, app, entry)
		},
	}
}

func newPinCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "pin ID",
		Short: "Toggle the pinned flag of an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := resolveEntryID(ctx, app, args[0])
			if err != nil {
				return err
			}
			entry, err := app.Tracking.TogglePin(ctx, id)
			if err != nil {
				return err
			}
			verb := "Unpinned"
			if entry.IsPinned {
				verb = "Pinned"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", verb, formatter.TruncID(entry.ID), formatter.Bold(entry.Description))
			return nil
		},
	}
}

func newDeleteCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete an entry after confirmation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := resolveEntryID(ctx, app, args[0])
			if err != nil {
				return err
			}

			confirmer := service.AlwaysConfirm
			if !yes {
				if !app.interactive() {
					return fmt.Errorf("refusing to delete without confirmation; pass --yes")
				}
				confirmer = service.ConfirmFunc(func(_ context.Context, e *domain.TimeEntry) (bool, error) {
					return app.confirm(fmt.Sprintf("Delete %q (%s)?", e.Description, formatter.TruncID(e.ID)))
				})
			}

			deleted, err := app.Tracking.Delete(ctx, id, confirmer)
			if err != nil {
				return err
			}
			if !deleted {
				fmt.Fprintln(cmd.OutOrStdout(), formatter.Dim("Kept."))
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", formatter.TruncID(id))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")
	return cmd
}

func newListCmd(app *App) *cobra.Command {
	var page, perPage int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List time entries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if !cmd.Flags().Changed("per-page") {
				perPage = app.Config.PerPage
			}
			if page < 1 {
				return fmt.Errorf("--page must be 1 or greater")
			}

			entries, err := app.Catalog.ListTimeEntries(ctx, page-1, perPage)
			if err != nil {
				return err
			}
			projects, err := app.Catalog.ListProjects(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, formatter.FormatEntryList(entries, projects, app.Clock.Now(), app.Config.ShowSeconds))
			fmt.Fprintln(out, formatter.Pager(page-1, perPage, len(entries)))
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "Page number, starting at 1")
	cmd.Flags().IntVar(&perPage, "per-page", service.DefaultPerPage, "Entries per page")
	return cmd
}

func newPinnedCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "pinned",
		Short: "List pinned entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			entries, err := app.Catalog.ListPinned(ctx)
			if err != nil {
				return err
			}
			projects, err := app.Catalog.ListProjects(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatEntryList(entries, projects, app.Clock.Now(), app.Config.ShowSeconds))
			return nil
		},
	}
}

func newActiveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "active",
		Short: "Show the running entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entry, err := app.Catalog.GetActive(cmd.Context())
			if err != nil {
				return err
			}
			return printActive(cmd, app, entry)
		},
	}
}

func newSearchCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search [query...]",
		Short: "Find recent descriptions containing the query",
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := app.Catalog.Search(cmd.Context(), strings.Join(args, " "), limit)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatDescriptions(results))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", service.DefaultSearchLimit, "Maximum results")
	return cmd
}

func printActive(cmd *cobra.Command, app *App, entry *domain.TimeEntry) error {
	projects, err := app.Catalog.ListProjects(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatActive(entry, projects, app.Clock.Now(), app.Config.ShowSeconds))
	return nil
}
