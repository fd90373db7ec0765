package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/alexanderramin/timesflying/internal/clock"
	"github.com/alexanderramin/timesflying/internal/config"
	"github.com/alexanderramin/timesflying/internal/service"
	"github.com/alexanderramin/timesflying/internal/store"
	"github.com/spf13/cobra"
)

// App holds references to all service interfaces used by CLI commands.
// Services left nil are wired from the loaded configuration before the
// first command runs.
type App struct {
	Catalog  service.CatalogService
	Tracking service.TrackingService
	Projects service.ProjectService
	Clock    *clock.Clock
	Store    *store.Store
	Logger   *slog.Logger
	Config   config.Config

	// IsInteractive reports whether stdin is a terminal.
	IsInteractive func() bool
	// Confirm asks a yes/no question. Defaults to a huh confirm form.
	Confirm func(title string) (bool, error)
}

// NewRootCmd creates the top-level "timesflying" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:           "timesflying",
		Short:         "Local time tracker with live views",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile, cmd.Flags())
			if err != nil {
				return err
			}
			app.Config = cfg
			return app.connect()
		},
	}

	root.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default ~/.timesflying/timesflying.yaml)")
	root.PersistentFlags().String("db", "", "Database file (env TIMESFLYING_DB)")
	root.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")

	root.AddCommand(
		newStartCmd(app),
		newStopCmd(app),
		newContinueCmd(app),
		newPinCmd(app),
		newDeleteCmd(app),
		newListCmd(app),
		newPinnedCmd(app),
		newActiveCmd(app),
		newSearchCmd(app),
		newProjectCmd(app),
		newWatchCmd(app),
	)

	return root
}

// connect wires whatever the caller did not inject.
func (a *App) connect() error {
	if a.Logger == nil {
		a.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: a.Config.LogLevel}))
	}
	if a.Clock == nil {
		if a.Config.Tick == clock.DefaultInterval {
			a.Clock = clock.Default()
		} else {
			a.Clock = clock.New(clock.WithInterval(a.Config.Tick))
		}
	}
	if a.Catalog != nil && a.Tracking != nil && a.Projects != nil {
		return nil
	}

	st, err := store.Shared(store.Options{Path: a.Config.DBPath, Logger: a.Logger})
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	a.Store = st

	observer := service.NewSlogUseCaseObserver(a.Logger)
	if a.Catalog == nil {
		a.Catalog = service.NewCatalogService(st.TimeEntries(), st.Projects(), st.Changes())
	}
	if a.Tracking == nil {
		a.Tracking = service.NewTrackingService(st.TimeEntries(), service.WithObserver(observer))
	}
	if a.Projects == nil {
		a.Projects = service.NewProjectService(st.Projects(), observer)
	}
	return nil
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

func (a *App) confirm(title string) (bool, error) {
	if a.Confirm != nil {
		return a.Confirm(title)
	}
	var ok bool
	if err := wizardConfirm(title, &ok).Run(); err != nil {
		return false, err
	}
	return ok, nil
}
