package cli

import (
	"context"
	"log/slog"
	"time"

	"github.com/alexanderramin/roofline/internal/config"
	"github.com/alexanderramin/roofline/internal/domain"
	"github.com/alexanderramin/roofline/internal/service"
	"github.com/spf13/cobra"
)

// App holds references to all service interfaces used by CLI commands.
type App struct {
	Ledger    service.TimeTrackingService
	Jobs      service.JobService
	Customers service.CustomerService
	Users     service.UserService

	Config *config.Config
	Logger *slog.Logger

	// Now is the display clock for elapsed times; nil means time.Now.
	Now func() time.Time
	// IsInteractive reports whether stdin is a terminal. Nil means never.
	IsInteractive func() bool
	// PickJob chooses a job interactively. Nil uses the huh picker.
	PickJob func(ctx context.Context, jobs []*domain.Job) (string, error)
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *App) location() *time.Location {
	if a.Config == nil {
		return time.UTC
	}
	return a.Config.Location()
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

// NewRootCmd creates the top-level "roofline" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "roofline",
		Short:         "Roofing crew time tracking and job ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := &globalFlags{}
	flags.bind(root.PersistentFlags())

	root.AddCommand(
		newServeCmd(app),
		newClockCmd(app, flags),
		newEntriesCmd(app, flags),
		newJobCmd(app, flags),
		newCustomerCmd(app, flags),
		newUserCmd(app, flags),
	)

	return root
}
