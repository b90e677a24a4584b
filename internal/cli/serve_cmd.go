package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/alexanderramin/roofline/internal/api"
	"github.com/spf13/cobra"
)

func newServeCmd(app *App) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg := app.Config.Server
			if addr != "" {
				cfg.Addr = addr
			}
			srv := api.NewServer(api.Services{
				Ledger:    app.Ledger,
				Jobs:      app.Jobs,
				Customers: app.Customers,
				Users:     app.Users,
			}, app.Logger)
			return srv.Run(ctx, cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config)")

	return cmd
}
