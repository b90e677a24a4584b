package cli

import (
	"fmt"

	"github.com/alexanderramin/roofline/internal/cli/formatter"
	"github.com/alexanderramin/roofline/internal/domain"
	"github.com/alexanderramin/roofline/internal/service"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func newClockCmd(app *App, flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clock",
		Short: "Clock in and out of jobs",
	}

	cmd.AddCommand(
		newClockInCmd(app, flags),
		newClockOutCmd(app, flags),
		newClockStatusCmd(app, flags),
		newClockWatchCmd(app, flags),
	)

	return cmd
}

func newClockInCmd(app *App, flags *globalFlags) *cobra.Command {
	var jobRef, notes string

	cmd := &cobra.Command{
		Use:   "in",
		Short: "Start a time entry on a job",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			caller, err := flags.caller(ctx, app)
			if err != nil {
				return err
			}

			var jobID string
			if jobRef == "" {
				if !app.interactive() {
					return domain.Validationf("--job is required when stdin is not a terminal")
				}
				jobID, err = chooseJob(ctx, app, caller)
			} else {
				jobID, err = resolveJobRef(ctx, app, caller, jobRef)
			}
			if err != nil {
				return err
			}

			entry, err := app.Ledger.ClockIn(ctx, caller, service.ClockInInput{JobID: jobID, Notes: notes})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatEntry("Clocked in", entry, app.location()))
			return nil
		},
	}

	cmd.Flags().StringVar(&jobRef, "job", "", "Job id, number (JOB-007) or sequence (7); prompts when omitted on a terminal")
	cmd.Flags().StringVar(&notes, "notes", "", "Entry notes")

	return cmd
}

func newClockOutCmd(app *App, flags *globalFlags) *cobra.Command {
	var notes string
	var breakMinutes int

	cmd := &cobra.Command{
		Use:   "out",
		Short: "Close the active time entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			caller, err := flags.caller(ctx, app)
			if err != nil {
				return err
			}
			entry, err := app.Ledger.ClockOut(ctx, caller, service.ClockOutInput{BreakMinutes: breakMinutes, Notes: notes})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatEntry("Clocked out", entry, app.location()))
			return nil
		},
	}

	cmd.Flags().IntVar(&breakMinutes, "break", 0, "Unpaid break in minutes")
	cmd.Flags().StringVar(&notes, "notes", "", "Replace the entry notes")

	return cmd
}

func newClockStatusCmd(app *App, flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether you are on the clock",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			caller, err := flags.caller(ctx, app)
			if err != nil {
				return err
			}
			st, err := app.Ledger.GetStatus(ctx, caller)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatClockStatus(st.ActiveEntry, app.now(), app.location()))
			return nil
		},
	}
}

func newClockWatchCmd(app *App, flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Live view of the active entry's elapsed time",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			caller, err := flags.caller(ctx, app)
			if err != nil {
				return err
			}
			m := newWatchModel(ctx, app, caller)
			_, err = tea.NewProgram(m,
				tea.WithContext(ctx),
				tea.WithInput(cmd.InOrStdin()),
				tea.WithOutput(cmd.OutOrStdout()),
			).Run()
			return err
		},
	}
}
