package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alexanderramin/roofline/internal/cli/formatter"
	"github.com/alexanderramin/roofline/internal/domain"
	"github.com/alexanderramin/roofline/internal/service"
	"github.com/spf13/cobra"
)

func newEntriesCmd(app *App, flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "entries",
		Aliases: []string{"entry"},
		Short:   "Review time entries",
	}

	cmd.AddCommand(
		newEntriesListCmd(app, flags),
		newEntriesApproveCmd(app, flags),
		newEntriesRejectCmd(app, flags),
	)

	return cmd
}

func newEntriesListCmd(app *App, flags *globalFlags) *cobra.Command {
	var employee, jobRef string
	dates := &dateRangeFlags{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List time entries visible to you",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			caller, err := flags.caller(ctx, app)
			if err != nil {
				return err
			}
			start, end, err := dates.resolve(app.now(), app.location())
			if err != nil {
				return err
			}

			q := service.EntryQuery{StartDate: start, EndDate: end}
			if employee != "" {
				if q.EmployeeID, err = resolveUserRef(ctx, app, employee); err != nil {
					return err
				}
			}
			if jobRef != "" {
				if q.JobID, err = resolveJobRef(ctx, app, caller, jobRef); err != nil {
					return err
				}
			}

			list, err := app.Ledger.ListEntries(ctx, caller, q)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatEntries(list.Entries, list.TotalHours, app.location()))
			return nil
		},
	}

	cmd.Flags().StringVar(&employee, "employee", "", "Filter by employee id or username (owners only)")
	cmd.Flags().StringVar(&jobRef, "job", "", "Filter by job id or number")
	dates.bind(cmd.Flags())

	return cmd
}

func newEntriesApproveCmd(app *App, flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "approve <entry-id>",
		Short: "Approve a completed time entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			caller, err := flags.caller(ctx, app)
			if err != nil {
				return err
			}
			id, err := resolveEntryRef(ctx, app, caller, args[0])
			if err != nil {
				return err
			}
			entry, err := app.Ledger.ApproveEntry(ctx, caller, id)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatEntry("Approved", entry, app.location()))
			return nil
		},
	}
}

func newEntriesRejectCmd(app *App, flags *globalFlags) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "reject <entry-id>",
		Short: "Reject a completed time entry; its hours leave the job total",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			caller, err := flags.caller(ctx, app)
			if err != nil {
				return err
			}
			id, err := resolveEntryRef(ctx, app, caller, args[0])
			if err != nil {
				return err
			}
			entry, err := app.Ledger.RejectEntry(ctx, caller, id, reason)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatEntry("Rejected", entry, app.location()))
			return nil
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "Why the entry was rejected")

	return cmd
}

// resolveEntryRef expands the truncated ids shown by "entries list". A
// prefix must match exactly one visible entry.
func resolveEntryRef(ctx context.Context, app *App, caller domain.Caller, ref string) (string, error) {
	if len(ref) >= 36 {
		return ref, nil
	}
	list, err := app.Ledger.ListEntries(ctx, caller, service.EntryQuery{})
	if err != nil {
		return "", err
	}
	var match string
	for _, e := range list.Entries {
		if strings.HasPrefix(e.ID, ref) {
			if match != "" {
				return "", domain.Validationf("entry prefix %q is ambiguous", ref)
			}
			match = e.ID
		}
	}
	if match == "" {
		return "", domain.NotFoundf("time entry %s not found", ref)
	}
	return match, nil
}

// resolveUserRef maps a username to a user id. Anything that does not resolve
// to an active user is passed through as an id for the service to judge.
func resolveUserRef(ctx context.Context, app *App, ref string) (string, error) {
	c, err := app.Users.Resolve(ctx, ref)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthenticated) {
			return ref, nil
		}
		return "", err
	}
	return c.UserID, nil
}
