package cli

import (
	"fmt"

	"github.com/alexanderramin/roofline/internal/cli/formatter"
	"github.com/alexanderramin/roofline/internal/domain"
	"github.com/alexanderramin/roofline/internal/service"
	"github.com/spf13/cobra"
)

func newJobCmd(app *App, flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "job",
		Aliases: []string{"jobs"},
		Short:   "Manage roofing jobs",
	}

	cmd.AddCommand(
		newJobListCmd(app, flags),
		newJobCreateCmd(app, flags),
		newJobAssignCmd(app, flags),
		newJobShowCmd(app, flags),
		newJobRecalcCmd(app, flags),
		newJobStatsCmd(app, flags),
	)

	return cmd
}

func newJobListCmd(app *App, flags *globalFlags) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs visible to you",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			caller, err := flags.caller(ctx, app)
			if err != nil {
				return err
			}
			jobs, err := app.Jobs.List(ctx, caller, domain.JobStatus(status))
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatJobs(jobs))
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status (pending, active, completed, cancelled)")

	return cmd
}

func newJobCreateCmd(app *App, flags *globalFlags) *cobra.Command {
	var in service.JobInput
	var customer, priority string
	var assign []string
	start, end := &dayValue{}, &dayValue{}
	estHours, estCost := &decimalValue{}, &decimalValue{}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a job (owner only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			caller, err := flags.caller(ctx, app)
			if err != nil {
				return err
			}
			if customer != "" {
				in.CustomerID = &customer
			}
			in.Priority = domain.JobPriority(priority)
			in.StartDate, in.EndDate = start.t, end.t
			in.EstimatedHours, in.EstimatedCost = estHours.d, estCost.d
			for _, ref := range assign {
				id, err := resolveUserRef(ctx, app, ref)
				if err != nil {
					return err
				}
				in.AssignedEmployeeIDs = append(in.AssignedEmployeeIDs, id)
			}

			job, err := app.Jobs.Create(ctx, caller, in)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatJobDetail(job, nil))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&in.Title, "title", "", "Job title")
	f.StringVar(&in.Description, "description", "", "Scope of work")
	f.StringVar(&customer, "customer", "", "Customer id")
	f.StringVar(&priority, "priority", "", "low, medium, high or urgent (default medium)")
	f.Var(start, "start", "Start date, YYYY-MM-DD")
	f.Var(end, "end", "End date, YYYY-MM-DD")
	f.Var(estHours, "estimate-hours", "Estimated labour hours")
	f.Var(estCost, "estimate-cost", "Estimated cost")
	f.StringVar(&in.Address, "address", "", "Site address")
	f.StringVar(&in.Notes, "notes", "", "Internal notes")
	f.StringSliceVar(&assign, "assign", nil, "Employees to assign (ids or usernames, comma separated)")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

func newJobAssignCmd(app *App, flags *globalFlags) *cobra.Command {
	var employees []string

	cmd := &cobra.Command{
		Use:   "assign <job>",
		Short: "Replace the crew assigned to a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			caller, err := flags.caller(ctx, app)
			if err != nil {
				return err
			}
			jobID, err := resolveJobRef(ctx, app, caller, args[0])
			if err != nil {
				return err
			}
			ids := make([]string, 0, len(employees))
			for _, ref := range employees {
				id, err := resolveUserRef(ctx, app, ref)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}
			job, err := app.Jobs.Assign(ctx, caller, jobID, ids)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatJobDetail(job, crewNames(cmd, app, caller)))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&employees, "employees", nil, "Employee ids or usernames; empty clears the crew")

	return cmd
}

func newJobShowCmd(app *App, flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show <job>",
		Short: "Show a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			caller, err := flags.caller(ctx, app)
			if err != nil {
				return err
			}
			jobID, err := resolveJobRef(ctx, app, caller, args[0])
			if err != nil {
				return err
			}
			job, err := app.Jobs.Get(ctx, caller, jobID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatJobDetail(job, crewNames(cmd, app, caller)))
			return nil
		},
	}
}

func newJobRecalcCmd(app *App, flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "recalc <job>",
		Short: "Rebuild a job's actual hours from its time entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			caller, err := flags.caller(ctx, app)
			if err != nil {
				return err
			}
			jobID, err := resolveJobRef(ctx, app, caller, args[0])
			if err != nil {
				return err
			}
			job, err := app.Ledger.RecalculateJobHours(ctx, caller, jobID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s actual hours: %s\n", job.JobNumber, formatter.Bold(formatter.Hours(&job.ActualHours)))
			return nil
		},
	}
}

func newJobStatsCmd(app *App, flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count jobs by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			caller, err := flags.caller(ctx, app)
			if err != nil {
				return err
			}
			st, err := app.Jobs.Stats(ctx, caller)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatJobStats(st))
			return nil
		},
	}
}

// crewNames maps employee ids to names when the caller may list users.
func crewNames(cmd *cobra.Command, app *App, caller domain.Caller) map[string]string {
	if !caller.IsOwner() {
		return nil
	}
	users, err := app.Users.List(cmd.Context(), caller, domain.RoleEmployee)
	if err != nil {
		return nil
	}
	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}
	return names
}
