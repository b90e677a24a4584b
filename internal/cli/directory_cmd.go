package cli

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/roofline/internal/cli/formatter"
	"github.com/alexanderramin/roofline/internal/domain"
	"github.com/spf13/cobra"
)

func newCustomerCmd(app *App, flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "customer",
		Aliases: []string{"customers"},
		Short:   "Manage customers",
	}
	cmd.AddCommand(newCustomerListCmd(app, flags), newCustomerCreateCmd(app, flags))
	return cmd
}

func newCustomerListCmd(app *App, flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List customers",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			caller, err := flags.caller(ctx, app)
			if err != nil {
				return err
			}
			customers, err := app.Customers.List(ctx, caller)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatCustomers(customers))
			return nil
		},
	}
}

func newCustomerCreateCmd(app *App, flags *globalFlags) *cobra.Command {
	var c domain.Customer
	var userRef string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Add a customer (owner only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			caller, err := flags.caller(ctx, app)
			if err != nil {
				return err
			}
			if userRef != "" {
				id, err := resolveUserRef(ctx, app, userRef)
				if err != nil {
					return err
				}
				c.UserID = &id
			}
			if err := app.Customers.Create(ctx, caller, &c); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created customer %s (%s)\n", formatter.Bold(c.Name), c.ID)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&c.Name, "name", "", "Customer name")
	f.StringVar(&c.Email, "email", "", "Contact email")
	f.StringVar(&c.Phone, "phone", "", "Contact phone")
	f.StringVar(&c.Address, "address", "", "Billing address")
	f.StringVar(&c.Notes, "notes", "", "Notes")
	f.StringVar(&userRef, "user", "", "Customer-role user who may sign in for this customer")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newUserCmd(app *App, flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "user",
		Aliases: []string{"users"},
		Short:   "Manage users",
	}
	cmd.AddCommand(newUserListCmd(app, flags), newUserCreateCmd(app, flags))
	return cmd
}

func newUserListCmd(app *App, flags *globalFlags) *cobra.Command {
	var role string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users (owner only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			caller, err := flags.caller(ctx, app)
			if err != nil {
				return err
			}
			users, err := app.Users.List(ctx, caller, domain.Role(role))
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatUsers(users))
			return nil
		},
	}

	cmd.Flags().StringVar(&role, "role", "", "Filter by role (owner, employee, customer)")

	return cmd
}

func newUserCreateCmd(app *App, flags *globalFlags) *cobra.Command {
	var u domain.User
	var role string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Add a user; without --as this bootstraps the first owner",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			u.Role = domain.Role(role)

			if strings.TrimSpace(flags.as) == "" {
				if err := app.Users.Bootstrap(ctx, &u); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created owner %s (%s)\n", formatter.Bold(u.Username), u.ID)
				return nil
			}

			caller, err := flags.caller(ctx, app)
			if err != nil {
				return err
			}
			if err := app.Users.Create(ctx, caller, &u); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s %s (%s)\n", u.Role, formatter.Bold(u.Username), u.ID)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&u.Username, "username", "", "Login name")
	f.StringVar(&u.Email, "email", "", "Email address")
	f.StringVar(&u.Name, "name", "", "Display name")
	f.StringVar(&u.Phone, "phone", "", "Phone number")
	f.StringVar(&role, "role", string(domain.RoleEmployee), "owner, employee or customer")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}
