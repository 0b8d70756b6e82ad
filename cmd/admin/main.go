// Command admin manages superusers and staff from the command line.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"inkwell/internal/auth"
	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/models"
	"inkwell/internal/repository"
	"inkwell/internal/service"

	"github.com/spf13/cobra"
)

// userAdmin is the part of service.UserService the CLI drives.
type userAdmin interface {
	CreateSuperuser(ctx context.Context, in service.SuperuserInput) (*models.User, error)
	SetStaff(ctx context.Context, username string, staff bool) (*models.User, error)
	ListStaff(ctx context.Context) ([]models.User, error)
}

func main() {
	root := newRootCmd(connect)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func connect() (userAdmin, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	return service.NewUserService(repository.NewUserRepository(db), auth.NewTokenService(cfg)), nil
}

// newRootCmd wires the subcommands. open runs only once a subcommand is about
// to execute, so --help works without a database.
func newRootCmd(open func() (userAdmin, error)) *cobra.Command {
	var users userAdmin

	root := &cobra.Command{
		Use:           "admin",
		Short:         "Inkwell administration",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			users, err = open()
			return err
		},
	}

	var username, email, password string
	createSuperuser := &cobra.Command{
		Use:   "createsuperuser",
		Short: "Create an active staff superuser",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := users.CreateSuperuser(cmd.Context(), service.SuperuserInput{
				Username: username,
				Email:    email,
				Password: password,
			})
			if err != nil {
				return fmt.Errorf("create superuser: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created superuser %s (ID: %d)\n", user.Username, user.ID)
			return nil
		},
	}
	createSuperuser.Flags().StringVar(&username, "username", "", "username")
	createSuperuser.Flags().StringVar(&email, "email", "", "email address")
	createSuperuser.Flags().StringVar(&password, "password", os.Getenv("INKWELL_SUPERUSER_PASSWORD"),
		"password (defaults to INKWELL_SUPERUSER_PASSWORD)")
	_ = createSuperuser.MarkFlagRequired("username")
	_ = createSuperuser.MarkFlagRequired("email")

	root.AddCommand(
		createSuperuser,
		staffCmd("promote-staff", "Grant staff status", true, &users),
		staffCmd("demote-staff", "Revoke staff status", false, &users),
		&cobra.Command{
			Use:   "list-staff",
			Short: "List staff users",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				staff, err := users.ListStaff(cmd.Context())
				if err != nil {
					return fmt.Errorf("list staff: %w", err)
				}
				return printStaff(cmd.OutOrStdout(), staff)
			},
		},
	)
	return root
}

func staffCmd(use, short string, staff bool, users *userAdmin) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <username>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := (*users).SetStaff(cmd.Context(), args[0], staff)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (ID: %d) is_staff=%t\n", user.Username, user.ID, user.IsStaff)
			return nil
		},
	}
}

func printStaff(out io.Writer, staff []models.User) error {
	if len(staff) == 0 {
		_, err := fmt.Fprintln(out, "No staff users found")
		return err
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSERNAME\tEMAIL\tSUPERUSER")
	for _, u := range staff {
		fmt.Fprintf(w, "%d\t%s\t%s\t%t\n", u.ID, u.Username, u.Email, u.IsSuperuser)
	}
	return w.Flush()
}
