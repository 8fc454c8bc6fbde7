package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/example/clubhouse/internal/application"
	"github.com/example/clubhouse/internal/permission"
)

func newUsersCmd(flags *rootFlags) *cobra.Command {
	users := &cobra.Command{
		Use:   "users",
		Short: "Operator user management",
	}
	users.AddCommand(newGrantCmd(flags))
	return users
}

func newGrantCmd(flags *rootFlags) *cobra.Command {
	var (
		subject string
		name    string
		email   string
		level   int
	)
	cmd := &cobra.Command{
		Use:   "grant",
		Short: "Create or update the user for an identity subject with a permission level",
		Long: "grant bypasses the API's permission checks. Use it to bootstrap the first " +
			"super admin (level 3) before anyone can sign in.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			parsed, err := permission.ParseLevel(level)
			if err != nil {
				return err
			}

			e, err := flags.open(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.close()

			svc := application.NewUserServiceWithLogger(e.storage, e.storage, uuid.NewString, time.Now, e.logger)
			user, err := svc.GrantLevel(cmd.Context(), application.UserInput{
				Subject:     subject,
				Email:       email,
				DisplayName: name,
				Level:       parsed,
			})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) is now %s\n", user.DisplayName, user.ID, user.Level)
			return err
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "identity provider subject (required)")
	cmd.Flags().StringVar(&name, "name", "", "display name; defaults to the subject")
	cmd.Flags().StringVar(&email, "email", "", "contact email")
	cmd.Flags().IntVar(&level, "level", int(permission.SuperAdmin), "permission level: 1 admin, 2 regular, 3 super admin, 4 limited")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
