package cli

import (
	"errors"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"quiz-admin-service/internal/app"
	"quiz-admin-service/internal/config"
	"quiz-admin-service/internal/domain"
)

// NewRecomputeCmd rebuilds every result from the stored attempts.
func NewRecomputeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "recompute-results",
		Short: "Rebuild every result's score and attempt list from stored attempts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			d, err := buildDeps(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer d.Close()

			n, err := d.services.Results.Recompute(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "recomputed %d results\n", n)
			return nil
		},
	}
}

// NewCreateAdminCmd bootstraps an administrator account.
func NewCreateAdminCmd(configPath *string) *cobra.Command {
	var username, password, department string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return errors.New("create-admin needs postgres.url; the in-memory store does not outlive this command")
			}
			if err := runMigrationsWithConfig(cmd.Context(), cfg); err != nil {
				return err
			}
			d, err := buildDeps(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer d.Close()

			user, err := d.services.Users.Register(cmd.Context(), app.NewUser{
				Username:   username,
				Password:   password,
				Role:       domain.RoleAdmin,
				Department: department,
			})
			if err != nil {
				return err
			}
			log.Printf("created admin %s (%s)", user.Username, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "admin user name")
	cmd.Flags().StringVar(&password, "password", "", "admin password")
	cmd.Flags().StringVar(&department, "department", "", "admin department")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
