package main

import (
	"fmt"

	"github.com/devbounty/backend/internal/db"
	"github.com/devbounty/backend/internal/services"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer e.close()

		if err := db.RunMigrations(cmd.Context(), e.pool, db.MigrationsFS(e.cfg.MigrationsDir), e.log); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		return printResult("migrations applied", map[string]any{"ok": true})
	},
}

var revokeAdmin bool

var grantAdminCmd = &cobra.Command{
	Use:   "grant-admin <email>",
	Short: "Grant (or with --revoke, remove) admin rights for a registered user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer e.close()

		authService := services.NewAuthService(e.store, e.cfg, e.log)
		if err := authService.GrantAdmin(cmd.Context(), args[0], !revokeAdmin); err != nil {
			return fmt.Errorf("grant-admin: %s", services.Message(err))
		}
		verb := "granted"
		if revokeAdmin {
			verb = "revoked"
		}
		return printResult(fmt.Sprintf("admin %s for %s", verb, args[0]),
			map[string]any{"email": args[0], "admin": !revokeAdmin})
	},
}

func init() {
	grantAdminCmd.Flags().BoolVar(&revokeAdmin, "revoke", false, "Remove admin rights instead of granting them")
}

var sweepCmd = &cobra.Command{
	Use:   "sweep-expired",
	Short: "Expire overdue claims and bounties past their expiry",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer e.close()

		res, err := e.bountyService().SweepExpired(cmd.Context())
		if err != nil {
			return fmt.Errorf("sweep-expired: %w", err)
		}
		return printResult(fmt.Sprintf("expired %d claims, %d bounties", res.ExpiredClaims, res.ExpiredBounties), res)
	},
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile-payments",
	Short: "Create payment records missing for approved claims",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer e.close()

		created, err := e.bountyService().ReconcilePayments(cmd.Context())
		if err != nil {
			return fmt.Errorf("reconcile-payments: %w", err)
		}
		return printResult(fmt.Sprintf("created %d payment records", created), map[string]any{"created": created})
	},
}
