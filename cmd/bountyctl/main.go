// Command bountyctl runs operator tasks against the DevBounty database.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/devbounty/backend/internal/config"
	"github.com/devbounty/backend/internal/db"
	"github.com/devbounty/backend/internal/events"
	"github.com/devbounty/backend/internal/repositories"
	"github.com/devbounty/backend/internal/services"
	"github.com/devbounty/backend/internal/telemetry"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Global flags
var (
	jsonOutput    bool
	dsn           string
	migrationsDir string
)

var rootCmd = &cobra.Command{
	Use:   "bountyctl",
	Short: "Operator tasks for the DevBounty backend",
	Long: `bountyctl runs maintenance tasks that the API does not expose.

Configuration is read from the environment (and .env) like the API server.

Examples:
  bountyctl migrate                       # Apply pending migrations
  bountyctl grant-admin ops@example.com   # Make a user an admin
  bountyctl sweep-expired --json          # Expire overdue claims and bounties
  bountyctl reconcile-payments            # Create missing payment records`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&dsn, "dsn", "", "Postgres DSN (default POSTGRES_DSN)")
	rootCmd.PersistentFlags().StringVar(&migrationsDir, "migrations-dir", "", "Read migrations from this directory instead of the embedded set")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(grantAdminCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(reconcileCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error: "+err.Error())
		stop()
		os.Exit(1)
	}
}

// env is what every command needs: configuration, a logger and the database.
type env struct {
	cfg   *config.Config
	log   *zap.Logger
	pool  *pgxpool.Pool
	store *repositories.PgStore
}

func connect(ctx context.Context) (*env, error) {
	cfg := config.Load()
	if dsn != "" {
		cfg.PostgresDSN = dsn
	}
	if migrationsDir != "" {
		cfg.MigrationsDir = migrationsDir
	}
	log := cfg.NewLogger()

	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	return &env{cfg: cfg, log: log, pool: pool, store: repositories.NewPgStore(pool)}, nil
}

func (e *env) close() {
	e.pool.Close()
	_ = e.log.Sync()
}

func (e *env) bountyService() *services.BountyService {
	return services.NewBountyService(e.store, events.NopPublisher{}, telemetry.NewMetrics(), e.cfg, e.log)
}

func printResult(text string, v any) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	fmt.Println(text)
	return nil
}
