// Command parishctl manages administrator accounts and publishes content
// from the command line.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"parish-site/internal/auth"
	"parish-site/internal/config"
	"parish-site/internal/db"
	"parish-site/internal/observability"
)

var rootCmd = &cobra.Command{
	Use:           "parishctl",
	Short:         "Administer the parish site",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var loadDotEnv bool

func init() {
	rootCmd.PersistentFlags().BoolVar(&loadDotEnv, "dotenv", true, "load variables from .env in the working directory")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// adminDirectory is the Credential Store plus the listing the CLI needs.
type adminDirectory interface {
	auth.AdminStore
	List(ctx context.Context) ([]auth.Admin, error)
}

// adminEnv is what the admin subcommands need: a service backed by the
// store and a way to release it.
type adminEnv struct {
	cfg     *config.Config
	store   adminDirectory
	service *auth.Service
	close   func()
}

// openAdminEnv is swapped in tests.
var openAdminEnv = openDatabaseAdminEnv

func openDatabaseAdminEnv(ctx context.Context) (*adminEnv, error) {
	cfg, err := config.Load(config.Options{LoadDotEnv: loadDotEnv})
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, db.PoolOptions{MaxConns: 2})
	if err != nil {
		return nil, err
	}
	if cfg.RunMigrations {
		if err := db.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	return newAdminEnv(cfg, auth.NewRepository(pool), pool.Close), nil
}

func newAdminEnv(cfg *config.Config, store adminDirectory, closeFn func()) *adminEnv {
	service := auth.NewService(
		store,
		auth.NewPasswordHasher(cfg.BcryptCost),
		auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL, nil),
		observability.NewNopLogger(),
		nil,
	)

	return &adminEnv{cfg: cfg, store: store, service: service, close: closeFn}
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}
