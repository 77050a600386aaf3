// Command ticketctl runs operator tasks against the support desk database.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/cache"
	"github.com/spec-kit/support-desk/internal/config"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/observability"
	"github.com/spec-kit/support-desk/internal/persistence"
	"github.com/spec-kit/support-desk/internal/service"
	"github.com/spec-kit/support-desk/migrations"
)

func main() {
	if err := newRootCmd(openDatabase).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// database is an open connection plus everything built on top of it.
type database struct {
	pg     *persistence.Postgres
	redis  *persistence.Redis
	stores persistence.Stores
	cfg    *config.Config
	logger *zap.Logger
}

func (d *database) Close() {
	d.pg.Close()
	d.redis.Close()
	_ = d.logger.Sync()
}

type opener func(ctx context.Context) (*database, error)

func openDatabase(ctx context.Context) (*database, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.Postgres.DSN == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}
	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		return nil, err
	}
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, err
	}
	return &database{
		pg:     pg,
		redis:  persistence.NewRedis(ctx, cfg.Redis, logger),
		stores: persistence.NewStores(pg),
		cfg:    cfg,
		logger: logger,
	}, nil
}

func newRootCmd(open opener) *cobra.Command {
	root := &cobra.Command{
		Use:           "ticketctl",
		Short:         "Operator tooling for the support desk",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newMigrateCmd(open), newUserCmd(open))
	return root
}

func newMigrateCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			applied, err := persistence.RunMigrations(cmd.Context(), db.pg.Pool, migrations.FS, db.logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d migrations\n", applied)
			return nil
		},
	}
}

func newUserCmd(open opener) *cobra.Command {
	user := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}

	var input service.CreateUserInput
	var role string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an account of any role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			input.Role = domain.Role(strings.ToLower(strings.TrimSpace(role)))
			tokens := auth.NewTokenManager(db.cfg.Auth.JWTSecret, db.cfg.Auth.AccessTokenTTL)
			created, err := service.NewAuthService(db.cfg.Auth, db.stores.Users, tokens).CreateUser(cmd.Context(), input)
			if err != nil {
				return err
			}
			if created.Role != domain.RoleClient && db.redis != nil {
				// the consultant directory is cached; drop it so the new account shows up
				if err := cache.NewConsultantCache(db.redis.Client, 0).Invalidate(cmd.Context()); err != nil {
					db.logger.Warn("directory cache not invalidated", zap.Error(err))
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", created.ID)
			return nil
		},
	}
	create.Flags().StringVar(&input.Email, "email", "", "login email")
	create.Flags().StringVar(&input.FullName, "name", "", "display name")
	create.Flags().StringVar(&input.Password, "password", "", "initial password")
	create.Flags().StringVar(&role, "role", "consultant", "client, consultant or admin")
	_ = create.MarkFlagRequired("email")
	_ = create.MarkFlagRequired("name")
	_ = create.MarkFlagRequired("password")

	user.AddCommand(create)
	return user
}
