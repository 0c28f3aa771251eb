package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"petshop/internal/config"
	applog "petshop/internal/log"
	"petshop/internal/repos"
	"petshop/internal/server"

	"github.com/jmoiron/sqlx"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	app := &cli.App{
		Name:  "petshop",
		Usage: "pet store storefront",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "start http server",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "apply database migrations",
				Action: migrate,
			},
			{
				Name:   "seed",
				Usage:  "insert demo accounts and catalog",
				Action: seed,
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		applog.L().Fatal().Err(err).Msg("petshop exited")
	}
}

// setup loads config, installs the logger and opens the migrated database.
func setup(ctx context.Context) (config.Config, *sqlx.DB, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, nil, nil, err
	}
	logCloser, err := applog.Setup(applog.Options{
		Service: "petshop",
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		File:    cfg.LogFile,
	})
	if err != nil {
		return cfg, nil, nil, fmt.Errorf("log setup: %w", err)
	}
	db, err := repos.OpenDB(ctx, repos.Options{DSN: cfg.DBDSN, MaxOpenConns: cfg.DBMaxOpenConns})
	if err != nil {
		_ = logCloser.Close()
		return cfg, nil, nil, err
	}
	cleanup := func() {
		_ = db.Close()
		_ = logCloser.Close()
	}
	return cfg, db, cleanup, nil
}

func migrate(c *cli.Context) error {
	_, _, cleanup, err := setup(c.Context)
	if err != nil {
		return err
	}
	defer cleanup()
	applog.L().Info().Msg("migrations applied")
	return nil
}

func seed(c *cli.Context) error {
	_, db, cleanup, err := setup(c.Context)
	if err != nil {
		return err
	}
	defer cleanup()
	if err := repos.Seed(c.Context, db); err != nil {
		return err
	}
	applog.L().Info().Msg("seed data loaded")
	return nil
}

func serve(c *cli.Context) error {
	cfg, db, cleanup, err := setup(c.Context)
	if err != nil {
		return err
	}
	defer cleanup()

	if cfg.SeedOnStart {
		if err := repos.Seed(c.Context, db); err != nil {
			return err
		}
	}

	app, err := server.New(c.Context, cfg, db)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			applog.L().Error().Err(err).Msg("closing app resources")
		}
	}()

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		applog.L().Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		return app.Listen(":" + cfg.Port)
	})
	eg.Go(func() error {
		<-ctx.Done()
		applog.L().Info().Msg("server stopping")
		shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return app.Shutdown(shutCtx)
	})

	if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	applog.L().Info().Msg("server stopped")
	return nil
}
