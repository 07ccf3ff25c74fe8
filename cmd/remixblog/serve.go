// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Remixblog Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/remixblog/remixblog/internal/auth"
	authpg "github.com/remixblog/remixblog/internal/auth/postgres"
	"github.com/remixblog/remixblog/internal/blog"
	blogpg "github.com/remixblog/remixblog/internal/blog/postgres"
	"github.com/remixblog/remixblog/internal/config"
	"github.com/remixblog/remixblog/internal/logging"
	"github.com/remixblog/remixblog/internal/observability"
	"github.com/remixblog/remixblog/internal/session"
	"github.com/remixblog/remixblog/internal/store"
	"github.com/remixblog/remixblog/internal/web"
)

// shutdownTimeout bounds graceful shutdown of the HTTP servers.
const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the blog server",
		Long: `Start the blog HTTP server and the observability server
(metrics and health probes). Runs until interrupted.`,
		RunE: runServe,
	}

	cmd.Flags().String("listen_addr", ":8080", "HTTP listen address")
	cmd.Flags().String("metrics_addr", ":9090", "observability listen address")
	cmd.Flags().String("log_format", "json", "log format (json or text)")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}

	logging.SetDefault("remixblog", version, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if cfg.MigrateOnStart {
		migrator, err := store.NewMigrator(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		if err := migrator.Up(); err != nil {
			_ = migrator.Close()
			return err
		}
		if err := migrator.Close(); err != nil {
			return err
		}
		slog.Info("database migrations applied")
	}

	authSvc, err := auth.NewServiceWithLogger(
		authpg.NewUserRepository(pool), auth.NewBcryptHasher(), slog.Default())
	if err != nil {
		return err
	}

	postSvc, err := blog.NewServiceWithLogger(blogpg.NewPostRepository(pool), slog.Default())
	if err != nil {
		return err
	}

	codec, err := session.NewCodec(cfg.SessionSecrets, cfg.IsProduction())
	if err != nil {
		return err
	}

	obsServer := observability.NewServer(cfg.MetricsAddr, func() bool {
		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return pool.Ping(pingCtx) == nil
	})

	handlers, err := web.NewHandlersWithLogger(authSvc, postSvc, codec, obsServer.Metrics(), slog.Default())
	if err != nil {
		return err
	}

	webServer, err := web.NewServer(cfg.ListenAddr, handlers)
	if err != nil {
		return err
	}

	obsErrCh, err := obsServer.Start()
	if err != nil {
		return err
	}

	webErrCh, err := webServer.Start()
	if err != nil {
		stopServers(obsServer, nil)
		return err
	}

	slog.Info("remixblog started",
		"environment", cfg.Environment,
		"listen_addr", webServer.Addr(),
		"metrics_addr", obsServer.Addr())

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	case err := <-webErrCh:
		if err != nil {
			stopServers(obsServer, nil)
			return oops.With("server", "web").Wrap(err)
		}
	case err := <-obsErrCh:
		if err != nil {
			stopServers(nil, webServer)
			return oops.With("server", "observability").Wrap(err)
		}
	}

	return stopServers(obsServer, webServer)
}

// stopServers shuts down both servers, returning the first error. Nil
// servers are skipped.
func stopServers(obs *observability.Server, webSrv *web.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var firstErr error
	if webSrv != nil {
		if err := webSrv.Stop(ctx); err != nil {
			firstErr = err
		}
	}
	if obs != nil {
		if err := obs.Stop(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
