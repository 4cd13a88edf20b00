package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/educanvas/salary-engine/api"
	"github.com/educanvas/salary-engine/config"
	"github.com/educanvas/salary-engine/salary"
	"github.com/educanvas/salary-engine/salary/store"
	"github.com/educanvas/salary-engine/store/sqlite"
)

var (
	servePort int
	serveDB   string
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the salary API server",
	Long: `Start the HTTP API.

--db overrides the configured store: ":memory:" selects the in-memory store,
any other value is a SQLite database path.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if cmd.Flags().Changed("port") {
			cfg.Server.Port = servePort
		}
		if cmd.Flags().Changed("db") {
			cfg.Store.Driver, cfg.Store.Path = config.DriverSQLite, serveDB
			if serveDB == ":memory:" {
				cfg.Store.Driver = config.DriverMemory
			}
		}

		st, closeStore, err := openStore(cfg.Store)
		if err != nil {
			return err
		}
		defer closeStore()

		logger := zap.L()
		handler := api.NewHandler(st, logger, cfg.Engine.DefaultTenant)
		server := &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:      api.NewRouter(handler, cfg.CORS.AllowedOrigins),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			logger.Info("server starting",
				zap.Int("port", cfg.Server.Port),
				zap.String("store", cfg.Store.Driver),
				zap.String("default_tenant", cfg.Engine.DefaultTenant),
			)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return eris.Wrap(err, "serve: listen")
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			logger.Info("shutting down server")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return eris.Wrap(err, "serve: shutdown")
			}
			return nil
		})

		if err := g.Wait(); err != nil {
			return err
		}
		logger.Info("server stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "HTTP server port")
	serveCmd.Flags().StringVar(&serveDB, "db", "salary.db", `SQLite database path (":memory:" for the in-memory store)`)
}

// openStore returns the configured store and a function that releases it.
func openStore(sc config.StoreConfig) (salary.Store, func(), error) {
	if sc.Driver == config.DriverMemory {
		return store.NewMemory(), func() {}, nil
	}

	db, err := sqlite.New(sc.Path)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "serve: open sqlite store %s", sc.Path)
	}
	return db, func() {
		if err := db.Close(); err != nil {
			zap.L().Warn("failed to close store", zap.Error(err))
		}
	}, nil
}
