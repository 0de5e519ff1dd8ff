/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Command crudgrid-server serves the customer and group grids.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomoncle/crudgrid/config"
	"github.com/tomoncle/crudgrid/database"
	"github.com/tomoncle/crudgrid/i18n"
	"github.com/tomoncle/crudgrid/metrics"
	"github.com/tomoncle/crudgrid/router"
	"github.com/tomoncle/crudgrid/utils"
)

func main() {
	configPath := flag.String("config", "", "config file or directory")
	flag.Parse()

	log := utils.NewLogger("SERVER")
	if err := run(*configPath); err != nil {
		log.WithError(err).Error("Server stopped")
		os.Exit(1)
	}
}

func run(configPath string) error {
	var paths []string
	if configPath != "" {
		paths = append(paths, configPath)
	}
	cfg, err := config.Load(paths...)
	if err != nil {
		return err
	}

	utils.ConfigureLogLevel(cfg.Logging.Level)
	utils.ConfigureLogFormat(cfg.Logging.Format)
	log := utils.NewLogger("SERVER")
	database.InitLogger(database.NewDefaultLogger("DATABASE"))
	database.EnableBunSqlSilent(utils.EnvDefaultBool("BUN_SQL_SILENT", false))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.InitDB(ctx, &cfg.Database)
	if err != nil {
		return err
	}
	defer func() { _ = database.CloseDB() }()

	catalog := i18n.Default(cfg.Locale.Default)
	if cfg.Locale.Dir != "" {
		if err := catalog.LoadFS(os.DirFS(cfg.Locale.Dir), "."); err != nil {
			return err
		}
	}

	opts := []router.Option{router.WithHealth(database.GetHealthStatus)}
	if cfg.Metrics.Enabled {
		opts = append(opts, router.WithMetrics(metrics.NewMetrics(cfg.Metrics.Namespace, nil)))
	}
	r := router.New(opts...)

	r.Register(customers(db, catalog))
	r.Register(groups(db, catalog))

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("address", srv.Addr).Info("HTTP server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("HTTP server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
