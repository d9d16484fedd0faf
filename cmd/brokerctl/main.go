// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package main is brokerctl, the operator CLI for BrokerScope maintenance:
// migrations, seeding, duplicate removal, cleanup and logo changes.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"brokerscope/internal/cache"
	"brokerscope/internal/config"
	"brokerscope/internal/database"
	"brokerscope/internal/logging"
	"brokerscope/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{}
	err := newRootCmd(a).ExecuteContext(ctx)
	a.close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// app holds the resources shared by subcommands, opened on first use.
type app struct {
	cfg *config.Config
	db  *sql.DB
}

// open loads configuration and connects to PostgreSQL.
func (a *app) open() error {
	if a.db != nil {
		return nil
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	logging.Setup(cfg.Env, cfg.LogLevel)

	db, err := database.Connect(cfg.DSN())
	if err != nil {
		return err
	}
	a.cfg, a.db = cfg, db
	return nil
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
}

// maintenanceLog records per-record outcomes for later audit.
func (a *app) maintenanceLog() *store.MaintenanceLogStore {
	return store.NewMaintenanceLogStore(a.db)
}

// invalidateCache clears the API response cache after a data change. An
// unreachable Valkey only warns: cached entries expire on their own.
func (a *app) invalidateCache(ctx context.Context) {
	client, err := cache.ConnectValkey(a.cfg.ValkeyHost, a.cfg.ValkeyPort, a.cfg.ValkeyPassword)
	if err != nil {
		log.Warn().Err(err).Msg("valkey unavailable, cached responses expire on their own")
		return
	}
	defer client.Close()
	n := cache.NewResponseCache(client, a.cfg.CacheTTL).InvalidateAll(ctx)
	log.Info().Int("keys", n).Msg("response cache invalidated")
}

// errFailures is returned under --strict when some records failed.
var errFailures = errors.New("some operations failed")

// strictResult turns a failure count into the command's error.
func strictResult(failed int, strict bool) error {
	if strict && failed > 0 {
		return fmt.Errorf("%w: %d", errFailures, failed)
	}
	return nil
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "brokerctl",
		Short: "BrokerScope maintenance CLI",
		Long: `Maintenance commands for the BrokerScope database.

Configuration is read from the environment and the optional env file
(ENV_FILE, default .env.local), exactly as the server reads it.

Examples:
  brokerctl migrate
  brokerctl seed --file brokers.yaml
  brokerctl dedup              # show what would be deleted
  brokerctl dedup --apply      # delete duplicates
  brokerctl cleanup --name "Scam FX" --name "Other"
  brokerctl logo set acme https://cdn.example.com/acme.png
  brokerctl logo upload acme ./acme.png
`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		migrateCmd(a),
		seedCmd(a),
		dedupCmd(a),
		cleanupCmd(a),
		logoCmd(a),
		historyCmd(a),
	)
	return root
}

func migrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.open(); err != nil {
				return err
			}
			return database.Migrate(a.db)
		},
	}
}
