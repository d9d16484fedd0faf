// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// maintenance_log.go records the per-record outcomes of maintenance runs
// (dedup, cleanup, logo changes) so operators can audit what a run did
// after the fact.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// MaintenanceLogStore handles maintenance log operations.
type MaintenanceLogStore struct {
	db *sql.DB
}

// NewMaintenanceLogStore creates a new MaintenanceLogStore.
func NewMaintenanceLogStore(db *sql.DB) *MaintenanceLogStore {
	return &MaintenanceLogStore{db: db}
}

// Log records one maintenance outcome. Logging is best-effort: failures
// are reported through the application log and otherwise ignored.
func (s *MaintenanceLogStore) Log(ctx context.Context, operation, target, status, reason string) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO maintenance_log (operation, target, status, reason)
		VALUES ($1, $2, $3, $4)
	`, operation, target, status, reason)
	if err != nil {
		log.Warn().Err(err).
			Str("operation", operation).
			Str("target", target).
			Str("status", status).
			Msg("failed to record maintenance outcome")
		return
	}
	log.Debug().
		Str("operation", operation).
		Str("target", target).
		Str("status", status).
		Msg("maintenance outcome recorded")
}

// Recent returns the most recent maintenance entries, newest first.
func (s *MaintenanceLogStore) Recent(ctx context.Context, limit int) ([]MaintenanceLogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, operation, target, status, reason, created_at
		FROM maintenance_log
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query maintenance log: %w", err)
	}
	defer rows.Close()

	var entries []MaintenanceLogEntry
	for rows.Next() {
		var e MaintenanceLogEntry
		if err := rows.Scan(&e.ID, &e.Operation, &e.Target, &e.Status, &e.Reason, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan maintenance log: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// MaintenanceLogEntry represents a single recorded outcome.
type MaintenanceLogEntry struct {
	ID        uuid.UUID `json:"id"`
	Operation string    `json:"operation"`
	Target    string    `json:"target"`
	Status    string    `json:"status"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}
