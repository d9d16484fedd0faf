// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package dedup

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"brokerscope/internal/metrics"
	"brokerscope/internal/models"
)

// NameLister returns brokers whose normalized name is one of names.
type NameLister interface {
	ListByNormalizedName(ctx context.Context, names []string) ([]models.Broker, error)
}

// CleanupStore is what Cleanup needs.
type CleanupStore interface {
	NameLister
	Deleter
}

// Cleanup deletes every broker whose normalized name matches one of names,
// one record at a time. Like Apply, a failed deletion is recorded and the
// run continues. Names that match nothing yield no outcome.
func Cleanup(ctx context.Context, s CleanupStore, names []string) ([]Outcome, error) {
	brokers, err := s.ListByNormalizedName(ctx, names)
	if err != nil {
		return nil, fmt.Errorf("list brokers to clean up: %w", err)
	}

	outcomes := make([]Outcome, 0, len(brokers))
	for _, b := range brokers {
		o := Outcome{ID: b.ID, Name: b.Name, Status: StatusSuccess}
		if err := ctx.Err(); err != nil {
			o.Status, o.Reason = StatusFailure, err.Error()
		} else if found, err := s.Delete(ctx, b.ID); err != nil {
			o.Status, o.Reason = StatusFailure, err.Error()
		} else if !found {
			o.Status, o.Reason = StatusFailure, "not found"
		}

		ev := log.Info()
		if o.Status == StatusFailure {
			ev = log.Warn().Str("reason", o.Reason)
		}
		ev.Str("broker_id", b.ID.String()).
			Str("name", b.Name).
			Str("status", string(o.Status)).
			Msg("cleanup delete")
		metrics.ObserveMaintenance("cleanup", string(o.Status))

		outcomes = append(outcomes, o)
	}
	return outcomes, nil
}
