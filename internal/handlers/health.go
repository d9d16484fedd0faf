package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// healthTimeout bounds the dependency checks of the health endpoint.
const healthTimeout = 3 * time.Second

// Health handles GET /api/health. The database is required; the cache is
// reported but never fails the check.
func (p *Public) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	body := map[string]string{"status": "ok", "database": "ok", "cache": "disabled"}
	status := http.StatusOK

	if err := p.DB.PingContext(ctx); err != nil {
		log.Error().Err(err).Msg("health check: database unreachable")
		body["status"] = "unavailable"
		body["database"] = "unreachable"
		status = http.StatusServiceUnavailable
	}

	if p.Cache != nil {
		enabled, err := p.Cache.Ping(ctx)
		switch {
		case err != nil:
			log.Warn().Err(err).Msg("health check: cache unreachable")
			body["cache"] = "unreachable"
		case enabled:
			body["cache"] = "ok"
		}
	}

	writeJSON(w, status, body)
}
