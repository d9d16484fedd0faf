package handlers

import (
	"errors"
	"net/http"
	"strings"

	"brokerscope/internal/regulator"
	"brokerscope/internal/websearch"
)

// MarketNews handles GET /api/market-news. Without a configured provider
// it answers with an empty, unconfigured feed rather than an error.
func (p *Public) MarketNews(w http.ResponseWriter, r *http.Request) {
	if p.Search == nil || !p.Search.NewsConfigured() {
		writeJSON(w, http.StatusOK, map[string]any{"configured": false, "items": []websearch.NewsItem{}})
		return
	}
	limit, err := intParam(r.URL.Query(), "limit", 10, 1, 50)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, err := p.Search.News(r.Context(), strings.TrimSpace(r.URL.Query().Get("topic")), limit)
	if err != nil {
		writeUpstreamError(w, r, "fetch market news", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"configured": true, "items": items})
}

type verifyBrokerRequest struct {
	Name    string `json:"name" validate:"required,max=200"`
	Website string `json:"website" validate:"omitempty,max=500"`
}

// VerifyBroker handles POST /api/verify-broker.
func (p *Public) VerifyBroker(w http.ResponseWriter, r *http.Request) {
	var req verifyBrokerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if msg := validateStruct(req); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if p.Search == nil || !p.Search.SearchConfigured() {
		writeError(w, http.StatusServiceUnavailable, "web search is not configured")
		return
	}

	v, err := p.Search.VerifyBroker(r.Context(), req.Name, req.Website)
	if err != nil {
		writeUpstreamError(w, r, "verify broker", err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

type verifyRegulationRequest struct {
	BrokerName string `json:"broker_name" validate:"required,max=200"`
	Regulator  string `json:"regulator" validate:"required"`
}

// VerifyRegulation handles POST /api/verify-regulation.
func (p *Public) VerifyRegulation(w http.ResponseWriter, r *http.Request) {
	var req verifyRegulationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.BrokerName = strings.TrimSpace(req.BrokerName)
	if msg := validateStruct(req); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	reg, err := regulator.Parse(req.Regulator)
	if err != nil {
		writeError(w, http.StatusBadRequest, "regulator must be one of: fca, cysec, asic")
		return
	}

	res, err := p.Registers.Lookup(r.Context(), reg, req.BrokerName)
	if errors.Is(err, regulator.ErrUnknownRegulator) {
		writeError(w, http.StatusServiceUnavailable, "register lookup is not configured for "+string(reg))
		return
	}
	if err != nil {
		writeUpstreamError(w, r, "verify regulation", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// writeUpstreamError reports a failed outbound call as 502.
func writeUpstreamError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if ctxErr := r.Context().Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		writeError(w, http.StatusGatewayTimeout, "upstream request cancelled")
		return
	}
	logUpstream(r, op, err)
	writeError(w, http.StatusBadGateway, "upstream provider unavailable")
}
