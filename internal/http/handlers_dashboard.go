package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"finboard/internal/log"
)

// handleDashboard renders the page shell; the grid loads through /ui/accounts.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "dashboard_page", nil)
}

// handleAccountsGrid renders the account cards partial. Provider failures
// render the static fallback instead.
func (s *Server) handleAccountsGrid(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), providerTimeout)
	defer cancel()

	accounts, err := s.svc.ListAccounts(ctx)
	if err != nil {
		log.LogError(r.Context(), "Failed to list accounts", err, log.OpList, nil)
		FallbackResponse("accounts").Write(w)
		return
	}

	log.FromContext(r.Context()).DebugContext(r.Context(), "Accounts listed", log.FieldCount, len(accounts))
	s.render(w, r, http.StatusOK, "accounts_grid", newAccountCards(accounts))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": s.clock().Format(time.RFC3339),
		"uptime":    s.clock().Sub(s.started).Round(time.Second).String(),
	})
}

// handleReady checks the ledger backend: Ping when available, otherwise a
// (cached) account listing.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), providerTimeout)
	defer cancel()

	status, code := "ready", http.StatusOK
	checks := map[string]string{"templates": "ok"}

	var err error
	if s.pinger != nil {
		err = s.pinger.Ping(ctx)
	} else {
		_, err = s.svc.ListAccounts(ctx)
	}
	if err != nil {
		checks["ledger"] = "failed: " + err.Error()
		status, code = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["ledger"] = "ok"
	}

	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": s.clock().Format(time.RFC3339),
		"checks":    checks,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
