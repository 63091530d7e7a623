package http

import (
	"bytes"
	"context"
	"errors"
	"net/http"

	"finboard/internal/core"
	"finboard/internal/ledger"
	"finboard/internal/log"
	"finboard/internal/period"

	"golang.org/x/sync/errgroup"
)

// accountOverview fetches the account and its period overview concurrently.
func (s *Server) accountOverview(ctx context.Context, id string, key period.RangeKey) (core.Account, period.Result, error) {
	var (
		account core.Account
		res     period.Result
	)
	now := s.now()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		account, err = s.svc.GetAccount(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		res, err = s.svc.Overview(gctx, id, key, now)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.Account{}, period.Result{}, err
	}
	return account, res, nil
}

// requestRange resolves ?range, logging a warning when an unknown key falls back.
func (s *Server) requestRange(r *http.Request) period.RangeKey {
	key, raw, ok := rangeParam(r, s.defaultRange)
	if !ok {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Unknown range, using default",
			log.FieldRange, raw, "default", string(key))
	}
	return key
}

func (s *Server) logOverview(r *http.Request, id string, res period.Result) {
	fields := log.NewFields().WithAccount(id).WithRange(string(res.Range.Key))
	fields[log.FieldBuckets] = len(res.Buckets)
	log.FromContext(r.Context()).DebugContext(r.Context(), "Overview aggregated", fields.ToSlice()...)
}

type accountPage struct {
	Account      accountCard
	Overview     overviewView
	Transactions []transactionRow
}

// handleAccountPage renders the header, overview card and transactions table.
func (s *Server) handleAccountPage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), providerTimeout)
	defer cancel()

	id := accountIDParam(r)
	key := s.requestRange(r)

	account, res, err := s.accountOverview(ctx, id, key)
	if err != nil {
		s.pageError(w, r, id, err)
		return
	}
	set, err := s.svc.Snapshot(ctx, id)
	if err != nil {
		s.pageError(w, r, id, err)
		return
	}
	s.logOverview(r, id, res)

	s.render(w, r, http.StatusOK, "account_page", accountPage{
		Account:      newAccountCard(account),
		Overview:     newOverviewView(id, res),
		Transactions: newTransactionRows(set.Transactions),
	})
}

func (s *Server) pageError(w http.ResponseWriter, r *http.Request, id string, err error) {
	if errors.Is(err, ledger.ErrAccountNotFound) {
		s.render(w, r, http.StatusNotFound, "not_found_page", nil)
		return
	}
	log.LogError(r.Context(), "Failed to load account", err, log.OpRead,
		log.NewFields().WithAccount(id))
	s.render(w, r, http.StatusInternalServerError, "error_page", nil)
}

// handleOverviewPartial re-renders the overview card for another range.
func (s *Server) handleOverviewPartial(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), providerTimeout)
	defer cancel()

	id := accountIDParam(r)
	key := s.requestRange(r)

	_, res, err := s.accountOverview(ctx, id, key)
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			NotFoundError("Account not found").Write(w)
			return
		}
		log.LogError(r.Context(), "Failed to load overview", err, log.OpAggregate,
			log.NewFields().WithAccount(id).WithRange(string(key)))
		FallbackResponse("overview").Write(w)
		return
	}
	s.logOverview(r, id, res)

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "overview_partial", newOverviewView(id, res)); err != nil {
		log.LogError(r.Context(), "Template execution failed", err, log.OpRender, nil)
		FallbackResponse("overview").Status(http.StatusInternalServerError).Write(w)
		return
	}
	NewHTMXResponse().
		TriggerRangeChanged(id, string(res.Range.Key)).
		BodyHTML(buf.String()).
		Write(w)
}

// handleChart serves the income/expense bar chart as SVG.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), providerTimeout)
	defer cancel()

	id := accountIDParam(r)
	key := s.requestRange(r)

	_, res, err := s.accountOverview(ctx, id, key)
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			http.NotFound(w, r)
			return
		}
		log.LogError(r.Context(), "Failed to load chart data", err, log.OpAggregate,
			log.NewFields().WithAccount(id).WithRange(string(key)))
		http.Error(w, "Something went wrong", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := renderChart(&buf, res, chartWidth, chartHeight); err != nil {
		log.LogError(r.Context(), "Failed to render chart", err, log.OpRender,
			log.NewFields().WithAccount(id).WithRange(string(key)))
		http.Error(w, "Something went wrong", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "private, max-age=60")
	_, _ = buf.WriteTo(w)
}

// handleOverviewJSON serves the overview for external chart clients.
func (s *Server) handleOverviewJSON(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), providerTimeout)
	defer cancel()

	id := accountIDParam(r)
	key := s.requestRange(r)

	_, res, err := s.accountOverview(ctx, id, key)
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "account not found"})
			return
		}
		log.LogError(r.Context(), "Failed to load overview", err, log.OpAggregate,
			log.NewFields().WithAccount(id).WithRange(string(key)))
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "ledger unavailable"})
		return
	}
	s.logOverview(r, id, res)
	writeJSON(w, http.StatusOK, newOverviewJSON(res))
}
