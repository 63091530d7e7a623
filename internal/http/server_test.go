package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"finboard/internal/core"
	"finboard/internal/ledger"
	"finboard/internal/ledger/memory"
	"finboard/internal/log"
	"finboard/internal/period"
	"finboard/internal/services"
)

var fixedNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func seededStore(t *testing.T) *memory.Store {
	t.Helper()
	doc := ledger.Document{
		Accounts: []ledger.AccountRecord{
			{ID: "acc-1", Name: "Main", Type: "current", Balance: core.AmountOf(100)},
			{ID: "acc-2", Name: "Savings", Type: "savings", Balance: core.AmountOf("1500.5")},
		},
		Transactions: []ledger.TransactionRecord{
			{ID: "t1", AccountID: "acc-1", Date: core.At(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)), Description: "Salary March", Category: "Salary", Amount: core.AmountOf(100), Type: "INCOME"},
			{ID: "t2", AccountID: "acc-1", Date: core.At(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)), Category: "Food", Amount: core.AmountOf(40), Type: "EXPENSE"},
			{ID: "t3", AccountID: "acc-1", Date: core.At(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)), Description: "Groceries", Category: "Food", Amount: core.AmountOf("20"), Type: "EXPENSE"},
		},
	}
	store := memory.New()
	_, err := services.NewImportService(store, nil, nil).Import(context.Background(), doc)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return store
}

func quietLogger() *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Output = &bytes.Buffer{}
	cfg.Component = log.ComponentHTTP
	return log.New(cfg)
}

func newTestServer(t *testing.T, svc OverviewReader, pinger Pinger) *Server {
	t.Helper()
	srv, err := NewServer(":0", svc, Options{
		Logger:   quietLogger(),
		Pinger:   pinger,
		Location: time.UTC,
		Now:      func() time.Time { return fixedNow },
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func seededServer(t *testing.T) *Server {
	t.Helper()
	return newTestServer(t, services.NewOverviewService(seededStore(t), 16, time.Hour, nil), nil)
}

func get(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func assertContains(t *testing.T, body string, parts ...string) {
	t.Helper()
	for _, p := range parts {
		if !strings.Contains(body, p) {
			t.Errorf("body missing %q", p)
		}
	}
}

type failingReader struct{ err error }

func (f failingReader) ListAccounts(context.Context) ([]core.Account, error) { return nil, f.err }
func (f failingReader) GetAccount(context.Context, string) (core.Account, error) {
	return core.Account{}, f.err
}
func (f failingReader) Snapshot(context.Context, string) (*ledger.TransactionSet, error) {
	return nil, f.err
}
func (f failingReader) Overview(context.Context, string, period.RangeKey, time.Time) (period.Result, error) {
	return period.Result{}, f.err
}

type pingFunc func(context.Context) error

func (p pingFunc) Ping(ctx context.Context) error { return p(ctx) }

func TestDashboardAndAccountsGrid(t *testing.T) {
	srv := seededServer(t)

	rr := get(t, srv, "/")
	if rr.Code != http.StatusOK {
		t.Fatalf("dashboard status=%d", rr.Code)
	}
	assertContains(t, rr.Body.String(), `hx-get="/ui/accounts"`, "<h1>Accounts</h1>")

	rr = get(t, srv, "/ui/accounts")
	if rr.Code != http.StatusOK {
		t.Fatalf("grid status=%d", rr.Code)
	}
	assertContains(t, rr.Body.String(),
		"Add New Account",
		`href="/account/acc-1"`, "Main", "Rs.100.00", "Current Account",
		`href="/account/acc-2"`, "Savings", "Rs.1500.50", "Savings Account",
		"Income", "Expense",
	)
}

func TestAccountsGridFallback(t *testing.T) {
	srv := newTestServer(t, failingReader{err: errors.New("sheets down")}, nil)

	rr := get(t, srv, "/ui/accounts")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	assertContains(t, rr.Body.String(), "Something went wrong")
	if strings.Contains(rr.Body.String(), "sheets down") {
		t.Error("provider error leaked into the page")
	}
}

func TestAccountPage(t *testing.T) {
	srv := seededServer(t)

	rr := get(t, srv, "/account/acc-1")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	body := rr.Body.String()
	assertContains(t, body,
		"Transaction Overview", "Total Income", "Total Expenses", "Net",
		"₹100.00", "₹60.00", "₹40.00",
		`<option value="1M" selected>Last Month</option>`,
		"Last 7 Days", "Last 3 Months", "Last 6 Months", "All Time",
		"/account/acc-1/chart.svg?range=1M",
		"Groceries", "Mar 05, 2024", "₹-20.00",
	)
	if strings.Index(body, "Groceries") > strings.Index(body, "Salary March") {
		t.Error("transactions should be listed newest first")
	}
}

func TestAccountPageNotFound(t *testing.T) {
	srv := seededServer(t)
	rr := get(t, srv, "/account/nope")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status=%d", rr.Code)
	}
	assertContains(t, rr.Body.String(), "Account not found")
}

func TestAccountPageProviderError(t *testing.T) {
	srv := newTestServer(t, failingReader{err: errors.New("boom")}, nil)
	rr := get(t, srv, "/account/acc-1")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", rr.Code)
	}
	assertContains(t, rr.Body.String(), "Something went wrong")
}

func TestOverviewPartialRanges(t *testing.T) {
	srv := seededServer(t)

	rr := get(t, srv, "/ui/account/acc-1/overview?range=7D")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	assertContains(t, rr.Body.String(),
		`<option value="7D" selected>Last 7 Days</option>`,
		"₹0.00", "₹20.00", "₹-20.00", `stat__value negative`,
	)
	if trig := rr.Header().Get("HX-Trigger"); !strings.Contains(trig, `"range":"7D"`) {
		t.Errorf("HX-Trigger = %q", trig)
	}

	// Unknown keys fall back to the default range.
	rr = get(t, srv, "/ui/account/acc-1/overview?range=2W")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	assertContains(t, rr.Body.String(), `<option value="1M" selected>Last Month</option>`, "₹40.00")
}

func TestOverviewPartialBreakEvenIsPositive(t *testing.T) {
	srv := seededServer(t)
	rr := get(t, srv, "/ui/account/acc-2/overview?range=1M")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	body := rr.Body.String()
	assertContains(t, body, `<span class="stat__value positive">₹0.00</span>`, "No transactions in Last Month")
	if strings.Contains(body, `stat__value ">`) {
		t.Error("net figure rendered without a sign class")
	}
}

func TestOverviewPartialEmpty(t *testing.T) {
	srv := seededServer(t)
	rr := get(t, srv, "/ui/account/acc-2/overview")
	assertContains(t, rr.Body.String(), "₹0.00", "No transactions in Last Month")
	if strings.Contains(rr.Body.String(), "<img") {
		t.Error("empty overview should not embed a chart")
	}
}

func TestOverviewJSON(t *testing.T) {
	srv := seededServer(t)

	rr := get(t, srv, "/api/accounts/acc-1/overview?range=1M")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	var got struct {
		Range   string  `json:"range"`
		Label   string  `json:"label"`
		From    *string `json:"from"`
		Buckets []struct {
			Date    string  `json:"date"`
			Income  float64 `json:"income"`
			Expense float64 `json:"expense"`
		} `json:"buckets"`
		Totals struct {
			Income, Expense, Net float64
		} `json:"totals"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Range != "1M" || got.Label != "Last Month" || got.From == nil {
		t.Errorf("header = %+v", got)
	}
	if len(got.Buckets) != 2 || got.Buckets[0].Date != "Mar 01" || got.Buckets[1].Date != "Mar 05" {
		t.Fatalf("buckets = %+v", got.Buckets)
	}
	if got.Buckets[0].Income != 100 || got.Buckets[0].Expense != 40 || got.Buckets[1].Expense != 20 {
		t.Errorf("bucket sums = %+v", got.Buckets)
	}
	if got.Totals.Income != 100 || got.Totals.Expense != 60 || got.Totals.Net != 40 {
		t.Errorf("totals = %+v", got.Totals)
	}

	rr = get(t, srv, "/api/accounts/acc-1/overview?range=ALL")
	assertContains(t, rr.Body.String(), `"from":null`, `"date":"Mar 01, 2024"`)

	rr = get(t, srv, "/api/accounts/acc-2/overview")
	assertContains(t, rr.Body.String(), `"buckets":[]`)

	rr = get(t, srv, "/api/accounts/nope/overview")
	if rr.Code != http.StatusNotFound {
		t.Errorf("unknown account status=%d", rr.Code)
	}
}

func TestChartSVG(t *testing.T) {
	srv := seededServer(t)

	rr := get(t, srv, "/account/acc-1/chart.svg?range=ALL")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("Content-Type = %q", ct)
	}
	assertContains(t, rr.Body.String(), "<svg", "All Time")

	rr = get(t, srv, "/account/acc-2/chart.svg")
	assertContains(t, rr.Body.String(), "<svg", "No transactions in Last Month")

	rr = get(t, srv, "/account/nope/chart.svg")
	if rr.Code != http.StatusNotFound {
		t.Errorf("unknown account status=%d", rr.Code)
	}
}

func TestHealthAndReady(t *testing.T) {
	srv := seededServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := get(t, srv, path)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}

	down := newTestServer(t, failingReader{}, pingFunc(func(context.Context) error { return errors.New("db locked") }))
	rr := get(t, down, "/readyz")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz status=%d", rr.Code)
	}
	assertContains(t, rr.Body.String(), `"not_ready"`, "db locked")
}

func TestMiddlewareAndStatic(t *testing.T) {
	srv := seededServer(t)

	rr := get(t, srv, "/static/app.css")
	if rr.Code != http.StatusOK {
		t.Fatalf("static status=%d", rr.Code)
	}
	if !strings.Contains(rr.Header().Get("Cache-Control"), "max-age=3600") {
		t.Errorf("Cache-Control = %q", rr.Header().Get("Cache-Control"))
	}
	if rr.Header().Get("X-Request-ID") == "" || rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Errorf("missing middleware headers: %v", rr.Header())
	}

	post := httptest.NewRecorder()
	srv.Handler.ServeHTTP(post, httptest.NewRequest(http.MethodPost, "/", nil))
	if post.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST / status=%d", post.Code)
	}

	if rr := get(t, srv, "/missing"); rr.Code != http.StatusNotFound {
		t.Errorf("unknown path status=%d", rr.Code)
	}
}
