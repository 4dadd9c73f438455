package http_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"spendwise/internal/core"
	apphttp "spendwise/internal/http"
	"spendwise/internal/services"
	"spendwise/internal/storage"
)

func newTestServer(t *testing.T) (*apphttp.Server, *storage.MemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := storage.NewMemoryStore()
	reports := services.NewReportService(store, services.Caches{})
	expenses := services.NewExpenseService(store, nil, reports.Invalidate)
	processor := services.NewRecurringProcessor(store)

	srv := apphttp.NewServer(
		apphttp.Options{CORSOrigins: []string{"*"}, RateLimitPerMinute: 1000},
		expenses, reports, processor, store,
	)
	t.Cleanup(srv.Close)
	return srv, store
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	w := doJSON(t, srv.Handler(), http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestCreateAndListExpenses(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	w := doJSON(t, h, http.MethodPost, "/api/expenses",
		`{"title":"Coffee","amount":"3.50","category":"food","date":"2025-01-10"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", w.Code, w.Body.String())
	}

	var created core.Expense
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created: %v", err)
	}
	if created.ID == "" {
		t.Error("created expense has no id")
	}
	if created.Amount.Cents != 350 {
		t.Errorf("amount = %d cents, want 350", created.Amount.Cents)
	}
	if created.Category != core.Food {
		t.Errorf("category = %q, want Food", created.Category)
	}

	w = doJSON(t, h, http.MethodGet, "/api/expenses?month=1&year=2025", "")
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var listed []core.Expense
	if err := json.Unmarshal(w.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != created.ID {
		t.Errorf("list = %+v, want the created expense", listed)
	}

	// A different period is empty.
	w = doJSON(t, h, http.MethodGet, "/api/expenses?month=2&year=2025", "")
	listed = nil
	if err := json.Unmarshal(w.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed) != 0 {
		t.Errorf("february list has %d expenses, want 0", len(listed))
	}
}

func TestListRejectsInvalidPeriod(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	for _, path := range []string{
		"/api/expenses?month=0&year=2025",
		"/api/expenses?month=13&year=2025",
		"/api/expenses?month=1",
		"/api/expenses?month=1&year=abc",
		"/api/expenses/export?month=0&year=2025",
	} {
		w := doJSON(t, h, http.MethodGet, path, "")
		if w.Code != http.StatusBadRequest {
			t.Errorf("GET %s status = %d, want 400", path, w.Code)
		}
	}
}

func TestExportExpensesEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	doJSON(t, h, http.MethodPost, "/api/expenses",
		`{"title":"Groceries","amount":120.5,"category":"Food","date":"2025-01-03"}`)
	doJSON(t, h, http.MethodPost, "/api/expenses",
		`{"title":"Cinema","amount":30,"category":"Entertainment","date":"2025-02-12"}`)

	w := doJSON(t, h, http.MethodGet, "/api/expenses/export?month=1&year=2025", "")
	if w.Code != http.StatusOK {
		t.Fatalf("export status = %d, body %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "SpendWise_Expenses.csv") {
		t.Errorf("Content-Disposition = %q", cd)
	}

	body := w.Body.String()
	if !strings.HasPrefix(body, "Date,Title,Amount,Category,Description") {
		t.Errorf("export missing header:\n%s", body)
	}
	if !strings.Contains(body, "2025-01-03,Groceries,120.50,Food") {
		t.Errorf("export missing January row:\n%s", body)
	}
	// The period filter applies to the export too.
	if strings.Contains(body, "Cinema") {
		t.Errorf("export leaked a February row:\n%s", body)
	}
}

func TestRateLimitExceeded(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := storage.NewMemoryStore()
	reports := services.NewReportService(store, services.Caches{})
	expenses := services.NewExpenseService(store, nil, reports.Invalidate)
	processor := services.NewRecurringProcessor(store)

	srv := apphttp.NewServer(
		apphttp.Options{CORSOrigins: []string{"*"}, RateLimitPerMinute: 3},
		expenses, reports, processor, store,
	)
	t.Cleanup(srv.Close)
	h := srv.Handler()

	for i := 0; i < 3; i++ {
		if w := doJSON(t, h, http.MethodGet, "/health", ""); w.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i+1, w.Code)
		}
	}

	w := doJSON(t, h, http.MethodGet, "/health", "")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status over the limit = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q, want 60", w.Header().Get("Retry-After"))
	}
}

func TestCreateExpenseValidation(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed json", `{`, http.StatusBadRequest},
		{"empty title", `{"title":"  ","amount":5}`, http.StatusUnprocessableEntity},
		{"garbage amount coerces to zero", `{"title":"Mystery","amount":"abc"}`, http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, h, http.MethodPost, "/api/expenses", tt.body)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d; body %s", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestUpdateAndDeleteExpense(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	w := doJSON(t, h, http.MethodPost, "/api/expenses",
		`{"title":"Coffee","amount":3.5,"date":"2025-01-10"}`)
	var created core.Expense
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created: %v", err)
	}

	w = doJSON(t, h, http.MethodPut, "/api/expenses/"+created.ID,
		`{"title":"Espresso","amount":4,"date":"2025-01-10","category":"Food"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", w.Code, w.Body.String())
	}

	w = doJSON(t, h, http.MethodPut, "/api/expenses/ghost",
		`{"title":"Espresso","amount":4}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("update missing status = %d, want 404", w.Code)
	}

	w = doJSON(t, h, http.MethodDelete, "/api/expenses/"+created.ID, "")
	if w.Code != http.StatusOK {
		t.Errorf("delete status = %d", w.Code)
	}
	w = doJSON(t, h, http.MethodDelete, "/api/expenses/"+created.ID, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", w.Code)
	}
}

func TestUserIsolation(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	req := httptest.NewRequest(http.MethodPost, "/api/expenses",
		strings.NewReader(`{"title":"Coffee","amount":3.5,"date":"2025-01-10"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "alice")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d", w.Code)
	}

	// The default user sees nothing.
	w2 := doJSON(t, h, http.MethodGet, "/api/expenses", "")
	var listed []core.Expense
	if err := json.Unmarshal(w2.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed) != 0 {
		t.Errorf("default user sees %d of alice's expenses", len(listed))
	}
}

func TestMonthlyReportEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	doJSON(t, h, http.MethodPost, "/api/expenses",
		`{"title":"Groceries","amount":120,"category":"Food","date":"2025-01-03"}`)
	doJSON(t, h, http.MethodPost, "/api/budget",
		`{"amount":500,"month":1,"year":2025}`)

	w := doJSON(t, h, http.MethodGet, "/api/reports/monthly?month=1&year=2025", "")
	if w.Code != http.StatusOK {
		t.Fatalf("report status = %d, body %s", w.Code, w.Body.String())
	}

	var summary struct {
		TotalAmount      float64 `json:"totalAmount"`
		TransactionCount int     `json:"transactionCount"`
		Budget           struct {
			Budget      float64 `json:"budget"`
			PercentUsed float64 `json:"percentUsed"`
		} `json:"budget"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.TotalAmount != 120 {
		t.Errorf("totalAmount = %f, want 120", summary.TotalAmount)
	}
	if summary.TransactionCount != 1 {
		t.Errorf("transactionCount = %d, want 1", summary.TransactionCount)
	}
	if summary.Budget.Budget != 500 {
		t.Errorf("budget = %f, want 500", summary.Budget.Budget)
	}
	if summary.Budget.PercentUsed != 24 {
		t.Errorf("percentUsed = %f, want 24", summary.Budget.PercentUsed)
	}
}

func TestReportRequiresPeriod(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	for _, path := range []string{
		"/api/reports/monthly",
		"/api/reports/monthly?month=1",
		"/api/reports/monthly?month=13&year=2025",
		"/api/reports/comparison?year=2025",
		"/api/reports/trends",
		"/api/reports/export",
		"/api/budget",
	} {
		w := doJSON(t, h, http.MethodGet, path, "")
		if w.Code != http.StatusBadRequest {
			t.Errorf("GET %s status = %d, want 400", path, w.Code)
		}
	}
}

func TestExportReportEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	doJSON(t, h, http.MethodPost, "/api/expenses",
		`{"title":"Groceries","amount":120,"category":"Food","date":"2025-01-03"}`)

	w := doJSON(t, h, http.MethodGet, "/api/reports/export?month=1&year=2025", "")
	if w.Code != http.StatusOK {
		t.Fatalf("export status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "SpendWise_Report_January_2025.csv") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if !strings.Contains(w.Body.String(), "Monthly Financial Report - January 2025") {
		t.Errorf("export body missing report header:\n%s", w.Body.String())
	}
}

func TestBudgetRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	w := doJSON(t, h, http.MethodPost, "/api/budget", `{"amount":500,"month":1,"year":2025}`)
	if w.Code != http.StatusOK {
		t.Fatalf("set budget status = %d, body %s", w.Code, w.Body.String())
	}

	// Upsert overwrites.
	w = doJSON(t, h, http.MethodPost, "/api/budget", `{"amount":650,"month":1,"year":2025}`)
	if w.Code != http.StatusOK {
		t.Fatalf("second set budget status = %d", w.Code)
	}

	w = doJSON(t, h, http.MethodGet, "/api/budget?month=1&year=2025", "")
	var b core.Budget
	if err := json.Unmarshal(w.Body.Bytes(), &b); err != nil {
		t.Fatalf("decode budget: %v", err)
	}
	if b.Amount.Cents != 65000 {
		t.Errorf("budget amount = %d cents, want 65000", b.Amount.Cents)
	}

	w = doJSON(t, h, http.MethodPost, "/api/budget", `{"amount":500,"month":13,"year":2025}`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("invalid month status = %d, want 422", w.Code)
	}
}

func TestRecurringLifecycleAndAutomation(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	w := doJSON(t, h, http.MethodPost, "/api/recurring",
		`{"title":"Rent","amount":1200,"category":"utilities","frequency":"monthly","start_date":"2025-01-01"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create recurring status = %d, body %s", w.Code, w.Body.String())
	}
	var def core.RecurringExpense
	if err := json.Unmarshal(w.Body.Bytes(), &def); err != nil {
		t.Fatalf("decode recurring: %v", err)
	}
	if def.NextDate.IsZero() {
		t.Error("next date should default to start date")
	}

	w = doJSON(t, h, http.MethodPost, "/api/recurring",
		`{"title":"Bad","amount":10,"category":"Other","frequency":"fortnightly","start_date":"2025-01-01"}`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("invalid frequency status = %d, want 422", w.Code)
	}

	w = doJSON(t, h, http.MethodPost, "/api/automation/run", "")
	if w.Code != http.StatusOK {
		t.Fatalf("automation status = %d, body %s", w.Code, w.Body.String())
	}
	var result services.Result
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.Processed != 1 {
		t.Errorf("processed = %d, want 1", result.Processed)
	}

	// Same-day rerun is a no-op.
	w = doJSON(t, h, http.MethodPost, "/api/automation/run", "")
	result = services.Result{}
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode rerun result: %v", err)
	}
	if result.Processed != 0 {
		t.Errorf("rerun processed = %d, want 0", result.Processed)
	}

	w = doJSON(t, h, http.MethodDelete, "/api/recurring/"+def.ID, "")
	if w.Code != http.StatusOK {
		t.Errorf("delete recurring status = %d", w.Code)
	}
	w = doJSON(t, h, http.MethodDelete, "/api/recurring/"+def.ID, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", w.Code)
	}
}
