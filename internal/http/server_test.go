package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"
	"time"

	"catatan/internal/core"
)

// fakeService is an in-memory stand-in for services.ExpenseService.
type fakeService struct {
	nextID  int64
	items   map[int64]core.Transaction
	failAll bool
}

func newFakeService() *fakeService {
	return &fakeService{items: make(map[int64]core.Transaction)}
}

func (f *fakeService) RecordExpense(_ context.Context, tx core.Transaction) (int64, error) {
	if f.failAll {
		return 0, errors.New("storage failure")
	}
	if err := tx.Validate(); err != nil {
		return 0, err
	}
	f.nextID++
	tx.ID = f.nextID
	f.items[tx.ID] = tx
	return tx.ID, nil
}

func (f *fakeService) ListExpenses(_ context.Context) ([]core.Transaction, error) {
	if f.failAll {
		return nil, errors.New("storage failure")
	}
	out := []core.Transaction{}
	for _, tx := range f.items {
		out = append(out, tx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeService) DeleteExpense(_ context.Context, id int64) error {
	if f.failAll {
		return errors.New("storage failure")
	}
	delete(f.items, id)
	return nil
}

func (f *fakeService) ReadSummary(_ context.Context, day core.Date) (core.Summary, error) {
	if f.failAll {
		return core.Summary{}, errors.New("storage failure")
	}
	summary := core.Summary{Date: day}
	byCat := make(map[string]float64)
	for _, tx := range f.items {
		if !day.IsEmpty() && tx.Date.String() != day.String() {
			continue
		}
		summary.Total += tx.Amount
		byCat[tx.Category] += tx.Amount
	}
	for name, amount := range byCat {
		summary.ByCategory = append(summary.ByCategory, core.CategoryTotal{Name: name, Amount: amount})
	}
	return summary, nil
}

func newTestServer(t *testing.T, svc *fakeService) *Server {
	t.Helper()
	srv := NewServer(":0", []string{"Food", "Transport"}, svc, svc, svc, svc, Options{
		CacheSize: 10,
		CacheTTL:  time.Minute,
	})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv
}

func postForm(t *testing.T, srv *Server, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func get(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t, newFakeService())

	if rec := get(t, srv, "/healthz"); rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("/healthz = %d %q", rec.Code, rec.Body.String())
	}
	if rec := get(t, srv, "/readyz"); rec.Code != http.StatusOK || rec.Body.String() != "ready" {
		t.Fatalf("/readyz = %d %q", rec.Code, rec.Body.String())
	}
}

func TestIndexRendersCategories(t *testing.T) {
	srv := newTestServer(t, newFakeService())

	rec := get(t, srv, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET / = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, cat := range []string{"Food", "Transport"} {
		if !strings.Contains(body, cat) {
			t.Errorf("index missing category %q", cat)
		}
	}
}

func TestCreateExpense(t *testing.T) {
	svc := newFakeService()
	srv := newTestServer(t, svc)

	rec := postForm(t, srv, "/expenses", url.Values{
		"description": {"Lunch"},
		"amount":      {"25000"},
		"category":    {"Food"},
		"date":        {"2024-01-10"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /expenses = %d, body %q", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Expense saved") {
		t.Errorf("unexpected body: %q", rec.Body.String())
	}
	if rec.Header().Get("HX-Trigger") == "" {
		t.Error("expected HX-Trigger header on create")
	}
	if len(svc.items) != 1 {
		t.Fatalf("stored %d expenses, want 1", len(svc.items))
	}
	tx := svc.items[1]
	if tx.Description != "Lunch" || tx.Amount != 25000 || tx.Category != "Food" || tx.Date.String() != "2024-01-10" {
		t.Errorf("stored transaction = %+v", tx)
	}
}

func TestCreateExpenseRejectsBadInput(t *testing.T) {
	svc := newFakeService()
	srv := newTestServer(t, svc)

	cases := []url.Values{
		{"description": {"Lunch"}, "amount": {"abc"}, "category": {"Food"}},
		{"description": {"Lunch"}, "amount": {"-5"}, "category": {"Food"}},
		{"description": {"Lunch"}, "amount": {"0"}, "category": {"Food"}},
		{"description": {""}, "amount": {"100"}, "category": {"Food"}},
		{"description": {"Lunch"}, "amount": {"100"}, "category": {""}},
		{"description": {"Lunch"}, "amount": {"100"}, "category": {"Food"}, "date": {"not-a-date"}},
	}
	for i, form := range cases {
		rec := postForm(t, srv, "/expenses", form)
		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("case %d: status = %d, want 422", i, rec.Code)
		}
	}
	if len(svc.items) != 0 {
		t.Fatalf("invalid input reached storage: %v", svc.items)
	}
}

func TestCreateExpenseMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, newFakeService())
	rec := get(t, srv, "/expenses")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET /expenses = %d, want 405", rec.Code)
	}
}

func TestCreateExpenseStorageError(t *testing.T) {
	svc := newFakeService()
	svc.failAll = true
	srv := newTestServer(t, svc)

	rec := postForm(t, srv, "/expenses", url.Values{
		"description": {"Lunch"},
		"amount":      {"25000"},
		"category":    {"Food"},
	})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestDeleteExpense(t *testing.T) {
	svc := newFakeService()
	srv := newTestServer(t, svc)

	postForm(t, srv, "/expenses", url.Values{
		"description": {"Lunch"}, "amount": {"25000"}, "category": {"Food"}, "date": {"2024-01-10"},
	})

	rec := postForm(t, srv, "/expenses/delete", url.Values{"id": {"1"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /expenses/delete = %d, body %q", rec.Code, rec.Body.String())
	}
	if len(svc.items) != 0 {
		t.Fatal("expense not deleted")
	}

	// Deleting an id that no longer exists still reports success.
	rec = postForm(t, srv, "/expenses/delete", url.Values{"id": {"999999"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("delete nonexistent = %d, want 200", rec.Code)
	}

	rec = postForm(t, srv, "/expenses/delete", url.Values{"id": {"zero"}})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("delete with bad id = %d, want 422", rec.Code)
	}
}

func TestHistoryPartial(t *testing.T) {
	svc := newFakeService()
	srv := newTestServer(t, svc)

	rec := get(t, srv, "/ui/history")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "No transactions") {
		t.Fatalf("empty history = %d %q", rec.Code, rec.Body.String())
	}

	postForm(t, srv, "/expenses", url.Values{
		"description": {"Lunch"}, "amount": {"25000"}, "category": {"Food"}, "date": {"2024-01-10"},
	})

	rec = get(t, srv, "/ui/history")
	body := rec.Body.String()
	for _, want := range []string{"Lunch", "Food", "2024-01-10", "Rp 25.000"} {
		if !strings.Contains(body, want) {
			t.Errorf("history missing %q in %q", want, body)
		}
	}
}

func TestSummaryPartialAndCacheInvalidation(t *testing.T) {
	svc := newFakeService()
	srv := newTestServer(t, svc)

	postForm(t, srv, "/expenses", url.Values{
		"description": {"Lunch"}, "amount": {"25000"}, "category": {"Food"}, "date": {"2024-01-10"},
	})

	rec := get(t, srv, "/ui/summary")
	if !strings.Contains(rec.Body.String(), "Rp 25.000") {
		t.Fatalf("summary missing total: %q", rec.Body.String())
	}

	// Warm the cache, then mutate: the next read must see the new state.
	postForm(t, srv, "/expenses", url.Values{
		"description": {"Bus"}, "amount": {"5000"}, "category": {"Transport"}, "date": {"2024-01-10"},
	})
	rec = get(t, srv, "/ui/summary")
	if !strings.Contains(rec.Body.String(), "Rp 30.000") {
		t.Fatalf("summary stale after create: %q", rec.Body.String())
	}

	// Date-filtered summary.
	rec = get(t, srv, "/ui/summary?date=2024-01-11")
	if !strings.Contains(rec.Body.String(), "Rp 0") {
		t.Fatalf("summary for empty date should be zero: %q", rec.Body.String())
	}
	rec = get(t, srv, "/ui/summary?date=2024-01-10")
	if !strings.Contains(rec.Body.String(), "Rp 30.000") {
		t.Fatalf("summary for matching date: %q", rec.Body.String())
	}
}
