package http

import (
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"catatan/internal/core"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	data := struct {
		Today      string
		Categories []string
	}{
		Today:      time.Now().Format("2006-01-02"),
		Categories: s.categories,
	}

	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Index template execution failed", "error", err, "template", "index.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		slog.ErrorContext(r.Context(), "Parse form error", "error", err, "method", r.Method, "url", r.URL.Path)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`<div class="error">Invalid request format</div>`))
		return
	}

	desc := sanitizeInput(r.Form.Get("description"))
	amountStr := strings.TrimSpace(r.Form.Get("amount"))
	category := sanitizeInput(r.Form.Get("category"))

	day := core.Date{Time: time.Now()}
	if v := strings.TrimSpace(r.Form.Get("date")); v != "" {
		parsed, err := core.ParseDate(v)
		if err != nil {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`<div class="error">Invalid date</div>`))
			return
		}
		day = parsed
	}

	amount, err := core.ParseAmount(amountStr)
	if err != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`<div class="error">Invalid amount</div>`))
		return
	}

	tx := core.Transaction{
		Description: desc,
		Amount:      amount,
		Category:    category,
		Date:        day,
	}
	if err := tx.Validate(); err != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`<div class="error">Invalid input: ` + template.HTMLEscapeString(err.Error()) + `</div>`))
		return
	}

	id, err := s.recorder.RecordExpense(r.Context(), tx)
	if err != nil {
		slog.ErrorContext(r.Context(), "Expense record error", "error", err, "description", tx.Description, "amount", tx.Amount)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<div class="error">Failed to save expense</div>`))
		return
	}

	s.invalidateViews()
	w.Header().Set("HX-Trigger", `{"expense:created": {"id": `+strconv.FormatInt(id, 10)+`}}`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<div class="success">Expense saved (#` + strconv.FormatInt(id, 10) + `): ` +
		template.HTMLEscapeString(tx.Description) +
		` — ` + formatRupiah(tx.Amount) +
		` (` + template.HTMLEscapeString(tx.Category) + `)</div>`))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`<div class="error">Invalid request format</div>`))
		return
	}

	id, err := strconv.ParseInt(strings.TrimSpace(r.Form.Get("id")), 10, 64)
	if err != nil || id < 1 {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`<div class="error">Invalid transaction id</div>`))
		return
	}

	if err := s.deleter.DeleteExpense(r.Context(), id); err != nil {
		slog.ErrorContext(r.Context(), "Expense delete error", "error", err, "id", id)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<div class="error">Failed to delete expense</div>`))
		return
	}

	s.invalidateViews()
	w.Header().Set("HX-Trigger", `{"expense:deleted": {"id": `+strconv.FormatInt(id, 10)+`}}`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<div class="success">Expense #` + strconv.FormatInt(id, 10) + ` deleted</div>`))
}

// handleHistory renders the transaction history partial, newest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	txs, err := s.getHistory(r)
	if err != nil {
		slog.ErrorContext(r.Context(), "History list error", "error", err)
		_, _ = w.Write([]byte(`<section id="history"><div class="placeholder">Failed to load history</div></section>`))
		return
	}

	type row struct {
		ID       int64
		Date     string
		Desc     string
		Category string
		Amount   string
	}
	data := struct {
		Rows  []row
		Empty bool
	}{Empty: len(txs) == 0}
	for _, tx := range txs {
		data.Rows = append(data.Rows, row{
			ID:       tx.ID,
			Date:     tx.Date.String(),
			Desc:     tx.Description,
			Category: tx.Category,
			Amount:   formatRupiah(tx.Amount),
		})
	}

	if s.templates == nil {
		_, _ = w.Write([]byte(`<section id="history"><div class="placeholder">` + strconv.Itoa(len(txs)) + ` transactions</div></section>`))
		return
	}
	if err := s.templates.ExecuteTemplate(w, "history.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "history.html")
		_, _ = w.Write([]byte(`<section id="history"><div class="placeholder">Failed to render history</div></section>`))
	}
}

// handleSummary renders the totals partial, optionally for ?date=YYYY-MM-DD.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	var day core.Date
	if v := strings.TrimSpace(r.URL.Query().Get("date")); v != "" {
		parsed, err := core.ParseDate(v)
		if err != nil {
			slog.WarnContext(r.Context(), "Invalid date parameter ignored", "date", v)
		} else {
			day = parsed
		}
	}

	summary, err := s.getSummary(r, day)
	if err != nil {
		slog.ErrorContext(r.Context(), "Summary error", "error", err, "date", day.String())
		_, _ = w.Write([]byte(`<section id="summary"><div class="placeholder">Failed to load summary</div></section>`))
		return
	}

	// Compute max category for progress scaling.
	var maxAmount float64
	for _, ct := range summary.ByCategory {
		if ct.Amount > maxAmount {
			maxAmount = ct.Amount
		}
	}

	type row struct {
		Name, Amount string
		Width        int
	}
	data := struct {
		Period string
		Total  string
		Rows   []row
	}{Total: formatRupiah(summary.Total)}
	if day.IsEmpty() {
		data.Period = "All time"
	} else {
		data.Period = day.String()
	}
	for _, ct := range summary.ByCategory {
		width := 0
		if maxAmount > 0 && ct.Amount > 0 {
			width = int(ct.Amount/maxAmount*100 + 0.5)
			if width > 0 && width < 2 { // ensure visibility for very small values
				width = 2
			}
			if width > 100 {
				width = 100
			}
		}
		data.Rows = append(data.Rows, row{Name: ct.Name, Amount: formatRupiah(ct.Amount), Width: width})
	}

	if s.templates == nil {
		_, _ = w.Write([]byte(`<section id="summary"><div class="placeholder">Total: ` + data.Total + `</div></section>`))
		return
	}
	if err := s.templates.ExecuteTemplate(w, "summary.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "summary.html")
		_, _ = w.Write([]byte(`<section id="summary"><div class="placeholder">Failed to render summary</div></section>`))
	}
}

func (s *Server) getHistory(r *http.Request) ([]core.Transaction, error) {
	const key = "all"
	if txs, found := s.historyCache.Get(key); found {
		slog.DebugContext(r.Context(), "History cache hit", "count", len(txs))
		out := make([]core.Transaction, len(txs))
		copy(out, txs)
		return out, nil
	}

	cctx, cancel := contextWithPartialTimeout(r)
	defer cancel()
	txs, err := s.lister.ListExpenses(cctx)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	s.historyCache.Set(key, txs)
	return txs, nil
}

func (s *Server) getSummary(r *http.Request, day core.Date) (core.Summary, error) {
	key := "all"
	if !day.IsEmpty() {
		key = day.String()
	}
	if summary, found := s.summaryCache.Get(key); found {
		slog.DebugContext(r.Context(), "Summary cache hit", "date", key)
		return summary, nil
	}

	cctx, cancel := contextWithPartialTimeout(r)
	defer cancel()
	summary, err := s.summaries.ReadSummary(cctx, day)
	if err != nil {
		return core.Summary{}, fmt.Errorf("read summary (date=%s): %w", key, err)
	}
	s.summaryCache.Set(key, summary)
	return summary, nil
}
