package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// contextWithPartialTimeout bounds a partial's backing query so a slow read
// cannot hang the page.
func contextWithPartialTimeout(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), 7*time.Second)
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1 // remove character
		}
		return r
	}, s)
}

// formatRupiah formats an amount as Indonesian Rupiah, dot-grouped with no
// decimals (e.g. "Rp 25.000").
func formatRupiah(amount float64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	// Half-up to whole rupiah; sub-unit prices are not used.
	n := int64(amount + 0.5)

	digits := strconv.FormatInt(n, 10)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}
	if neg {
		return "-Rp " + b.String()
	}
	return "Rp " + b.String()
}
