package metrics

import (
	"errors"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"loanshare/internal/domain/loan"

	"github.com/prometheus/client_golang/prometheus"
)

func scrape(t *testing.T, reg *prometheus.Registry) string {
	t.Helper()
	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	return rec.Body.String()
}

func TestObserveOp_Status(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveOp("loan.fund", nil, time.Millisecond)
	m.ObserveOp("loan.fund", fmt.Errorf("wrap: %w", loan.ErrAlreadyFunded), time.Millisecond)
	m.ObserveOp("loan.fund", loan.ErrNotFound, time.Millisecond)
	m.ObserveOp("loan.fund", errors.New("db down"), time.Millisecond)
	m.ObserveEvents(3)

	body := scrape(t, reg)
	for _, want := range []string{
		`loanshare_operations_total{op="loan.fund",status="ok"} 1`,
		`loanshare_operations_total{op="loan.fund",status="rejected"} 1`,
		`loanshare_operations_total{op="loan.fund",status="not_found"} 1`,
		`loanshare_operations_total{op="loan.fund",status="error"} 1`,
		`loanshare_operation_duration_seconds_count{op="loan.fund"} 4`,
		`loanshare_events_published_total 3`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics body missing %q:\n%s", want, body)
		}
	}
}
