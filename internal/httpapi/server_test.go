package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/pauljones0/steam-deals-bot/internal/deals"
	"github.com/pauljones0/steam-deals-bot/internal/models"
)

type mockService struct {
	offers []models.Offer
	err    error
	last   models.Query
	calls  int
}

func (m *mockService) Get(_ context.Context, q models.Query) ([]models.Offer, error) {
	m.calls++
	m.last = q
	return m.offers, m.err
}

var defaults = deals.QueryDefaults{TagID: 1628, RegionCode: "vn", LanguageCode: "english", DefaultLimit: 10}

func newTestServer(svc DealsGetter) *Server {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "test_counter_total", Help: "test"}))
	return NewServer(svc, defaults, reg, zerolog.Nop())
}

func do(s *Server, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHealth(t *testing.T) {
	rec := do(newTestServer(&mockService{}), "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("Unexpected body %s", rec.Body.String())
	}
}

func TestMetrics(t *testing.T) {
	rec := do(newTestServer(&mockService{}), "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "test_counter_total") {
		t.Errorf("Expected registered metric in output")
	}
}

func TestDeals_OK(t *testing.T) {
	svc := &mockService{offers: []models.Offer{
		{AppID: 1, Name: "Ori", DiscountPercent: 75, FinalPrice: "5$", DetailURL: "https://store.steampowered.com/app/1/"},
		{AppID: 2, Name: "Dead Cells", DiscountPercent: 40, FinalPrice: "12$", DetailURL: "https://store.steampowered.com/app/2/"},
	}}
	rec := do(newTestServer(svc), "/deals?limit=5")

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var got []models.Offer
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if len(got) != 2 || got[0].AppID != 1 || got[1].AppID != 2 {
		t.Errorf("Unexpected offers %+v", got)
	}
	if svc.last.Limit != 5 || svc.last.TagIDs[0] != 1628 || !svc.last.OnlyDiscounted {
		t.Errorf("Unexpected query %+v", svc.last)
	}
}

func TestDeals_LimitHandling(t *testing.T) {
	tests := []struct {
		target    string
		wantCode  int
		wantLimit int
	}{
		{"/deals", http.StatusOK, 10},
		{"/deals?limit=0", http.StatusOK, 10},
		{"/deals?limit=-4", http.StatusOK, 1},
		{"/deals?limit=100", http.StatusOK, 20},
		{"/deals?limit=abc", http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			svc := &mockService{offers: []models.Offer{}}
			rec := do(newTestServer(svc), tt.target)
			if rec.Code != tt.wantCode {
				t.Fatalf("Expected %d, got %d", tt.wantCode, rec.Code)
			}
			if tt.wantCode == http.StatusBadRequest {
				if svc.calls != 0 {
					t.Error("Service should not be called for an invalid limit")
				}
				return
			}
			if svc.last.Limit != tt.wantLimit {
				t.Errorf("Limit = %d, want %d", svc.last.Limit, tt.wantLimit)
			}
		})
	}
}

func TestDeals_EmptyIsJSONArray(t *testing.T) {
	rec := do(newTestServer(&mockService{}), "/deals")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("Expected [], got %s", rec.Body.String())
	}
}

func TestDeals_FetchFailed(t *testing.T) {
	svc := &mockService{err: fmt.Errorf("%w: search returned 503", deals.ErrFetchFailed)}
	rec := do(newTestServer(svc), "/deals")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("Expected 502, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "fetch failed") {
		t.Errorf("Unexpected body %s", rec.Body.String())
	}
}

func TestDeals_Timeout(t *testing.T) {
	rec := do(newTestServer(&mockService{err: context.DeadlineExceeded}), "/deals")
	if rec.Code != http.StatusGatewayTimeout {
		t.Fatalf("Expected 504, got %d", rec.Code)
	}
}
