package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

// counterSum adds up every series of the named counter family.
func counterSum(t *testing.T, m *Metrics, name string) float64 {
	t.Helper()
	families, err := m.Registry.Gather()
	if err != nil {
		t.Fatal(err)
	}
	var sum float64
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, s := range f.GetMetric() {
			sum += s.GetCounter().GetValue()
		}
	}
	return sum
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.OrderCreated()
	m.OrderUpdated("status")
	m.Denied("assignee")
	m.Published("OrderCreated", nil)
}

func TestDomainCounters(t *testing.T) {
	m := New()
	m.OrderCreated()
	m.OrderCreated()
	m.OrderUpdated("assign")
	m.Denied("role:manager")
	m.Published("OrderCreated", nil)
	m.Published("OrderCreated", errors.New("down"))

	tests := []struct {
		name string
		want float64
	}{
		{"restaurant_orders_created_total", 2},
		{"restaurant_orders_updates_total", 1},
		{"restaurant_access_denials_total", 1},
		{"restaurant_events_published_total", 2},
	}
	for _, tt := range tests {
		if got := counterSum(t, m, tt.name); got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/orders/{id}", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) })

	for _, path := range []string{"/orders/1", "/orders/2"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	families, _ := m.Registry.Gather()
	for _, f := range families {
		if f.GetName() != "restaurant_http_requests_total" {
			continue
		}
		if len(f.GetMetric()) != 1 {
			t.Fatalf("series = %d, want 1", len(f.GetMetric()))
		}
		labels := map[string]string{}
		for _, l := range f.GetMetric()[0].GetLabel() {
			labels[l.GetName()] = l.GetValue()
		}
		if labels["route"] != "/orders/{id}" || labels["code"] != "418" {
			t.Errorf("labels = %v", labels)
		}
		return
	}
	t.Fatal("requests counter not found")
}
