package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/sailq/rakeflow/core/metrics"
)

func TestInfluxSinkRecordRake(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	now := time.Now()
	rec := coremetrics.RakeRecord{
		Code:           "RK-abc123",
		StockyardID:    "SY-ROU",
		Destination:    "Durgapur",
		WagonType:      "BCN",
		Wagons:         4,
		TotalTons:      240,
		UtilizationPct: 100,
		PlannedCost:    150000,
		SLAMet:         true,
		Time:           now,
	}
	if err := sink.RecordRake(rec); err != nil {
		t.Fatalf("record error: %v", err)
	}

	p := write.NewPointWithMeasurement("rake_event").
		AddTag("rake", "RK-abc123").
		AddTag("stockyard", "SY-ROU").
		AddTag("destination", "Durgapur").
		AddTag("wagon_type", "BCN").
		AddTag("sla_met", "true").
		AddField("wagons", 4).
		AddField("total_tons", 240.0).
		AddField("utilization_pct", 100.0).
		AddField("planned_cost_inr", 150000.0).
		SetTime(now)
	expected := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	if strings.TrimSpace(body) != expected {
		t.Errorf("unexpected body:\n got %s\nwant %s", body, expected)
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":"pass"}`))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(srv.URL, "token", "org", "bucket")
	if !called {
		t.Fatal("health endpoint not called")
	}
	if _, ok := sink.(*InfluxSink); !ok {
		t.Fatalf("expected InfluxSink, got %T", sink)
	}
}

func TestNewInfluxSinkWithFallbackUnhealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(srv.URL, "token", "org", "bucket")
	if _, ok := sink.(coremetrics.NopSink); !ok {
		t.Fatalf("expected NopSink fallback, got %T", sink)
	}
}
