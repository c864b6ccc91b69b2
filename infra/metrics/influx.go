package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/sailq/rakeflow/core/metrics"
	"github.com/sailq/rakeflow/infra/logger"
)

// InfluxSink writes planning events to an InfluxDB instance using the
// official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a sink for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a
// NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.Sink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordPlan writes the plan summary as a plan_event point.
func (s *InfluxSink) RecordPlan(r coremetrics.PlanRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("plan_event").
		AddTag("label", r.Label).
		AddTag("applied", strconv.FormatBool(r.Applied)).
		AddField("total_cost_inr", round3(r.TotalCost)).
		AddField("sla_compliance", round3(r.SLACompliance)).
		AddField("avg_utilization_pct", round3(r.AvgUtilizationPct)).
		AddField("emissions_kg", round3(r.TotalEmissionsKg)).
		AddField("rakes", r.Rakes).
		SetTime(r.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordRake writes one rake_event point.
func (s *InfluxSink) RecordRake(r coremetrics.RakeRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("rake_event").
		AddTag("rake", r.Code).
		AddTag("stockyard", r.StockyardID).
		AddTag("destination", r.Destination).
		AddTag("wagon_type", r.WagonType).
		AddTag("sla_met", strconv.FormatBool(r.SLAMet)).
		AddField("wagons", r.Wagons).
		AddField("total_tons", round3(r.TotalTons)).
		AddField("utilization_pct", round3(r.UtilizationPct)).
		AddField("planned_cost_inr", round3(r.PlannedCost)).
		SetTime(r.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordConsolidation writes one consolidation_event point.
func (s *InfluxSink) RecordConsolidation(r coremetrics.ConsolidationRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("consolidation_event").
		AddTag("date", r.Date.Format("2006-01-02")).
		AddField("orders", r.Orders).
		AddField("clubs", r.Clubs).
		AddField("created_rakes", r.CreatedRakes).
		AddField("updated_orders", r.UpdatedOrders).
		SetTime(r.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the underlying client.
func (s *InfluxSink) Close() {
	s.client.Close()
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
