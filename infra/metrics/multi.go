package metrics

import coremetrics "github.com/sailq/rakeflow/core/metrics"

// MultiSink fans records out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.Sink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordPlan forwards the record to all sinks, returning the first error.
func (m *MultiSink) RecordPlan(r coremetrics.PlanRecord) error {
	for _, s := range m.Sinks {
		if err := s.RecordPlan(r); err != nil {
			return err
		}
	}
	return nil
}

// RecordRake forwards the record to all sinks, returning the first error.
func (m *MultiSink) RecordRake(r coremetrics.RakeRecord) error {
	for _, s := range m.Sinks {
		if err := s.RecordRake(r); err != nil {
			return err
		}
	}
	return nil
}

// RecordConsolidation forwards the record to all sinks, returning the first
// error.
func (m *MultiSink) RecordConsolidation(r coremetrics.ConsolidationRecord) error {
	for _, s := range m.Sinks {
		if err := s.RecordConsolidation(r); err != nil {
			return err
		}
	}
	return nil
}
