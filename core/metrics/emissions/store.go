package emissions

import "time"

// Record aggregates one stockyard's dispatched freight for a day.
type Record struct {
	StockyardID string
	Date        time.Time
	TonsKm      float64
	CO2Kg       float64
}

// Store persists emissions records.
type Store interface {
	Add(Record) error
	Query(stockyardID string, start, end time.Time) ([]Record, error)
}

// Day aligns a time to the start of its UTC day.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Ledger converts dispatched tonnage into CO2 records.
type Ledger struct {
	store            Store
	factorKgPerTonKm float64
}

// NewLedger creates a Ledger writing through the store.
func NewLedger(store Store, factorKgPerTonKm float64) *Ledger {
	if factorKgPerTonKm <= 0 {
		factorKgPerTonKm = 0.022
	}
	return &Ledger{store: store, factorKgPerTonKm: factorKgPerTonKm}
}

// RecordDispatch books the ton-km of one dispatched rake against its
// stockyard's daily total.
func (l *Ledger) RecordDispatch(stockyardID string, date time.Time, tons, distanceKm float64) error {
	tk := tons * distanceKm
	return l.store.Add(Record{
		StockyardID: stockyardID,
		Date:        Day(date),
		TonsKm:      tk,
		CO2Kg:       tk * l.factorKgPerTonKm,
	})
}

// Total sums CO2 kilograms for the stockyard between start and end inclusive.
func (l *Ledger) Total(stockyardID string, start, end time.Time) (float64, error) {
	recs, err := l.store.Query(stockyardID, start, end)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, r := range recs {
		total += r.CO2Kg
	}
	return total, nil
}
