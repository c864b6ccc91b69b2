package emissions

import (
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps records in memory, aggregated by stockyard and day.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]map[time.Time]*Record
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string]map[time.Time]*Record{}}
}

// Add inserts or updates the record aggregated by day and stockyard.
func (s *MemoryStore) Add(r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data[r.StockyardID] == nil {
		s.data[r.StockyardID] = map[time.Time]*Record{}
	}
	d := Day(r.Date)
	rec := s.data[r.StockyardID][d]
	if rec == nil {
		rec = &Record{StockyardID: r.StockyardID, Date: d}
		s.data[r.StockyardID][d] = rec
	}
	rec.TonsKm += r.TonsKm
	rec.CO2Kg += r.CO2Kg
	return nil
}

// Query returns records between start and end inclusive, oldest first.
func (s *MemoryStore) Query(stockyardID string, start, end time.Time) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start = Day(start)
	end = Day(end)
	var res []Record
	for d, r := range s.data[stockyardID] {
		if d.Before(start) || d.After(end) {
			continue
		}
		res = append(res, *r)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Date.Before(res[j].Date) })
	return res, nil
}
