package api

import (
	"slices"
	"sync"
	"time"

	"github.com/samcharles93/calscan/internal/report"
)

// DefaultStoreCapacity bounds the number of retained scans.
const DefaultStoreCapacity = 64

type scanRecord struct {
	Document  report.Document
	Lines     string
	CreatedAt time.Time
}

// ScanStore keeps finished scans in memory, evicting the oldest once full.
type ScanStore struct {
	mu       sync.Mutex
	capacity int
	scans    map[string]*scanRecord
	order    []string
}

func NewScanStore(capacity int) *ScanStore {
	if capacity <= 0 {
		capacity = DefaultStoreCapacity
	}
	return &ScanStore{
		capacity: capacity,
		scans:    make(map[string]*scanRecord),
	}
}

func (s *ScanStore) Put(id string, rec *scanRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.scans[id]; !ok {
		s.order = append(s.order, id)
	}
	s.scans[id] = rec
	for len(s.order) > s.capacity {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.scans, oldest)
	}
}

func (s *ScanStore) Get(id string) (*scanRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.scans[id]
	return rec, ok
}

func (s *ScanStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.scans[id]; !ok {
		return false
	}
	delete(s.scans, id)
	for i, have := range s.order {
		if have == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// List returns summaries newest first by insertion order.
func (s *ScanStore) List() []ScanSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ScanSummary, 0, len(s.order))
	for _, id := range slices.Backward(s.order) {
		rec := s.scans[id]
		out = append(out, ScanSummary{
			ID:        id,
			Input:     rec.Document.Input,
			InputSize: rec.Document.InputSize,
			Tables:    len(rec.Document.Tables),
			CreatedAt: rec.CreatedAt.Unix(),
		})
	}
	return out
}
