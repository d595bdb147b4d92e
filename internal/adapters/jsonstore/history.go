package jsonstore

import (
	"sync"

	"github.com/GorelikovMatvey/finalproject-Gorelikov-M25-555/internal/domain"
)

// HistoryStore is the append-only audit log of every fetched quote,
// stored as one JSON array.
type HistoryStore struct {
	mu   sync.Mutex
	path string
}

func NewHistoryStore(path string) *HistoryStore {
	return &HistoryStore{path: path}
}

// Append rewrites the full array with the new record at the end. A corrupt
// or missing file restarts the log empty.
func (s *HistoryStore) Append(record domain.HistoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var records []domain.HistoryRecord
	if !readDocument(s.path, &records) {
		records = nil
	}
	records = append(records, record)
	return writeAtomic(s.path, records)
}

// All returns every logged record, oldest first.
func (s *HistoryStore) All() ([]domain.HistoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var records []domain.HistoryRecord
	if !readDocument(s.path, &records) {
		return nil, nil
	}
	return records, nil
}
