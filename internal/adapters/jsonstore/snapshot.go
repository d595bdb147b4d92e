package jsonstore

import (
	"sync"

	"github.com/GorelikovMatvey/finalproject-Gorelikov-M25-555/internal/domain"
)

// snapshotDoc is the on-disk rates document. last_refresh is null until the
// first successful merge.
type snapshotDoc struct {
	Pairs       map[string]domain.PairEntry `json:"pairs"`
	LastRefresh *string                     `json:"last_refresh"`
}

// SnapshotStore keeps the current rates snapshot in one JSON file.
type SnapshotStore struct {
	mu   sync.Mutex
	path string
}

func NewSnapshotStore(path string) *SnapshotStore {
	return &SnapshotStore{path: path}
}

// Read loads the snapshot. A missing or unreadable file yields an empty
// snapshot rather than an error: the cache simply has no data yet.
func (s *SnapshotStore) Read() (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var doc snapshotDoc
	if !readDocument(s.path, &doc) || doc.Pairs == nil {
		return domain.EmptySnapshot(), nil
	}

	snap := domain.Snapshot{Pairs: doc.Pairs}
	if doc.LastRefresh != nil {
		snap.LastRefresh = *doc.LastRefresh
	}
	return snap, nil
}

// Write replaces the snapshot document. completedAt is the merge completion
// time, not any individual quote's timestamp.
func (s *SnapshotStore) Write(pairs map[string]domain.PairEntry, completedAt string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := snapshotDoc{Pairs: pairs, LastRefresh: &completedAt}
	return writeAtomic(s.path, doc)
}
