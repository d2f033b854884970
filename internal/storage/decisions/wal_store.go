// Package decisions journals strategy decisions in a write-ahead log.
package decisions

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"

	"github.com/vadiminshakov/momentum/internal/domain"
)

const (
	DefaultDir   = "./wal/decisions"
	segmentLimit = 100
	maxSegments  = 10

	keyPrefix = "momentum_decision_"
)

// WALStore persists decision events in a WAL.
type WALStore struct {
	wal *gowal.Wal
	mu  sync.RWMutex
}

// NewWALStore opens or creates the journal in dir.
func NewWALStore(dir string) (*WALStore, error) {
	if dir == "" {
		dir = DefaultDir
	}

	wal, err := gowal.NewWAL(gowal.Config{
		Dir:              dir,
		Prefix:           "decision_",
		SegmentThreshold: segmentLimit,
		MaxSegments:      maxSegments,
		IsInSyncDiskMode: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "init decision WAL")
	}

	return &WALStore{wal: wal}, nil
}

// Save appends the event under the next index.
func (s *WALStore) Save(event domain.DecisionEvent) error {
	if s == nil || s.wal == nil {
		return errors.New("decision store is not initialized")
	}
	if event.Pair == "" {
		return errors.New("decision event pair is required")
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshal decision event")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Write(s.wal.CurrentIndex()+1, keyPrefix+event.Pair, payload)
}

// EventsAfter returns events written after index, oldest first.
func (s *WALStore) EventsAfter(index uint64) ([]domain.DecisionEventRecord, error) {
	if s == nil || s.wal == nil {
		return nil, errors.New("decision store is not initialized")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	current := s.wal.CurrentIndex()
	if current <= index {
		return nil, nil
	}

	records := make([]domain.DecisionEventRecord, 0, current-index)
	for idx := index + 1; idx <= current; idx++ {
		key, payload, err := s.wal.Get(idx)
		if err != nil || !strings.HasPrefix(key, keyPrefix) {
			continue
		}

		var event domain.DecisionEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, errors.Wrapf(err, "decode decision event %d", idx)
		}
		records = append(records, domain.DecisionEventRecord{Index: idx, Event: event})
	}

	return records, nil
}

// CurrentIndex returns the latest WAL index stored.
func (s *WALStore) CurrentIndex() uint64 {
	if s == nil || s.wal == nil {
		return 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.wal.CurrentIndex()
}

// Close closes the underlying WAL.
func (s *WALStore) Close() error {
	if s == nil || s.wal == nil {
		return errors.New("decision store is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Close()
}
