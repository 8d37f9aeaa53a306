package memstore

import (
	"sync"
	"time"

	"crm-dialer/internal/store"
)

// Store keeps records in process memory. Records expire after ttl.
type Store struct {
	ttl      time.Duration
	now      func() time.Time
	mu       sync.Mutex
	audioRep *AudioRepository
}

// New ...
func New(ttl time.Duration) *Store {
	return &Store{
		ttl: ttl,
		now: time.Now,
	}
}

func (s *Store) Audio() store.AudioRepository {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.audioRep != nil {
		return s.audioRep
	}

	s.audioRep = &AudioRepository{
		store:   s,
		records: make(map[string]audioRecord),
	}

	return s.audioRep
}
