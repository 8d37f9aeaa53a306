package memstore

import (
	"sync"
	"time"

	"crm-dialer/internal/store"
)

type audioRecord struct {
	url     string
	expires time.Time
}

type AudioRepository struct {
	store   *Store
	mu      sync.Mutex
	records map[string]audioRecord
}

// Save stores the audio URL for a call and drops every record that has expired.
func (r *AudioRepository) Save(callID string, audioURL string) error {
	now := r.store.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	for id, rec := range r.records {
		if !now.Before(rec.expires) {
			delete(r.records, id)
		}
	}

	r.records[callID] = audioRecord{
		url:     audioURL,
		expires: now.Add(r.store.ttl),
	}

	return nil
}

// Find returns store.ErrRecordNotFound for unknown and expired calls.
func (r *AudioRepository) Find(callID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[callID]
	if !ok {
		return "", store.ErrRecordNotFound
	}

	if !r.store.now().Before(rec.expires) {
		delete(r.records, callID)
		return "", store.ErrRecordNotFound
	}

	return rec.url, nil
}
