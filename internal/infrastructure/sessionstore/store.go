// Package sessionstore keeps resumable upload sessions in memory so a
// caller can look up the transfer endpoint it was handed. Entries expire
// after a retention window; a background sweep reclaims them.
package sessionstore

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"cinevault/services/upload-api/internal/domain/upload"
)

type entry struct {
	session upload.Session
	addedAt time.Time
}

type Store struct {
	mu        sync.RWMutex
	entries   map[string]entry
	retention time.Duration
	done      chan struct{}
	stopOnce  sync.Once
	log       zerolog.Logger
}

func New(retention, sweepInterval time.Duration, log zerolog.Logger) *Store {
	s := &Store{
		entries:   make(map[string]entry),
		retention: retention,
		done:      make(chan struct{}),
		log:       log.With().Str("component", "session-store").Logger(),
	}
	if sweepInterval > 0 {
		go s.sweep(sweepInterval)
	}
	return s
}

func (s *Store) Put(sess upload.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[sess.UploadID]; exists {
		return fmt.Errorf("session %s already registered", sess.UploadID)
	}
	s.entries[sess.UploadID] = entry{session: sess, addedAt: time.Now()}
	return nil
}

// Get returns the session if it exists and has not aged out. Expired
// entries are removed lazily here as well as by the sweeper.
func (s *Store) Get(uploadID string) (upload.Session, bool) {
	s.mu.RLock()
	e, ok := s.entries[uploadID]
	s.mu.RUnlock()
	if !ok {
		return upload.Session{}, false
	}
	if s.expired(e, time.Now()) {
		s.mu.Lock()
		delete(s.entries, uploadID)
		s.mu.Unlock()
		return upload.Session{}, false
	}
	return e.session, true
}

func (s *Store) Delete(uploadID string) {
	s.mu.Lock()
	delete(s.entries, uploadID)
	s.mu.Unlock()
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Store) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

func (s *Store) expired(e entry, now time.Time) bool {
	return s.retention > 0 && now.Sub(e.addedAt) > s.retention
}

func (s *Store) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			now := time.Now()
			removed := 0
			s.mu.Lock()
			for id, e := range s.entries {
				if s.expired(e, now) {
					delete(s.entries, id)
					removed++
				}
			}
			s.mu.Unlock()
			if removed > 0 {
				s.log.Debug().Int("removed", removed).Msg("swept expired upload sessions")
			}
		}
	}
}
