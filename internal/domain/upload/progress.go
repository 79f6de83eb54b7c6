package upload

import (
	"sort"
	"sync"
	"time"

	"cinevault/services/upload-api/utils/uploadid"
)

// Status is the observer-visible state of one upload attempt.
type Status string

const (
	StatusPending   Status = "pending"
	StatusUploading Status = "uploading"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether no further transitions can occur.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Record is the progress/status row for one upload attempt. Ids are
// minted per attempt and never reused.
type Record struct {
	ID          string     `json:"id"`
	FileName    string     `json:"fileName"`
	FileSize    int64      `json:"fileSize"`
	Progress    int        `json:"progress"`
	Status      Status     `json:"status"`
	Error       string     `json:"error,omitempty"`
	StartedAt   time.Time  `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	Result      *Result    `json:"result,omitempty"`
}

// EventType identifies a progress store mutation.
type EventType string

const (
	EventAdded    EventType = "added"
	EventProgress EventType = "progress"
	EventStatus   EventType = "status"
	EventRemoved  EventType = "removed"
)

// Event is broadcast to subscribers on every store mutation.
type Event struct {
	Type   EventType `json:"type"`
	Record Record    `json:"record"`
}

// ProgressStore is the concurrency-safe table of in-flight and recently
// finished uploads. Every mutation is a single read-modify-write under
// the lock, so progress and completion racing from different goroutines
// can never lose updates. Visibility time-boxing is the observer's
// policy, not the store's.
type ProgressStore struct {
	mu          sync.RWMutex
	records     map[string]*Record
	subscribers map[int]chan Event
	nextSub     int
}

func NewProgressStore() *ProgressStore {
	return &ProgressStore{
		records:     make(map[string]*Record),
		subscribers: make(map[int]chan Event),
	}
}

// Add registers a new pending upload and returns its record id.
func (s *ProgressStore) Add(fileName string, fileSize int64) string {
	id := uploadid.New()
	record := &Record{
		ID:        id,
		FileName:  fileName,
		FileSize:  fileSize,
		Progress:  0,
		Status:    StatusPending,
		StartedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.records[id] = record
	snapshot := *record
	s.mu.Unlock()

	s.broadcast(Event{Type: EventAdded, Record: snapshot})
	return id
}

// UpdateProgress clamps pct to [0,100] and forces the record into
// Uploading. Unknown ids are a silent no-op: the caller may race with a
// cancellation or removal.
func (s *ProgressStore) UpdateProgress(id string, pct int) {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}

	s.mu.Lock()
	record, ok := s.records[id]
	if !ok || record.Status.Terminal() {
		s.mu.Unlock()
		return
	}
	record.Progress = pct
	record.Status = StatusUploading
	snapshot := *record
	s.mu.Unlock()

	s.broadcast(Event{Type: EventProgress, Record: snapshot})
}

// SetStatus transitions the record; a terminal status stamps CompletedAt,
// a non-terminal status leaves it unset.
func (s *ProgressStore) SetStatus(id string, status Status, errMsg string) {
	s.mu.Lock()
	record, ok := s.records[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	record.Status = status
	record.Error = errMsg
	if status.Terminal() {
		now := time.Now().UTC()
		record.CompletedAt = &now
	}
	snapshot := *record
	s.mu.Unlock()

	s.broadcast(Event{Type: EventStatus, Record: snapshot})
}

// Complete marks the record completed with full progress and the
// provider result attached.
func (s *ProgressStore) Complete(id string, result *Result) {
	s.mu.Lock()
	record, ok := s.records[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	record.Status = StatusCompleted
	record.Progress = 100
	record.Error = ""
	record.Result = result
	now := time.Now().UTC()
	record.CompletedAt = &now
	snapshot := *record
	s.mu.Unlock()

	s.broadcast(Event{Type: EventStatus, Record: snapshot})
}

// Remove deletes the record. Unknown ids are a no-op.
func (s *ProgressStore) Remove(id string) {
	s.mu.Lock()
	record, ok := s.records[id]
	if ok {
		delete(s.records, id)
	}
	var snapshot Record
	if ok {
		snapshot = *record
	}
	s.mu.Unlock()

	if ok {
		s.broadcast(Event{Type: EventRemoved, Record: snapshot})
	}
}

// ClearTerminal removes every record in a terminal status and returns
// how many were dropped.
func (s *ProgressStore) ClearTerminal() int {
	s.mu.Lock()
	removed := make([]Record, 0)
	for id, record := range s.records {
		if record.Status.Terminal() {
			removed = append(removed, *record)
			delete(s.records, id)
		}
	}
	s.mu.Unlock()

	for _, record := range removed {
		s.broadcast(Event{Type: EventRemoved, Record: record})
	}
	return len(removed)
}

// ListActive returns a snapshot of records that have not reached a
// terminal status, newest first.
func (s *ProgressStore) ListActive() []Record {
	return s.list(func(r *Record) bool { return !r.Status.Terminal() })
}

// List returns a snapshot of every record, newest first.
func (s *ProgressStore) List() []Record {
	return s.list(func(*Record) bool { return true })
}

// HasActive reports whether any upload is still in flight.
func (s *ProgressStore) HasActive() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, record := range s.records {
		if !record.Status.Terminal() {
			return true
		}
	}
	return false
}

// Get returns a snapshot of one record.
func (s *ProgressStore) Get(id string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[id]
	if !ok {
		return Record{}, false
	}
	return *record, true
}

// Len returns the number of records currently held.
func (s *ProgressStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Subscribe registers an observer channel. The returned func cancels the
// subscription and closes the channel. Slow observers lose events rather
// than block uploaders.
func (s *ProgressStore) Subscribe() (<-chan Event, func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	ch := make(chan Event, 64)
	s.subscribers[id] = ch
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if existing, ok := s.subscribers[id]; ok {
			delete(s.subscribers, id)
			close(existing)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *ProgressStore) list(keep func(*Record) bool) []Record {
	s.mu.RLock()
	out := make([]Record, 0, len(s.records))
	for _, record := range s.records {
		if keep(record) {
			out = append(out, *record)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out
}

func (s *ProgressStore) broadcast(event Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}
