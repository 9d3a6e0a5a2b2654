package events

import (
	"slices"
	"sync"

	"go.uber.org/zap"
)

var _ EventStore = (*InMemoryEventStore)(nil)

// InMemoryEventStore keeps every run's events in one ordered log and
// delivers them to subscribers on their own goroutines. Wait blocks until
// all deliveries issued so far have finished.
type InMemoryEventStore struct {
	mu sync.RWMutex
	// log holds every event in append order; byRun indexes it per stream
	log         []RunEvent
	byRun       map[string][]int
	subscribers map[string][]EventHandler
	inflight    sync.WaitGroup
	logger      *zap.Logger
}

// NewInMemoryEventStore creates an empty store. A nil logger discards handler failures.
func NewInMemoryEventStore(logger *zap.Logger) *InMemoryEventStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InMemoryEventStore{
		byRun:       make(map[string][]int),
		subscribers: make(map[string][]EventHandler),
		logger:      logger.Named("events"),
	}
}

func (s *InMemoryEventStore) AppendEvent(streamID string, event Event) error {
	s.mu.Lock()
	positions := s.byRun[streamID]
	stored := sequenced(event, streamID, len(positions)+1)
	s.byRun[streamID] = append(positions, len(s.log))
	s.log = append(s.log, stored)
	handlers := slices.Clone(s.subscribers[stored.Kind])
	s.mu.Unlock()

	for _, h := range handlers {
		if !h.CanHandle(stored.Kind) {
			continue
		}
		s.inflight.Add(1)
		go s.deliver(h, stored)
	}
	return nil
}

// ReadEvents returns the events of one stream starting at fromVersion (1-based)
func (s *InMemoryEventStore) ReadEvents(streamID string, fromVersion int) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	positions := s.byRun[streamID]
	start := max(fromVersion, 1) - 1
	if start >= len(positions) {
		return []Event{}, nil
	}
	out := make([]Event, 0, len(positions)-start)
	for _, pos := range positions[start:] {
		out = append(out, s.log[pos])
	}
	return out, nil
}

// ReadAllEvents returns events across all streams from a 0-based log position
func (s *InMemoryEventStore) ReadAllEvents(fromPosition int) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := max(fromPosition, 0)
	if start >= len(s.log) {
		return []Event{}, nil
	}
	out := make([]Event, 0, len(s.log)-start)
	for _, e := range s.log[start:] {
		out = append(out, e)
	}
	return out, nil
}

func (s *InMemoryEventStore) Subscribe(eventTypes []string, handler EventHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range eventTypes {
		s.subscribers[t] = append(s.subscribers[t], handler)
	}
	return nil
}

func (s *InMemoryEventStore) Unsubscribe(handler EventHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for t, handlers := range s.subscribers {
		s.subscribers[t] = slices.DeleteFunc(handlers, func(h EventHandler) bool { return h == handler })
	}
	return nil
}

// Wait blocks until every subscriber delivery issued so far has completed
func (s *InMemoryEventStore) Wait() {
	s.inflight.Wait()
}

func (s *InMemoryEventStore) deliver(h EventHandler, e RunEvent) {
	defer s.inflight.Done()
	if err := h.Handle(e); err != nil {
		s.logger.Warn("event handler failed",
			zap.String("type", e.Kind),
			zap.String("run_id", e.RunID),
			zap.Error(err),
		)
	}
}
