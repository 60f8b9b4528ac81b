package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/predictions-league/internal/domain/event"
)

// EventStore is the in-memory append-only log. It backs tests and the
// single-process deployment mode; the postgres store is the durable twin.
type EventStore struct {
	mu          sync.RWMutex
	streams     map[string][]event.Envelope
	log         []event.Envelope
	nextSeq     int64
	subscribers map[int]*subscriber
	nextSubID   int
}

func NewEventStore() *EventStore {
	return &EventStore{
		streams:     map[string][]event.Envelope{},
		nextSeq:     1,
		subscribers: map[int]*subscriber{},
	}
}

func (s *EventStore) Append(_ context.Context, streamID string, expectedVersion int, events []event.Envelope) error {
	if len(events) == 0 {
		return nil
	}

	s.mu.Lock()
	stream := s.streams[streamID]
	if expectedVersion != event.AnyVersion && len(stream) != expectedVersion {
		s.mu.Unlock()
		return event.ErrConflict
	}

	appended := make([]event.Envelope, 0, len(events))
	for i, env := range events {
		env.StreamID = streamID
		env.Version = len(stream) + i + 1
		env.GlobalSeq = s.nextSeq
		s.nextSeq++
		stream = append(stream, env)
		s.log = append(s.log, env)
		appended = append(appended, env)
	}
	s.streams[streamID] = stream

	// Enqueue under the store lock so subscriber queues always see the
	// global order. enqueue never blocks, it only grows a slice.
	for _, sub := range s.subscribers {
		sub.enqueue(appended)
	}
	s.mu.Unlock()
	return nil
}

func (s *EventStore) ReadStream(_ context.Context, streamID string) ([]event.Envelope, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stream := s.streams[streamID]
	out := make([]event.Envelope, len(stream))
	copy(out, stream)
	return out, nil
}

func (s *EventStore) ReadAll(_ context.Context, fromSeq int64, limit int) ([]event.Envelope, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]event.Envelope, 0, limit)
	for _, env := range s.log {
		if env.GlobalSeq < fromSeq {
			continue
		}
		out = append(out, env)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *EventStore) Subscribe(ctx context.Context) (<-chan event.Envelope, func()) {
	sub := newSubscriber()

	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = sub
	s.mu.Unlock()

	stop := func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
		sub.close()
	}

	go sub.pump(ctx)
	return sub.out, stop
}

// subscriber decouples appenders from a possibly slow consumer: Append only
// queues, the pump goroutine feeds the channel in order.
type subscriber struct {
	mu     sync.Mutex
	queue  []event.Envelope
	wake   chan struct{}
	out    chan event.Envelope
	closed bool
}

func newSubscriber() *subscriber {
	return &subscriber{
		wake: make(chan struct{}, 1),
		out:  make(chan event.Envelope),
	}
}

func (sub *subscriber) enqueue(events []event.Envelope) {
	sub.mu.Lock()
	if sub.closed {
		sub.mu.Unlock()
		return
	}
	sub.queue = append(sub.queue, events...)
	sub.mu.Unlock()

	select {
	case sub.wake <- struct{}{}:
	default:
	}
}

func (sub *subscriber) close() {
	sub.mu.Lock()
	sub.closed = true
	sub.mu.Unlock()

	select {
	case sub.wake <- struct{}{}:
	default:
	}
}

func (sub *subscriber) pump(ctx context.Context) {
	defer close(sub.out)

	for {
		sub.mu.Lock()
		batch := sub.queue
		sub.queue = nil
		closed := sub.closed
		sub.mu.Unlock()

		for _, env := range batch {
			select {
			case sub.out <- env:
			case <-ctx.Done():
				return
			}
		}
		if closed {
			return
		}

		select {
		case <-sub.wake:
		case <-ctx.Done():
			return
		}
	}
}
