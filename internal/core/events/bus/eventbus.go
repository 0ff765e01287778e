package bus

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

const Wildcard = "*"

var ErrNilHandler = errors.New("bus: nil handler")

type event struct {
	typ    string
	source string
	at     time.Time
	data   any
}

func (e event) Type() string         { return e.typ }
func (e event) Source() string       { return e.source }
func (e event) Timestamp() time.Time { return e.at }
func (e event) Data() any            { return e.data }

// NewEvent stamps an event with the current time.
func NewEvent(typ, source string, data any) Event {
	return event{typ: typ, source: source, at: time.Now(), data: data}
}

type subscription struct {
	id        string
	eventType string
	handler   EventHandler
	bus       *memoryBus

	mu     sync.Mutex
	active bool
}

func (s *subscription) ID() string        { return s.id }
func (s *subscription) EventType() string { return s.eventType }

func (s *subscription) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *subscription) Cancel() error {
	s.mu.Lock()
	was := s.active
	s.active = false
	s.mu.Unlock()
	if was {
		s.bus.remove(s)
	}
	return nil
}

type memoryBus struct {
	mu    sync.RWMutex
	subs  map[string][]*subscription
	stats Stats
}

// New creates an empty in-memory EventBus.
func New() EventBus {
	return &memoryBus{
		subs:  make(map[string][]*subscription),
		stats: Stats{ByType: make(map[string]uint64)},
	}
}

func (b *memoryBus) Subscribe(eventType string, handler EventHandler) (Subscription, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	s := &subscription{
		id:        uuid.NewString(),
		eventType: eventType,
		handler:   handler,
		bus:       b,
		active:    true,
	}
	b.mu.Lock()
	b.subs[eventType] = append(b.subs[eventType], s)
	b.mu.Unlock()
	return s, nil
}

func (b *memoryBus) Unsubscribe(sub Subscription) error {
	if sub == nil {
		return nil
	}
	return sub.Cancel()
}

func (b *memoryBus) remove(s *subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[s.eventType] = slices.DeleteFunc(b.subs[s.eventType], func(o *subscription) bool { return o == s })
	if len(b.subs[s.eventType]) == 0 {
		delete(b.subs, s.eventType)
	}
}

func (b *memoryBus) Publish(e Event) error {
	typ := e.Type()
	b.mu.Lock()
	subs := append(append([]*subscription(nil), b.subs[typ]...), b.subs[Wildcard]...)
	b.stats.Published++
	b.stats.ByType[typ]++
	b.mu.Unlock()

	var errs error
	for _, s := range subs {
		if !s.IsActive() {
			continue
		}
		if err := s.handler(e); err != nil {
			errs = errors.Join(errs, fmt.Errorf("%s handler %s: %w", typ, s.id, err))
		}
	}
	if errs != nil {
		b.mu.Lock()
		b.stats.Failed++
		b.mu.Unlock()
	}
	return errs
}

func (b *memoryBus) Stats() Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := b.stats
	out.ByType = maps.Clone(b.stats.ByType)
	return out
}
