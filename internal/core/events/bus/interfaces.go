// Package bus carries lifecycle notifications of the navigation layer:
// meshes being built, crowds opening and closing, agents and formations
// coming and going.
//
// Delivery is synchronous on the publishing goroutine, exact-type
// subscribers first and Wildcard subscribers after them, each group in
// subscription order. Handler errors are joined and returned from Publish;
// they never stop delivery to the remaining handlers.
package bus

import "time"

type EventBus interface {
	Publish(event Event) error
	// Subscribe registers handler for eventType, or for every type when
	// eventType is Wildcard.
	Subscribe(eventType string, handler EventHandler) (Subscription, error)
	// Unsubscribe cancels sub. Nil is ignored.
	Unsubscribe(sub Subscription) error
	// Stats returns a snapshot of the publish counters.
	Stats() Stats
}

type Event interface {
	Type() string
	Source() string
	Timestamp() time.Time
	Data() any
}

type EventHandler func(event Event) error

type Subscription interface {
	ID() string
	EventType() string
	IsActive() bool
	// Cancel stops delivery. Repeated calls are no-ops.
	Cancel() error
}

// Stats counts published events and failed deliveries.
type Stats struct {
	Published uint64
	Failed    uint64
	ByType    map[string]uint64
}
