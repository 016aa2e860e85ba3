package api

import (
	"sync"
)

// EventType names the kind of a broadcast event.
type EventType string

const (
	// EventTypeState is a register/PC snapshot for one core.
	EventTypeState EventType = "state"
	// EventTypeFramebuffer announces that a new frame is ready to fetch
	// over the framebuffer endpoints, without carrying the pixel data
	// itself (clients pull the buffer they care about).
	EventTypeFramebuffer EventType = "framebuffer"
	// EventTypeExecution covers breakpoint hits, halts, and errors.
	EventTypeExecution EventType = "execution"
)

// BroadcastEvent is one message fanned out to every matching
// subscriber. Core is the originating core's name ("ARM9"/"ARM11"), or
// empty for an event with no single core (a framebuffer tick).
type BroadcastEvent struct {
	Type EventType              `json:"type"`
	Core string                 `json:"core,omitempty"`
	Data map[string]interface{} `json:"data"`
}

// Subscription is a client's filtered view onto the broadcaster.
type Subscription struct {
	EventTypes map[EventType]bool
	Channel    chan BroadcastEvent
}

// Broadcaster fans events out to every subscribed WebSocket client.
// Registration and delivery run on one internal goroutine; mu guards
// the map of subscriptions so SubscriptionCount can read it from other
// goroutines.
type Broadcaster struct {
	mu            sync.RWMutex
	subscriptions map[*Subscription]bool
	broadcast     chan BroadcastEvent
	register      chan *Subscription
	unregister    chan *Subscription
	done          chan struct{}
}

// NewBroadcaster creates and starts a new event broadcaster.
func NewBroadcaster() *Broadcaster {
	b := &Broadcaster{
		subscriptions: make(map[*Subscription]bool),
		broadcast:     make(chan BroadcastEvent, 256),
		register:      make(chan *Subscription),
		unregister:    make(chan *Subscription),
		done:          make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Broadcaster) run() {
	for {
		select {
		case sub := <-b.register:
			b.mu.Lock()
			b.subscriptions[sub] = true
			b.mu.Unlock()

		case sub := <-b.unregister:
			b.mu.Lock()
			if b.subscriptions[sub] {
				delete(b.subscriptions, sub)
				close(sub.Channel)
			}
			b.mu.Unlock()

		case event := <-b.broadcast:
			b.mu.RLock()
			for sub := range b.subscriptions {
				if len(sub.EventTypes) > 0 && !sub.EventTypes[event.Type] {
					continue
				}
				select {
				case sub.Channel <- event:
				default:
					// client is too slow, drop this event for it
				}
			}
			b.mu.RUnlock()

		case <-b.done:
			b.mu.Lock()
			for sub := range b.subscriptions {
				close(sub.Channel)
			}
			b.subscriptions = make(map[*Subscription]bool)
			b.mu.Unlock()
			return
		}
	}
}

// Subscribe creates a new subscription. eventTypes filters by type;
// empty means every type.
func (b *Broadcaster) Subscribe(eventTypes []EventType) *Subscription {
	eventTypeMap := make(map[EventType]bool)
	for _, et := range eventTypes {
		eventTypeMap[et] = true
	}

	sub := &Subscription{
		EventTypes: eventTypeMap,
		Channel:    make(chan BroadcastEvent, 64),
	}

	b.register <- sub
	return sub
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Broadcaster) Unsubscribe(sub *Subscription) {
	b.unregister <- sub
}

// Broadcast sends an event to all matching subscriptions. Non-blocking:
// if the internal queue is full the event is dropped rather than
// stalling the caller (typically the inspector's polling loop).
func (b *Broadcaster) Broadcast(event BroadcastEvent) {
	select {
	case b.broadcast <- event:
	default:
	}
}

// BroadcastState sends a register/PC snapshot for core.
func (b *Broadcaster) BroadcastState(core string, data map[string]interface{}) {
	b.Broadcast(BroadcastEvent{Type: EventTypeState, Core: core, Data: data})
}

// BroadcastFramebuffer announces a new frame is available.
func (b *Broadcaster) BroadcastFramebuffer() {
	b.Broadcast(BroadcastEvent{Type: EventTypeFramebuffer})
}

// BroadcastExecutionEvent sends a breakpoint/halt/error notification
// for core.
func (b *Broadcaster) BroadcastExecutionEvent(core string, eventName string, details map[string]interface{}) {
	data := make(map[string]interface{})
	data["event"] = eventName
	for k, v := range details {
		data[k] = v
	}
	b.Broadcast(BroadcastEvent{Type: EventTypeExecution, Core: core, Data: data})
}

// Close shuts down the broadcaster and closes all subscriptions.
func (b *Broadcaster) Close() {
	close(b.done)
}

// SubscriptionCount returns the number of active subscriptions.
func (b *Broadcaster) SubscriptionCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscriptions)
}
