package utils

import (
	"sync"
)

// Topics published by the feature services and consumed by the
// websocket gateway. Payloads are the feature packages' own types.
const (
	TopicMessageCreated = "message_created"
	TopicMessagesRead   = "messages_read"
	TopicSparkReceived  = "spark_received"
)

type Event struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

type Handler func(event Event)

type EventBus struct {
	subscribers map[string][]Handler
	events      chan Event
	mu          sync.RWMutex
}

func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[string][]Handler),
		events:      make(chan Event, 256),
	}
}

// Publish never blocks a service; if the gateway falls behind the
// event is dropped and clients recover from the HTTP history fetch.
func (eb *EventBus) Publish(event string, data interface{}) {
	eb.mu.RLock()
	handlers := eb.subscribers[event]
	eb.mu.RUnlock()
	e := Event{Event: event, Data: data}
	for _, h := range handlers {
		h(e)
	}
	select {
	case eb.events <- e:
	default:
	}
}

func (eb *EventBus) Subscribe(event string, handler Handler) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.subscribers[event] = append(eb.subscribers[event], handler)
}

// SubscribeCh exposes the ordered firehose of every published event.
// Events are delivered in publish order; the hub relies on that.
func (eb *EventBus) SubscribeCh() <-chan Event {
	return eb.events
}
