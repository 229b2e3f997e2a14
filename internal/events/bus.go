/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package events carries catalog change notifications between components.
package events

import "sync"

// EventType enumerates event categories.
type EventType string

const (
	EventProgramDescribed EventType = "program.described"
	EventProgramUpdated   EventType = "program.updated"
	EventFileValidated    EventType = "file.validated"
	EventScanCompleted    EventType = "scan.completed"
)

// Types lists every event type the catalog publishes.
func Types() []EventType {
	return []EventType{EventProgramDescribed, EventProgramUpdated, EventFileValidated, EventScanCompleted}
}

// Payload is a generic event payload. Values must be JSON encodable.
type Payload map[string]any

// Subscriber receives event payloads.
type Subscriber chan Payload

// Publisher is implemented by every bus backend.
type Publisher interface {
	Publish(eventType EventType, payload Payload)
}

// Bus is an in-process pubsub. Slow subscribers miss events rather than
// block publishers.
type Bus struct {
	mu     sync.RWMutex
	subs   map[EventType][]Subscriber
	buffer int
}

// NewBus creates an event bus whose subscriber channels hold buffer events.
func NewBus(buffer int) *Bus {
	if buffer < 1 {
		buffer = 8
	}
	return &Bus{subs: make(map[EventType][]Subscriber), buffer: buffer}
}

// Subscribe registers a subscriber for an event type.
func (b *Bus) Subscribe(eventType EventType) Subscriber {
	ch := make(Subscriber, b.buffer)
	b.mu.Lock()
	b.subs[eventType] = append(b.subs[eventType], ch)
	b.mu.Unlock()
	return ch
}

// Publish delivers payload to the current subscribers of eventType.
func (b *Bus) Publish(eventType EventType, payload Payload) {
	b.Deliver(eventType, payload)
}

// Deliver is Publish that reports how many subscribers received the event.
func (b *Bus) Deliver(eventType EventType, payload Payload) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := 0
	for _, sub := range b.subs[eventType] {
		select {
		case sub <- payload:
			n++
		default:
		}
	}
	return n
}

// Unsubscribe removes the subscriber and closes its channel.
func (b *Bus) Unsubscribe(eventType EventType, sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subs[eventType]
	for i, candidate := range subs {
		if candidate == sub {
			b.subs[eventType] = append(subs[:i:i], subs[i+1:]...)
			close(sub)
			return
		}
	}
}

// Discard is a Publisher that drops everything.
type Discard struct{}

func (Discard) Publish(EventType, Payload) {}
