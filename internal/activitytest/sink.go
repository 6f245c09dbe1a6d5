// Package activitytest provides test doubles for the activity logger.
package activitytest

import (
	"context"
	"sync"

	"giftpoints/custodian/pkg/activity"
)

// Delivery is a message captured by RecordingSink.
type Delivery struct {
	Endpoint string
	Message  *activity.Message
}

// RecordingSink captures every message instead of sending it.
type RecordingSink struct {
	mu         sync.Mutex
	deliveries []Delivery

	// Err, when set, is returned from every Send after recording.
	Err error
}

// NewRecordingSink creates an empty recording sink.
func NewRecordingSink() *RecordingSink {
	return &RecordingSink{}
}

// Send records msg.
func (s *RecordingSink) Send(_ context.Context, endpoint string, msg *activity.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deliveries = append(s.deliveries, Delivery{Endpoint: endpoint, Message: msg})
	return s.Err
}

// Deliveries returns a copy of everything recorded so far.
func (s *RecordingSink) Deliveries() []Delivery {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Delivery, len(s.deliveries))
	copy(out, s.deliveries)
	return out
}

// Titles returns the embed title of every recorded message in order.
func (s *RecordingSink) Titles() []string {
	var titles []string
	for _, d := range s.Deliveries() {
		for _, e := range d.Message.Embeds {
			titles = append(titles, e.Title)
		}
	}
	return titles
}

// Field returns the value of the first field called name in the i'th
// recorded message, and whether it was found.
func (s *RecordingSink) Field(i int, name string) (string, bool) {
	ds := s.Deliveries()
	if i < 0 || i >= len(ds) {
		return "", false
	}
	for _, e := range ds[i].Message.Embeds {
		for _, f := range e.Fields {
			if f.Name == name {
				return f.Value, true
			}
		}
	}
	return "", false
}

// Reset discards all recorded messages.
func (s *RecordingSink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deliveries = nil
}

// Metrics counts activity outcomes by kind.
type Metrics struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewMetrics creates an empty outcome counter.
func NewMetrics() *Metrics {
	return &Metrics{counts: make(map[string]int)}
}

// RecordActivityEvent implements activity.Metrics.
func (m *Metrics) RecordActivityEvent(kind, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[kind+"/"+outcome]++
}

// Count returns how many times kind was observed with outcome.
func (m *Metrics) Count(kind, outcome string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[kind+"/"+outcome]
}
