package testutil

import (
	"context"
	"sync"

	"github.com/funduq/funduq/internal/publisher"
)

// RecordingPublisher keeps published events in memory
type RecordingPublisher struct {
	mu     sync.Mutex
	events []*publisher.PaymentEvent

	// Err, when set, fails every publish
	Err error
}

func NewRecordingPublisher() *RecordingPublisher {
	return &RecordingPublisher{}
}

func (p *RecordingPublisher) PublishApplied(_ context.Context, event *publisher.PaymentEvent) error {
	if p.Err != nil {
		return p.Err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *RecordingPublisher) Events() []*publisher.PaymentEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*publisher.PaymentEvent(nil), p.events...)
}

func (p *RecordingPublisher) Close() error {
	return nil
}

var _ publisher.EventPublisher = (*RecordingPublisher)(nil)
