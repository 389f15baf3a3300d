package testutil

import (
	"context"
	"time"

	"github.com/funduq/funduq/internal/domain/webhookevent"
	ierr "github.com/funduq/funduq/internal/errors"
	"github.com/samber/lo"
)

// InMemoryWebhookEventStore implements webhookevent.Repository
type InMemoryWebhookEventStore struct {
	*InMemoryStore[*webhookevent.Event]
}

func NewInMemoryWebhookEventStore() *InMemoryWebhookEventStore {
	return &InMemoryWebhookEventStore{
		InMemoryStore: NewInMemoryStore[*webhookevent.Event](),
	}
}

func eventKey(provider, eventID string) string {
	return provider + "/" + eventID
}

func (s *InMemoryWebhookEventStore) Record(ctx context.Context, event *webhookevent.Event) (*webhookevent.Event, error) {
	stored := s.InMemoryStore.Upsert(ctx, eventKey(event.Provider, event.EventID), func(existing *webhookevent.Event, found bool) *webhookevent.Event {
		if !found {
			next := *event
			next.ReceivedCount = 1
			next.ProcessedAt = nil
			next.ProcessingError = ""
			return &next
		}
		next := *existing
		next.ReceivedCount++
		if !existing.SignatureValid {
			next.Payload = event.Payload
		}
		next.SignatureValid = existing.SignatureValid || event.SignatureValid
		return &next
	})
	c := *stored
	return &c, nil
}

func (s *InMemoryWebhookEventStore) MarkProcessed(ctx context.Context, id string, processingErr string) error {
	event, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	event.ProcessedAt = lo.ToPtr(time.Now().UTC())
	event.ProcessingError = processingErr
	return s.InMemoryStore.Update(ctx, eventKey(event.Provider, event.EventID), event)
}

func (s *InMemoryWebhookEventStore) Get(ctx context.Context, id string) (*webhookevent.Event, error) {
	events, _ := s.InMemoryStore.List(ctx, id, func(_ context.Context, e *webhookevent.Event, filter interface{}) bool {
		return e.ID == filter.(string)
	}, nil)
	if len(events) == 0 {
		return nil, ierr.NewError("webhook event not found").
			WithReportableDetails(map[string]interface{}{"id": id}).
			Mark(ierr.ErrNotFound)
	}
	c := *events[0]
	return &c, nil
}

// All returns every recorded delivery
func (s *InMemoryWebhookEventStore) All() []*webhookevent.Event {
	events, _ := s.InMemoryStore.List(context.Background(), nil, nil, func(i, j *webhookevent.Event) bool {
		return i.ReceivedAt.Before(j.ReceivedAt)
	})
	return events
}
