package audit

import "context"

// QueueStore decouples emit from persistence: Append pushes the event onto
// the worker's inbox and the worker owns the durable store plus the optional
// Kafka sink. Reads go straight to the durable store, so recently queued
// events may not be visible yet.
type QueueStore struct {
	inbox chan<- Event
	reads Store
}

// NewQueueStore builds the channel-backed store facade for the worker.
func NewQueueStore(inbox chan<- Event, reads Store) *QueueStore {
	return &QueueStore{inbox: inbox, reads: reads}
}

// Append enqueues the event. A full inbox blocks until the worker catches
// up or the context is cancelled; audit loss is worse than backpressure.
func (s *QueueStore) Append(ctx context.Context, event Event) error {
	select {
	case s.inbox <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ListByEntity delegates to the durable store.
func (s *QueueStore) ListByEntity(ctx context.Context, entityID string) ([]Event, error) {
	return s.reads.ListByEntity(ctx, entityID)
}
