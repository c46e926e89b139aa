package audit

import "context"

// Worker drains audit events from a channel into a store plus an optional
// Kafka sink. It keeps background processing testable without wiring queue
// implementations into services.
type Worker struct {
	store Store
	sink  *KafkaSink
	inbox <-chan Event
}

// NewWorker constructs a worker. sink may be nil.
func NewWorker(store Store, sink *KafkaSink, inbox <-chan Event) *Worker {
	return &Worker{store: store, sink: sink, inbox: inbox}
}

// Run processes events until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				return err
			}
			if w.sink != nil {
				w.sink.Publish(ctx, event)
			}
		}
	}
}
