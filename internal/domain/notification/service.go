package notification

import "context"

// Publisher delivers events to connected clients. Delivery is best effort.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// Subscriber opens a stream of events; the returned func releases it.
type Subscriber interface {
	Subscribe(ctx context.Context) (<-chan Event, func())
}
