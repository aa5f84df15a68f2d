package run

import (
	"time"

	"github.com/kode4food/caravan"
	"github.com/kode4food/caravan/topic"

	"github.com/showkit/showrunner/pkg/api"
)

// Hub fans run events out to subscribers. Each WebSocket client gets its
// own consumer with an independent cursor
type Hub struct {
	topic topic.Topic[api.Event]
	prod  topic.Producer[api.Event]
}

// NewHub creates an event hub
func NewHub() *Hub {
	t := caravan.NewTopic[api.Event]()
	return &Hub{
		topic: t,
		prod:  t.NewProducer(),
	}
}

// Publish emits an event to all subscribers
func (h *Hub) Publish(ev api.Event) {
	ev.Timestamp = time.Now()
	h.prod.Send() <- ev
}

// NewConsumer registers a new subscriber
func (h *Hub) NewConsumer() topic.Consumer[api.Event] {
	return h.topic.NewConsumer()
}

// Close stops the hub's producer
func (h *Hub) Close() {
	h.prod.Close()
}
