// Package bus funnels inbound events from the transport adapters to the
// dispatcher. Each adapter delivers sequentially in its own arrival order;
// the consumer decides how concurrently events are handled. Replies do not
// travel through the bus because senders need per-endpoint outcomes, which
// a fire-and-forget queue cannot report.
package bus

import (
	"context"
	"sync"
)

type MessageBus struct {
	inbound chan InboundEvent
	closed  bool
	mu      sync.RWMutex
}

func NewMessageBus() *MessageBus {
	return &MessageBus{
		inbound: make(chan InboundEvent, 100),
	}
}

func (mb *MessageBus) PublishInbound(evt InboundEvent) {
	mb.mu.RLock()
	defer mb.mu.RUnlock()
	if mb.closed {
		return
	}
	mb.inbound <- evt
}

func (mb *MessageBus) ConsumeInbound(ctx context.Context) (InboundEvent, bool) {
	select {
	case evt, ok := <-mb.inbound:
		if !ok {
			return InboundEvent{}, false
		}
		return evt, true
	case <-ctx.Done():
		return InboundEvent{}, false
	}
}

func (mb *MessageBus) Close() {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	if mb.closed {
		return
	}
	mb.closed = true
	close(mb.inbound)
}
