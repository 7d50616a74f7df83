package bus

import "context"

type Publisher interface {
	PublishInbound(InboundEvent)
}

type Subscriber interface {
	ConsumeInbound(context.Context) (InboundEvent, bool)
}

type Broker interface {
	Publisher
	Subscriber
	Close()
}
