package bus

import (
	"time"

	"github.com/sintia-bot/sintia/pkg/generic"
)

// InboundEvent is one unit of inbound chat traffic. Adapters publish one per
// native message, already wrapped in the generic envelope.
type InboundEvent struct {
	Transport string
	Message   *generic.Message
	Received  time.Time
}
