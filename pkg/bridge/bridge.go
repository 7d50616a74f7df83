// Package bridge mirrors traffic between the two sides of a paired
// channel.
package bridge

import (
	"context"
	"fmt"

	"github.com/sintia-bot/sintia/pkg/generic"
	"github.com/sintia-bot/sintia/pkg/telemetry"
)

// CrossPost is a dispatch listener that relays a message to every
// binding of its channel except the one it arrived on, prefixed with
// the author. Bot traffic is not relayed, which also keeps a relayed
// message from echoing back.
func CrossPost(ctx context.Context, msg *generic.Message) error {
	if msg.Author.IsBot || msg.Content == "" {
		return nil
	}
	if msg.Channel == nil || len(msg.Channel.Bindings) < 2 {
		return nil
	}

	origin := ""
	if msg.Origin.Endpoint != nil {
		origin = msg.Origin.Endpoint.Name()
	}

	relay := fmt.Sprintf("<%s> %s", msg.Author.DisplayName, msg.Content)
	var firstErr error
	for _, binding := range msg.Channel.Bindings {
		if binding.Endpoint.Name() == origin {
			continue
		}
		if err := binding.Endpoint.SendText(ctx, binding.Target, relay); err != nil {
			telemetry.DeliveryFailure(binding.Endpoint.Name())
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to relay to %s: %w", binding.Endpoint.Name(), err)
			}
		}
	}
	return firstErr
}
