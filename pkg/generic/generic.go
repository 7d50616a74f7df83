// Package generic holds the transport-erasing message envelope. Transport
// adapters wrap every inbound unit of chat into these types so the
// dispatcher, the vote aggregator and all command handlers never see a
// native Discord or IRC object.
package generic

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrUnsupported is returned by endpoint operations a transport cannot
// perform natively (reactions on the line protocol, for example). Callers
// fall back to a textual rendering instead of failing.
var ErrUnsupported = errors.New("operation not supported by transport")

// User is a transport-unified identity. Two values for the same underlying
// transport identity carry the same Transport and ID; values from different
// transports never compare equal even when display names match. Line
// protocol IDs are synthesized by hashing the login name, so distinct people
// reusing a nickname over time are indistinguishable. That is an accepted
// limitation of the identity model.
type User struct {
	Transport   string
	ID          int64
	DisplayName string
	IsBot       bool
	Mention     string
}

// Key identifies a user independently of mutable fields like DisplayName.
type UserKey struct {
	Transport string
	ID        int64
}

func (u User) Key() UserKey {
	return UserKey{Transport: u.Transport, ID: u.ID}
}

// Endpoint is one concrete transport surface of a paired channel. Adapters
// implement it; target is always the endpoint's native channel identifier
// (a Discord channel ID, an IRC room name).
type Endpoint interface {
	Name() string
	SendText(ctx context.Context, target, text string) error
	SendEmbed(ctx context.Context, target string, embed *Embed) error
	React(ctx context.Context, target, messageID, token string) error
	ResolveMention(target, token string) (User, bool)
}

// MessageDeleter is implemented by endpoints that can retract messages.
type MessageDeleter interface {
	DeleteMessage(ctx context.Context, target, messageID string) error
}

// Embed is a rich reply. Transports without rich content render it through
// PlainText.
type Embed struct {
	Title       string
	URL         string
	Description string
	Thumbnail   string
}

// PlainText is the degraded rendering used by line-protocol endpoints.
func (e *Embed) PlainText() string {
	return fmt.Sprintf("%s (%s)\n%s", e.Title, e.URL, e.Description)
}

// Binding ties an endpoint to its native channel identifier within a pair.
type Binding struct {
	Endpoint Endpoint
	Target   string
}

// Channel is a pairing of mirrored transport channels. Sends fan out to
// every binding; a channel backed by a single transport simply has one.
type Channel struct {
	Name       string
	Restricted bool
	Bindings   []Binding
}

// DeliveryError reports a failed send on one endpoint of a pair.
type DeliveryError struct {
	Endpoint string
	Err      error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery to %s failed: %v", e.Endpoint, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Send delivers content to every bound endpoint concurrently. Each
// delivery is independent best effort: one endpoint failing never prevents
// or rolls back the other. The returned error joins the per-endpoint
// failures, if any.
func (c *Channel) Send(ctx context.Context, content string, embed *Embed) error {
	errs := make([]error, len(c.Bindings))
	done := make(chan struct{})

	for i, binding := range c.Bindings {
		go func(i int, b Binding) {
			defer func() { done <- struct{}{} }()

			var err error
			if embed != nil {
				err = b.Endpoint.SendEmbed(ctx, b.Target, embed)
			} else {
				err = b.Endpoint.SendText(ctx, b.Target, content)
			}
			if err != nil {
				errs[i] = &DeliveryError{Endpoint: b.Endpoint.Name(), Err: err}
			}
		}(i, binding)
	}
	for range c.Bindings {
		<-done
	}

	return errors.Join(errs...)
}

// Origin is the back-reference to the transport message an envelope was
// built from. It exists only so acknowledgement reactions can reach the
// native message; MessageID is empty on transports without message
// identity.
type Origin struct {
	Endpoint  Endpoint
	Target    string
	MessageID string
}

// Message is the envelope for one inbound unit of text. It is built once
// per event and discarded when handling completes.
type Message struct {
	Channel   *Channel
	Author    User
	GuildID   int64
	ChannelID int64
	Content   string
	Mentions  []User
	Origin    Origin
	Timestamp time.Time
}

// AddReaction acknowledges the message with a reaction token. When the
// originating transport has no reaction primitive the token is sent as a
// textual reply addressed to the author.
func (m *Message) AddReaction(ctx context.Context, token string) error {
	if m.Origin.Endpoint == nil {
		return nil
	}

	if m.Origin.MessageID != "" {
		err := m.Origin.Endpoint.React(ctx, m.Origin.Target, m.Origin.MessageID, token)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrUnsupported) {
			return err
		}
	}

	reply := fmt.Sprintf("%s: %s", m.Author.Mention, token)
	return m.Origin.Endpoint.SendText(ctx, m.Origin.Target, reply)
}

// ReactionEvent is one reaction added to or removed from a transport
// message. Only transports with a native reaction primitive produce these.
type ReactionEvent struct {
	GuildID        int64
	ChannelID      int64
	Origin         Origin
	MessageAuthor  User
	MessageContent string
	// MessageIsSelf marks reactions on the bot's own messages, which get
	// moderation and quote-vote semantics instead of emoji scoring.
	MessageIsSelf bool
	Reactor       User
	Emoji         string
	Count         int
}

// ReactionSink consumes reaction events from transport adapters.
type ReactionSink interface {
	ReactionAdded(ctx context.Context, ev ReactionEvent)
	ReactionRemoved(ctx context.Context, ev ReactionEvent)
}

// ResolveMention resolves a mention token against the message's origin,
// typically a guild member lookup or a room roster probe.
func (m *Message) ResolveMention(token string) (User, bool) {
	if m.Origin.Endpoint == nil {
		return User{}, false
	}
	return m.Origin.Endpoint.ResolveMention(m.Origin.Target, token)
}
