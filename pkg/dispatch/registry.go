package dispatch

import (
	"context"

	"github.com/sintia-bot/sintia/pkg/generic"
)

// HandlerFunc is one command implementation. arg is the message content
// after the trigger, trimmed. Handlers reply through the message's channel
// and may call other handlers' functions directly when delegating.
type HandlerFunc func(ctx context.Context, env *Env, msg *generic.Message, arg string) error

// Registry is the trigger table. It is populated once at startup, before
// the dispatcher accepts traffic, and never mutated afterwards, so the
// dispatch path reads it without locking. Trigger matching is
// case-sensitive.
type Registry struct {
	prefix  string
	entries map[string]HandlerFunc
}

func NewRegistry(prefix string) *Registry {
	return &Registry{
		prefix:  prefix,
		entries: make(map[string]HandlerFunc),
	}
}

// Register binds a handler to one or more trigger aliases under the
// configured prefix.
func (r *Registry) Register(handler HandlerFunc, triggers ...string) {
	for _, trigger := range triggers {
		r.entries[r.prefix+trigger] = handler
	}
}

// Lookup resolves the first token of a message to a handler.
func (r *Registry) Lookup(token string) (HandlerFunc, bool) {
	handler, ok := r.entries[token]
	return handler, ok
}

func (r *Registry) Prefix() string { return r.prefix }
