// Package dispatch is the per-message orchestrator: it consumes inbound
// events from the bus and fans each one out to vote aggregation, activity
// recording, command dispatch and the registered listeners. Branches are
// isolated — a fault in one is reported to the telemetry sink and never
// cancels or fails a sibling.
package dispatch

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sintia-bot/sintia/pkg/bus"
	"github.com/sintia-bot/sintia/pkg/generic"
	"github.com/sintia-bot/sintia/pkg/logger"
	"github.com/sintia-bot/sintia/pkg/telemetry"
	"github.com/sintia-bot/sintia/pkg/utils"
	"github.com/sintia-bot/sintia/pkg/votes"
)

// Listener observes every inbound message regardless of whether it is a
// command. Subsystems that need all traffic (the cross-posting bridge)
// register one at startup.
type Listener func(ctx context.Context, msg *generic.Message) error

type Dispatcher struct {
	bus       bus.Subscriber
	registry  *Registry
	env       *Env
	listeners []Listener
}

func New(b bus.Subscriber, registry *Registry, env *Env) *Dispatcher {
	return &Dispatcher{
		bus:      b,
		registry: registry,
		env:      env,
	}
}

// AddListener registers a generic listener. Registration happens at
// startup, before Run; the slice is read-only afterwards.
func (d *Dispatcher) AddListener(l Listener) {
	d.listeners = append(d.listeners, l)
}

// Run consumes the bus until ctx is cancelled or the bus closes. Each
// event is handled on its own goroutine: the fan-out for message N may
// still be in flight when message N+1 arrives.
func (d *Dispatcher) Run(ctx context.Context) error {
	logger.InfoC("dispatch", "Dispatcher running")
	for {
		evt, ok := d.bus.ConsumeInbound(ctx)
		if !ok {
			logger.InfoC("dispatch", "Dispatcher stopped")
			return nil
		}
		go d.Handle(ctx, evt.Message)
	}
}

// Handle fans one message out to all branches and returns once every
// branch has completed or failed.
func (d *Dispatcher) Handle(ctx context.Context, msg *generic.Message) {
	start := time.Now()
	telemetry.MessageHandled()

	var wg sync.WaitGroup
	run := func(branch string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.runIsolated(ctx, branch, msg, fn)
		}()
	}

	run("votes", func(ctx context.Context) error { return d.handleVotes(ctx, msg) })
	run("activity", func(ctx context.Context) error { return d.handleActivity(ctx, msg) })
	run("command", func(ctx context.Context) error { return d.handleCommand(ctx, msg) })
	for i, listener := range d.listeners {
		listener := listener
		run(fmt.Sprintf("listener.%d", i), func(ctx context.Context) error { return listener(ctx, msg) })
	}

	wg.Wait()
	telemetry.ObserveHandle(time.Since(start))
}

// runIsolated executes one branch, catching both errors and panics so a
// fault never escapes to siblings. Faults are surfaced to the telemetry
// sink and the log, never to chat.
func (d *Dispatcher) runIsolated(ctx context.Context, branch string, msg *generic.Message, fn func(context.Context) error) {
	defer func() {
		if r := recover(); r != nil {
			telemetry.BranchFault(branch)
			logger.ErrorCF("dispatch", "Fan-out branch panicked", map[string]any{
				"branch":  branch,
				"panic":   fmt.Sprint(r),
				"preview": utils.Truncate(msg.Content, 50),
			})
		}
	}()

	if err := fn(ctx); err != nil {
		telemetry.BranchFault(branch)
		logger.ErrorCF("dispatch", "Fan-out branch failed", map[string]any{
			"branch":  branch,
			"error":   err.Error(),
			"preview": utils.Truncate(msg.Content, 50),
		})
	}
}

func (d *Dispatcher) handleVotes(ctx context.Context, msg *generic.Message) error {
	tally := votes.Parse(msg.Content, msg.Author, msg.ResolveMention)
	if len(tally) == 0 {
		return nil
	}

	if err := d.env.Store.RecordVotes(ctx, msg.GuildID, msg.Origin.MessageID, msg.Author, tally); err != nil {
		return fmt.Errorf("failed to record votes: %w", err)
	}
	return msg.AddReaction(ctx, "✅")
}

func (d *Dispatcher) handleActivity(ctx context.Context, msg *generic.Message) error {
	return d.env.Store.RecordActivity(ctx, msg.GuildID, msg.ChannelID, msg.Author.ID, msg.Timestamp)
}

// handleCommand resolves the first token against the registry. Unknown
// triggers are not an error — most messages are not commands. The handler
// and the invocation-history write run concurrently and are isolated from
// each other.
func (d *Dispatcher) handleCommand(ctx context.Context, msg *generic.Message) error {
	trigger, arg := splitTrigger(msg.Content)
	handler, ok := d.registry.Lookup(trigger)
	if !ok {
		return nil
	}

	telemetry.CommandInvoked(trigger)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		d.runIsolated(ctx, "command.handler", msg, func(ctx context.Context) error {
			return handler(ctx, d.env, msg, arg)
		})
	}()
	go func() {
		defer wg.Done()
		d.runIsolated(ctx, "command.stats", msg, func(ctx context.Context) error {
			return d.env.Store.RecordCommand(ctx, msg.GuildID, msg.ChannelID, msg.Author.ID, trigger, msg.Timestamp)
		})
	}()
	wg.Wait()

	return nil
}

// splitTrigger splits content on the first whitespace into the candidate
// trigger token and the trimmed argument.
func splitTrigger(content string) (string, string) {
	content = strings.TrimSpace(content)
	if i := strings.IndexAny(content, " \t\n"); i >= 0 {
		return content[:i], strings.TrimSpace(content[i+1:])
	}
	return content, ""
}
