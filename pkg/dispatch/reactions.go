package dispatch

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/sintia-bot/sintia/pkg/generic"
	"github.com/sintia-bot/sintia/pkg/logger"
	"github.com/sintia-bot/sintia/pkg/telemetry"
)

// Reactions on the bot's own quote posts act as votes on the quoted entry.
var quotePost = regexp.MustCompile(`[Qq]uote \*\*#([0-9]+)\*\*`)

func quoteIDFrom(content string) (int64, bool) {
	m := quotePost.FindStringSubmatch(content)
	if m == nil {
		return 0, false
	}
	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// ReactionAdded handles one added reaction: moderation and quote voting on
// the bot's own messages, emoji scoring on everyone else's.
func (d *Dispatcher) ReactionAdded(ctx context.Context, ev generic.ReactionEvent) {
	d.runReaction(ctx, "reaction.add", func(ctx context.Context) error {
		if ev.Reactor.IsBot {
			return nil
		}

		if ev.MessageIsSelf {
			if ev.Emoji == "🚫" && ev.Count >= 2 {
				deleter, ok := ev.Origin.Endpoint.(generic.MessageDeleter)
				if !ok {
					return nil
				}
				return deleter.DeleteMessage(ctx, ev.Origin.Target, ev.Origin.MessageID)
			}

			id, ok := quoteIDFrom(ev.MessageContent)
			if !ok {
				return nil
			}
			delta := 0
			switch {
			case strings.Contains(ev.Emoji, "👍"):
				delta = +1
			case strings.Contains(ev.Emoji, "👎"):
				delta = -1
			default:
				return nil
			}
			if d.env.Limiter.IsRateLimited(ev.Reactor.ID, "quote.vote", id) {
				return nil
			}
			d.env.Limiter.RecordAction(ev.Reactor.ID, "quote.vote", id)
			return d.env.Store.AdjustQuoteScore(ctx, id, delta)
		}

		// Reacting to someone else's message scores an emoji point for
		// its author. Self-reactions do not count.
		if ev.Reactor.Key() == ev.MessageAuthor.Key() {
			return nil
		}
		return d.env.Store.AddEmojiVote(ctx, ev.GuildID, ev.MessageAuthor.ID, ev.Emoji, +1)
	})
}

// ReactionRemoved reverts what ReactionAdded applied. Quote-vote reverts
// are intentionally not rate limited: removing a vote must always undo it.
func (d *Dispatcher) ReactionRemoved(ctx context.Context, ev generic.ReactionEvent) {
	d.runReaction(ctx, "reaction.remove", func(ctx context.Context) error {
		if ev.Reactor.IsBot {
			return nil
		}

		if ev.MessageIsSelf {
			id, ok := quoteIDFrom(ev.MessageContent)
			if !ok {
				return nil
			}
			switch {
			case strings.Contains(ev.Emoji, "👍"):
				return d.env.Store.AdjustQuoteScore(ctx, id, -1)
			case strings.Contains(ev.Emoji, "👎"):
				return d.env.Store.AdjustQuoteScore(ctx, id, +1)
			}
			return nil
		}

		if ev.Reactor.Key() == ev.MessageAuthor.Key() {
			return nil
		}
		return d.env.Store.AddEmojiVote(ctx, ev.GuildID, ev.MessageAuthor.ID, ev.Emoji, -1)
	})
}

func (d *Dispatcher) runReaction(ctx context.Context, branch string, fn func(context.Context) error) {
	defer func() {
		if r := recover(); r != nil {
			telemetry.BranchFault(branch)
			logger.ErrorCF("dispatch", "Reaction handling panicked", map[string]any{
				"branch": branch,
				"panic":  fmt.Sprint(r),
			})
		}
	}()

	if err := fn(ctx); err != nil {
		telemetry.BranchFault(branch)
		logger.ErrorCF("dispatch", "Reaction handling failed", map[string]any{
			"branch": branch,
			"error":  err.Error(),
		})
	}
}
