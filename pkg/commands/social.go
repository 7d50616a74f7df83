package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sintia-bot/sintia/pkg/dispatch"
	"github.com/sintia-bot/sintia/pkg/generic"
	"github.com/sintia-bot/sintia/pkg/utils"
)

// mentionTarget resolves the single user a command refers to. Native
// mention lists win; on transports without them the argument token is
// resolved against the roster. More than one mention is ambiguous.
func mentionTarget(msg *generic.Message, arg string) (generic.User, bool) {
	if arg == "" {
		return generic.User{}, false
	}
	if len(msg.Mentions) > 1 {
		return generic.User{}, false
	}
	if len(msg.Mentions) == 1 {
		return msg.Mentions[0], true
	}

	token, _, _ := strings.Cut(arg, " ")
	return msg.ResolveMention(token)
}

// Hello greets whoever asked.
func Hello(ctx context.Context, _ *dispatch.Env, msg *generic.Message, _ string) error {
	return msg.Channel.Send(ctx, "Hello "+msg.Author.Mention, nil)
}

// Score shows a user's accumulated mention-vote points. With no
// argument it shows the asker's own.
func Score(ctx context.Context, env *dispatch.Env, msg *generic.Message, arg string) error {
	target := msg.Author
	if arg != "" {
		resolved, ok := mentionTarget(msg, arg)
		if !ok {
			return nil
		}
		target = resolved
	}

	score, err := env.Store.UserScore(ctx, msg.GuildID, target.ID)
	if err != nil {
		return err
	}
	return msg.Channel.Send(ctx, fmt.Sprintf("%s has %s", target.Mention, utils.Plural(score, "point")), nil)
}

// EmojiScore shows the emoji reactions a user's messages have collected.
func EmojiScore(ctx context.Context, env *dispatch.Env, msg *generic.Message, arg string) error {
	target := msg.Author
	if arg != "" {
		resolved, ok := mentionTarget(msg, arg)
		if !ok {
			return nil
		}
		target = resolved
	}

	scores, err := env.Store.EmojiScores(ctx, msg.GuildID, target.ID, 10)
	if err != nil {
		return err
	}
	if len(scores) == 0 {
		return msg.Channel.Send(ctx, "No emoji score for "+target.Mention, nil)
	}

	lines := make([]string, 0, len(scores))
	for _, s := range scores {
		lines = append(lines, fmt.Sprintf("%s: %d", s.Emoji, s.Amount))
	}
	return msg.Channel.Send(ctx, strings.Join(lines, "\n"), nil)
}

// LastSpoke tells when a mentioned user was last seen speaking in the
// guild. Unlike Score it never defaults to the asker.
func LastSpoke(ctx context.Context, env *dispatch.Env, msg *generic.Message, arg string) error {
	target, ok := mentionTarget(msg, arg)
	if !ok {
		return nil
	}

	last, err := env.Store.LastActivity(ctx, msg.GuildID, target.ID)
	if err != nil {
		return err
	}
	if last == nil {
		return msg.Channel.Send(ctx, fmt.Sprintf("I don't have a record of %s ever speaking here", target.Mention), nil)
	}

	since := utils.ReadableSince(time.Since(last.LastSpokeAt))
	return msg.Channel.Send(ctx, fmt.Sprintf("%s last spoke %s", target.Mention, since), nil)
}
