package commands

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/sintia-bot/sintia/pkg/dispatch"
	"github.com/sintia-bot/sintia/pkg/generic"
)

// Countdown counts down from the given number, one line per second.
func Countdown(ctx context.Context, _ *dispatch.Env, msg *generic.Message, arg string) error {
	amount, err := strconv.Atoi(arg)
	if err != nil || amount < 1 || amount > 15 {
		return nil
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for i := amount; i > 0; i-- {
		if err := msg.Channel.Send(ctx, strconv.Itoa(i), nil); err != nil {
			return err
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return msg.Channel.Send(ctx, "DONE!", nil)
}

// parseRolls parses dice groups like "2d6 d20" into individual rolls.
// Counts and die sizes are capped at 99.
func parseRolls(arg string) ([]int, bool) {
	limit := func(s string, min, max int) (int, bool) {
		v, err := strconv.Atoi(s)
		if err != nil || v < min || v > max {
			return 0, false
		}
		return v, true
	}

	var rolls []int
	for _, group := range strings.Fields(arg) {
		countStr, sizeStr, found := strings.Cut(group, "d")
		if !found {
			return nil, false
		}
		if countStr == "" {
			countStr = "1"
		}

		count, ok := limit(countStr, 1, 99)
		if !ok {
			return nil, false
		}
		size, ok := limit(sizeStr, 1, 99)
		if !ok {
			return nil, false
		}

		for i := 0; i < count; i++ {
			rolls = append(rolls, rand.IntN(size)+1)
		}
	}
	return rolls, len(rolls) > 0
}

// Roll rolls dice. Bad input gets a ❓ reaction instead of a reply.
func Roll(ctx context.Context, _ *dispatch.Env, msg *generic.Message, arg string) error {
	rolls, ok := parseRolls(arg)
	if !ok {
		return msg.AddReaction(ctx, "❓")
	}

	total := 0
	for _, r := range rolls {
		total += r
	}

	if len(rolls) == 1 || len(rolls) > 8 {
		return msg.Channel.Send(ctx, fmt.Sprintf("Rolled **%s**: %d", arg, total), nil)
	}

	parts := make([]string, len(rolls))
	for i, r := range rolls {
		parts[i] = strconv.Itoa(r)
	}
	return msg.Channel.Send(ctx, fmt.Sprintf("Rolled **%s**: %s = %d", arg, strings.Join(parts, " + "), total), nil)
}
