package commands

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"sync"

	"github.com/sintia-bot/sintia/pkg/dispatch"
	"github.com/sintia-bot/sintia/pkg/generic"
	"github.com/sintia-bot/sintia/pkg/store"
	"github.com/sintia-bot/sintia/pkg/utils"
)

// FormatQuote renders a quote the way every quote command replies with
// it. The reaction vote handler recognizes this shape, so changing it
// breaks 👍/👎 voting on old posts.
func FormatQuote(q *store.Quote) string {
	return fmt.Sprintf("Quote **#%d** (rated %d):\n```%s```", q.ID, q.Score, q.Multiline())
}

// ReadQuote shows a random quote, a quote by id, or falls through to
// search when the argument is not numeric.
func ReadQuote(ctx context.Context, env *dispatch.Env, msg *generic.Message, arg string) error {
	if arg == "" {
		quote, err := env.Store.RandomQuote(ctx)
		if err != nil {
			return err
		}
		if quote == nil {
			return msg.Channel.Send(ctx, "There are no quotes yet.", nil)
		}
		return msg.Channel.Send(ctx, FormatQuote(quote), nil)
	}

	if id, err := strconv.ParseInt(arg, 10, 64); err == nil {
		quote, err := env.Store.GetQuote(ctx, id)
		if err != nil {
			return err
		}
		if quote == nil {
			return msg.Channel.Send(ctx, fmt.Sprintf("Quote with id %s does not exist", arg), nil)
		}
		return msg.Channel.Send(ctx, FormatQuote(quote), nil)
	}

	return FindQuote(ctx, env, msg, arg)
}

// searchBag hands out search results in shuffled order without repeats
// until a term's bag empties, so spamming !fq cycles through all
// matches instead of repeating the same lucky one.
var searchBag = struct {
	mu    sync.Mutex
	state map[string][]store.Quote
}{state: make(map[string][]store.Quote)}

func pickFromBag(term string, results []store.Quote) store.Quote {
	searchBag.mu.Lock()
	defer searchBag.mu.Unlock()

	bag := searchBag.state[term]
	if len(bag) == 0 {
		bag = append([]store.Quote(nil), results...)
		rand.Shuffle(len(bag), func(i, j int) { bag[i], bag[j] = bag[j], bag[i] })
	}

	pick := bag[len(bag)-1]
	searchBag.state[term] = bag[:len(bag)-1]
	return pick
}

// FindQuote searches the quote text and shows one match at a time.
func FindQuote(ctx context.Context, env *dispatch.Env, msg *generic.Message, arg string) error {
	results, err := env.Store.FindQuotes(ctx, arg)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		return msg.Channel.Send(ctx, "No quotes match that search term.", nil)
	}

	pick := pickFromBag(arg, results)
	position := 0
	for i, q := range results {
		if q.ID == pick.ID {
			position = i + 1
			break
		}
	}

	return msg.Channel.Send(ctx, fmt.Sprintf("Result %d of %d: %s", position, len(results), FormatQuote(&pick)), nil)
}

// LastQuote shows the newest quote, optionally the newest one containing
// the argument.
func LastQuote(ctx context.Context, env *dispatch.Env, msg *generic.Message, arg string) error {
	quote, err := env.Store.LatestQuote(ctx, arg)
	if err != nil {
		return err
	}
	if quote == nil {
		return msg.Channel.Send(ctx, "No quotes found", nil)
	}

	extra := ""
	if arg != "" {
		extra = "containing search term "
	}
	return msg.Channel.Send(ctx, fmt.Sprintf("Latest quote %sis %s", extra, FormatQuote(quote)), nil)
}

// BestQuote shows the top-rated quote, or the quotes sharing the n-th
// rank when a numeric argument is given.
func BestQuote(ctx context.Context, env *dispatch.Env, msg *generic.Message, arg string) error {
	if arg == "" {
		quote, err := env.Store.BestQuote(ctx)
		if err != nil {
			return err
		}
		if quote == nil {
			return msg.Channel.Send(ctx, "There are no quotes yet.", nil)
		}
		return msg.Channel.Send(ctx, "The most popular quote is "+FormatQuote(quote), nil)
	}

	rank, err := strconv.Atoi(arg)
	if err != nil || rank <= 0 {
		return nil
	}

	quotes, err := env.Store.QuotesForRank(ctx, rank)
	if err != nil {
		return err
	}
	if len(quotes) == 0 {
		return nil
	}
	if len(quotes) == 1 {
		return msg.Channel.Send(ctx, fmt.Sprintf("The %s most popular quote is %s", utils.Ordinal(rank), FormatQuote(&quotes[0])), nil)
	}

	show := min(3, len(quotes))
	if err := msg.Channel.Send(ctx, fmt.Sprintf("%d quotes sharing the %s rank (%d votes):", show, utils.Ordinal(rank), quotes[0].Score), nil); err != nil {
		return err
	}
	for i := range quotes[:show] {
		if err := msg.Channel.Send(ctx, FormatQuote(&quotes[i]), nil); err != nil {
			return err
		}
	}
	return nil
}

// QuoteInfo shows who added a quote, where, when, and its rank.
func QuoteInfo(ctx context.Context, env *dispatch.Env, msg *generic.Message, arg string) error {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return nil
	}

	quote, err := env.Store.GetQuote(ctx, id)
	if err != nil {
		return err
	}
	if quote == nil {
		return msg.Channel.Send(ctx, fmt.Sprintf("Quote with id %s does not exist", arg), nil)
	}

	rank, err := env.Store.QuoteRank(ctx, id)
	if err != nil {
		return err
	}

	info := fmt.Sprintf("Quote **#%d** was added", quote.ID)
	if quote.Creator != "" {
		info += " by " + quote.Creator
	}
	if quote.AddChannel != "" {
		info += " in channel " + quote.AddChannel
	}
	if !quote.AddDate.IsZero() {
		info += " on " + quote.AddDate.Format("2006-01-02 15:04:05")
	}
	return msg.Channel.Send(ctx, fmt.Sprintf("%s. It is ranked %s.", info, utils.Ordinal(rank)), nil)
}

// AddQuote adds a quote, rate limited per user.
func AddQuote(ctx context.Context, env *dispatch.Env, msg *generic.Message, arg string) error {
	if arg == "" {
		return nil
	}
	if env.Limiter.IsRateLimited(msg.Author.ID, "quote.add") {
		return nil
	}
	env.Limiter.RecordAction(msg.Author.ID, "quote.add")

	id, err := env.Store.AddQuote(ctx, msg.Author.DisplayName, arg, msg.Channel.Name)
	if err != nil {
		return err
	}
	return msg.Channel.Send(ctx, fmt.Sprintf("Quote **#%d** has been added.", id), nil)
}

// UpvoteQuote bumps a quote's score, rate limited per user per quote.
func UpvoteQuote(ctx context.Context, env *dispatch.Env, msg *generic.Message, arg string) error {
	return voteQuote(ctx, env, msg, arg, +1)
}

// DownvoteQuote drops a quote's score, rate limited per user per quote.
func DownvoteQuote(ctx context.Context, env *dispatch.Env, msg *generic.Message, arg string) error {
	return voteQuote(ctx, env, msg, arg, -1)
}

func voteQuote(ctx context.Context, env *dispatch.Env, msg *generic.Message, arg string, delta int) error {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return nil
	}

	quote, err := env.Store.GetQuote(ctx, id)
	if err != nil {
		return err
	}
	if quote == nil {
		return msg.Channel.Send(ctx, fmt.Sprintf("Quote with id %d does not exist", id), nil)
	}

	if env.Limiter.IsRateLimited(msg.Author.ID, "quote.vote", id) {
		return nil
	}
	env.Limiter.RecordAction(msg.Author.ID, "quote.vote", id)

	if err := env.Store.AdjustQuoteScore(ctx, id, delta); err != nil {
		return err
	}

	direction := "increased"
	if delta < 0 {
		direction = "decreased"
	}
	return msg.Channel.Send(ctx, fmt.Sprintf("Popularity of quote **#%d** has %s.", id, direction), nil)
}
