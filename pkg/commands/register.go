// Package commands implements the chat command handlers. Each handler
// follows the dispatch.HandlerFunc contract and replies through the
// message's channel, so every command works identically on both
// transports.
package commands

import "github.com/sintia-bot/sintia/pkg/dispatch"

// Register binds every command to its triggers.
func Register(r *dispatch.Registry) {
	r.Register(ReadQuote, "q")
	r.Register(FindQuote, "fq")
	r.Register(LastQuote, "lq")
	r.Register(BestQuote, "bq")
	r.Register(QuoteInfo, "iq")
	r.Register(AddQuote, "aq")
	r.Register(UpvoteQuote, "+q")
	r.Register(DownvoteQuote, "-q")

	r.Register(Score, "score")
	r.Register(EmojiScore, "emoji")
	r.Register(LastSpoke, "lastspoke")
	r.Register(Hello, "hello")

	r.Register(Countdown, "countdown")
	r.Register(Roll, "roll")

	r.Register(UrbanDictionary, "ud")
	r.Register(Stock, "stock", "stocks", "stonk", "stonks")
	r.Register(Wikipedia, "w", "wiki")
}
