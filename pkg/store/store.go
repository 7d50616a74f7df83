// Package store persists quotes, mention votes and activity statistics.
// The bot core only sees the Store interface; the Postgres implementation
// lives alongside it.
package store

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/sintia-bot/sintia/pkg/generic"
)

// Quote is one entry of the quote database.
type Quote struct {
	ID         int64     `db:"id"`
	Creator    string    `db:"creator"`
	Quote      string    `db:"quote"`
	Score      int       `db:"score"`
	AddDate    time.Time `db:"adddate"`
	AddChannel string    `db:"addchannel"`
}

var nickLine = regexp.MustCompile(`(<[a-zA-Z0-9` + "`" + `_\-|@+^\[\]]*>|\* [a-zA-Z0-9` + "`" + `_\-|@+^\[\]]* )`)

// Multiline renders the quote with one utterance per line. Quotes added
// with explicit newlines are assumed to be formatted already.
func (q *Quote) Multiline() string {
	if strings.Contains(q.Quote, "\n") {
		return q.Quote
	}
	return nickLine.ReplaceAllString(q.Quote, "\n$1")
}

// ActivityRecord is the last-spoke entry for a user in a guild.
type ActivityRecord struct {
	GuildID     int64     `db:"guild_id"`
	ChannelID   int64     `db:"channel_id"`
	UserID      int64     `db:"user_id"`
	LastSpokeAt time.Time `db:"last_spoke_at"`
}

// EmojiScore is one emoji's accumulated reaction count for a user.
type EmojiScore struct {
	Emoji  string `db:"emoji"`
	Amount int    `db:"amount"`
}

// Store is the persistence boundary. Lookups that find nothing return
// (nil, nil); errors mean the collaborator itself failed.
type Store interface {
	GetQuote(ctx context.Context, id int64) (*Quote, error)
	RandomQuote(ctx context.Context) (*Quote, error)
	LatestQuote(ctx context.Context, containing string) (*Quote, error)
	BestQuote(ctx context.Context) (*Quote, error)
	QuoteRank(ctx context.Context, id int64) (int, error)
	QuotesForRank(ctx context.Context, rank int) ([]Quote, error)
	FindQuotes(ctx context.Context, term string) ([]Quote, error)
	AddQuote(ctx context.Context, creator, text, channel string) (int64, error)
	AdjustQuoteScore(ctx context.Context, id int64, delta int) error

	RecordVotes(ctx context.Context, guildID int64, messageID string, voter generic.User, tally map[generic.User]int) error
	UserScore(ctx context.Context, guildID, userID int64) (int, error)
	AddEmojiVote(ctx context.Context, guildID, userID int64, emoji string, delta int) error
	EmojiScores(ctx context.Context, guildID, userID int64, limit int) ([]EmojiScore, error)

	RecordActivity(ctx context.Context, guildID, channelID, userID int64, at time.Time) error
	LastActivity(ctx context.Context, guildID, userID int64) (*ActivityRecord, error)
	RecordCommand(ctx context.Context, guildID, channelID, userID int64, trigger string, at time.Time) error
}
