package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "embed"

	"github.com/jmoiron/sqlx"

	// wires up the postgres driver
	_ "github.com/lib/pq"

	"github.com/sintia-bot/sintia/pkg/generic"
)

//go:embed schema.sql
var schema string

// PostgresStore implements Store on a Postgres database.
type PostgresStore struct {
	db *sqlx.DB
}

// Connect opens the database and verifies connectivity.
func Connect(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// EnsureSchema applies the idempotent schema.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) getQuote(ctx context.Context, query string, args ...any) (*Quote, error) {
	var q Quote
	if err := s.db.GetContext(ctx, &q, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &q, nil
}

func (s *PostgresStore) GetQuote(ctx context.Context, id int64) (*Quote, error) {
	return s.getQuote(ctx, `SELECT * FROM quotes WHERE id = $1`, id)
}

func (s *PostgresStore) RandomQuote(ctx context.Context) (*Quote, error) {
	return s.getQuote(ctx, `SELECT * FROM quotes ORDER BY RANDOM() LIMIT 1`)
}

func (s *PostgresStore) LatestQuote(ctx context.Context, containing string) (*Quote, error) {
	return s.getQuote(ctx,
		`SELECT * FROM quotes WHERE quote ILIKE $1 ORDER BY id DESC LIMIT 1`,
		"%"+containing+"%")
}

func (s *PostgresStore) BestQuote(ctx context.Context) (*Quote, error) {
	return s.getQuote(ctx, `SELECT * FROM quotes ORDER BY score DESC LIMIT 1`)
}

func (s *PostgresStore) QuoteRank(ctx context.Context, id int64) (int, error) {
	var rank int
	err := s.db.GetContext(ctx, &rank, `
		SELECT COUNT(DISTINCT score) + 1
		FROM quotes
		WHERE score > (SELECT score FROM quotes WHERE id = $1)`, id)
	if err != nil {
		return 0, err
	}
	return rank, nil
}

func (s *PostgresStore) QuotesForRank(ctx context.Context, rank int) ([]Quote, error) {
	var quotes []Quote
	err := s.db.SelectContext(ctx, &quotes, `
		SELECT * FROM quotes WHERE score = (
			SELECT DISTINCT score FROM quotes ORDER BY score DESC OFFSET $1 LIMIT 1
		) ORDER BY id ASC`, rank-1)
	if err != nil {
		return nil, err
	}
	return quotes, nil
}

func (s *PostgresStore) FindQuotes(ctx context.Context, term string) ([]Quote, error) {
	var quotes []Quote
	err := s.db.SelectContext(ctx, &quotes,
		`SELECT * FROM quotes WHERE quote ILIKE $1 ORDER BY id ASC`,
		"%"+term+"%")
	if err != nil {
		return nil, err
	}
	return quotes, nil
}

func (s *PostgresStore) AddQuote(ctx context.Context, creator, text, channel string) (int64, error) {
	var id int64
	err := s.db.GetContext(ctx, &id, `
		INSERT INTO quotes (creator, quote, addchannel, adddate)
		VALUES ($1, $2, $3, NOW())
		RETURNING id`, creator, text, channel)
	if err != nil {
		return 0, fmt.Errorf("failed to add quote: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) AdjustQuoteScore(ctx context.Context, id int64, delta int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE quotes SET score = score + $1 WHERE id = $2`, delta, id)
	if err != nil {
		return fmt.Errorf("failed to adjust quote score: %w", err)
	}
	return nil
}

func (s *PostgresStore) RecordVotes(ctx context.Context, guildID int64, messageID string, voter generic.User, tally map[generic.User]int) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin votes tx: %w", err)
	}
	defer tx.Rollback()

	for target, delta := range tally {
		if delta == 0 {
			continue
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO user_votes (guild_id, message_id, voted_user_id, voting_user_id, points_delta)
			VALUES ($1, $2, $3, $4, $5)`,
			guildID, messageID, target.ID, voter.ID, delta)
		if err != nil {
			return fmt.Errorf("failed to record vote: %w", err)
		}
	}

	return tx.Commit()
}

func (s *PostgresStore) UserScore(ctx context.Context, guildID, userID int64) (int, error) {
	var score int
	err := s.db.GetContext(ctx, &score, `
		SELECT COALESCE(SUM(points_delta), 0)
		FROM user_votes
		WHERE guild_id = $1 AND voted_user_id = $2`, guildID, userID)
	if err != nil {
		return 0, err
	}
	return score, nil
}

func (s *PostgresStore) AddEmojiVote(ctx context.Context, guildID, userID int64, emoji string, delta int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_emoji_votes (guild_id, user_id, emoji, amount, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (guild_id, user_id, emoji)
		DO UPDATE SET amount = user_emoji_votes.amount + $4, updated_at = NOW()`,
		guildID, userID, emoji, delta)
	if err != nil {
		return fmt.Errorf("failed to record emoji vote: %w", err)
	}
	return nil
}

func (s *PostgresStore) EmojiScores(ctx context.Context, guildID, userID int64, limit int) ([]EmojiScore, error) {
	var scores []EmojiScore
	err := s.db.SelectContext(ctx, &scores, `
		SELECT emoji, amount
		FROM user_emoji_votes
		WHERE guild_id = $1 AND user_id = $2
		ORDER BY amount DESC, updated_at
		LIMIT $3`, guildID, userID, limit)
	if err != nil {
		return nil, err
	}
	return scores, nil
}

func (s *PostgresStore) RecordActivity(ctx context.Context, guildID, channelID, userID int64, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_activity_history (guild_id, channel_id, user_id, last_spoke_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (guild_id, channel_id, user_id)
		DO UPDATE SET last_spoke_at = $4`,
		guildID, channelID, userID, at)
	if err != nil {
		return fmt.Errorf("failed to record activity: %w", err)
	}
	return nil
}

func (s *PostgresStore) LastActivity(ctx context.Context, guildID, userID int64) (*ActivityRecord, error) {
	var rec ActivityRecord
	err := s.db.GetContext(ctx, &rec, `
		SELECT guild_id, channel_id, user_id, last_spoke_at
		FROM user_activity_history
		WHERE guild_id = $1 AND user_id = $2
		ORDER BY last_spoke_at DESC
		LIMIT 1`, guildID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (s *PostgresStore) RecordCommand(ctx context.Context, guildID, channelID, userID int64, trigger string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO command_activity_history (invoked_at, guild_id, channel_id, user_id, command)
		VALUES ($1, $2, $3, $4, $5)`,
		at, guildID, channelID, userID, trigger)
	if err != nil {
		return fmt.Errorf("failed to record command: %w", err)
	}
	return nil
}
