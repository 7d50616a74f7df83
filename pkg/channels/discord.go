package channels

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/sintia-bot/sintia/pkg/bus"
	"github.com/sintia-bot/sintia/pkg/generic"
	"github.com/sintia-bot/sintia/pkg/logger"
	"github.com/sintia-bot/sintia/pkg/utils"
)

const (
	discordMessageLimit = 2000
	sendTimeout         = 10 * time.Second
)

// DiscordChannel is the gateway transport adapter. It publishes inbound
// messages to the bus, forwards reaction events to the sink and
// implements the generic endpoint for outbound traffic.
type DiscordChannel struct {
	session   *discordgo.Session
	bus       bus.Publisher
	dir       *Directory
	sink      generic.ReactionSink
	ctx       context.Context
	botUserID string
}

func NewDiscordChannel(token string, b bus.Publisher) (*DiscordChannel, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsMessageContent

	return &DiscordChannel{
		session: session,
		bus:     b,
		ctx:     context.Background(),
	}, nil
}

// Attach wires the channel directory and the reaction sink. Must happen
// before Start.
func (c *DiscordChannel) Attach(dir *Directory, sink generic.ReactionSink) {
	c.dir = dir
	c.sink = sink
}

func (c *DiscordChannel) Name() string { return "discord" }

func (c *DiscordChannel) Start(ctx context.Context) error {
	logger.InfoC("discord", "Starting Discord connection")

	c.ctx = ctx

	// Get bot user ID before opening session to avoid race condition
	botUser, err := c.session.User("@me")
	if err != nil {
		return fmt.Errorf("failed to get bot user: %w", err)
	}
	c.botUserID = botUser.ID

	c.session.AddHandler(c.handleMessage)
	c.session.AddHandler(c.handleReactionAdd)
	c.session.AddHandler(c.handleReactionRemove)

	if err := c.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}

	logger.InfoCF("discord", "Discord connected", map[string]any{
		"username": botUser.Username,
		"user_id":  botUser.ID,
	})
	return nil
}

func (c *DiscordChannel) Stop(ctx context.Context) error {
	logger.InfoC("discord", "Stopping Discord connection")
	if err := c.session.Close(); err != nil {
		return fmt.Errorf("failed to close discord session: %w", err)
	}
	return nil
}

func (c *DiscordChannel) SendText(ctx context.Context, target, text string) error {
	if target == "" {
		return fmt.Errorf("channel ID is empty")
	}
	if text == "" {
		return nil
	}

	for _, chunk := range utils.SplitMessage(text, discordMessageLimit) {
		if err := c.sendChunk(ctx, target, chunk); err != nil {
			return err
		}
	}
	return nil
}

// sendChunk bounds one API call; discordgo's REST calls take no context.
func (c *DiscordChannel) sendChunk(ctx context.Context, channelID, content string) error {
	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, err := c.session.ChannelMessageSend(channelID, content)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send discord message: %w", err)
		}
		return nil
	case <-sendCtx.Done():
		return fmt.Errorf("send message timeout: %w", sendCtx.Err())
	}
}

func (c *DiscordChannel) SendEmbed(ctx context.Context, target string, embed *generic.Embed) error {
	native := &discordgo.MessageEmbed{
		Title:       embed.Title,
		URL:         embed.URL,
		Description: embed.Description,
	}
	if embed.Thumbnail != "" {
		native.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: embed.Thumbnail}
	}

	if _, err := c.session.ChannelMessageSendEmbed(target, native); err != nil {
		return fmt.Errorf("failed to send discord embed: %w", err)
	}
	return nil
}

func (c *DiscordChannel) React(ctx context.Context, target, messageID, token string) error {
	if err := c.session.MessageReactionAdd(target, messageID, token); err != nil {
		return fmt.Errorf("failed to add discord reaction: %w", err)
	}
	return nil
}

func (c *DiscordChannel) DeleteMessage(ctx context.Context, target, messageID string) error {
	if err := c.session.ChannelMessageDelete(target, messageID); err != nil {
		return fmt.Errorf("failed to delete discord message: %w", err)
	}
	return nil
}

// ResolveMention parses a native <@id> or <@!id> mention token and
// looks the user up.
func (c *DiscordChannel) ResolveMention(target, token string) (generic.User, bool) {
	if !strings.HasPrefix(token, "<@") || !strings.HasSuffix(token, ">") {
		return generic.User{}, false
	}
	id := strings.TrimPrefix(strings.TrimSuffix(token, ">"), "<@")
	id = strings.TrimPrefix(id, "!")
	if _, err := strconv.ParseInt(id, 10, 64); err != nil {
		return generic.User{}, false
	}

	if user, err := c.session.User(id); err == nil {
		return c.wrapUser(user), true
	}
	return generic.User{}, false
}

// wrapUser converts a native user. Snowflakes are numeric, so a parse
// failure means a malformed payload and maps to the zero ID.
func (c *DiscordChannel) wrapUser(u *discordgo.User) generic.User {
	id, _ := strconv.ParseInt(u.ID, 10, 64)
	name := u.GlobalName
	if name == "" {
		name = u.Username
	}
	return generic.User{
		Transport:   "discord",
		ID:          id,
		DisplayName: name,
		IsBot:       u.Bot,
		Mention:     "<@" + u.ID + ">",
	}
}

// channelFor resolves the generic channel a native channel ID belongs
// to, creating a solo channel for unpaired ones.
func (c *DiscordChannel) channelFor(channelID string) *generic.Channel {
	if ch, ok := c.dir.ForDiscord(channelID); ok {
		return ch
	}

	name := channelID
	restricted := false
	if native, err := c.session.State.Channel(channelID); err == nil {
		name = native.Name
		restricted = native.NSFW
	} else if native, err := c.session.Channel(channelID); err == nil {
		name = native.Name
		restricted = native.NSFW
	}
	return c.dir.Solo(c, channelID, name, restricted)
}

func (c *DiscordChannel) handleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m == nil || m.Author == nil {
		return
	}
	if m.Author.ID == c.botUserID {
		return
	}

	mentions := make([]generic.User, 0, len(m.Mentions))
	for _, mention := range m.Mentions {
		mentions = append(mentions, c.wrapUser(mention))
	}

	guildID, _ := strconv.ParseInt(m.GuildID, 10, 64)
	channelID, _ := strconv.ParseInt(m.ChannelID, 10, 64)

	msg := &generic.Message{
		Channel:   c.channelFor(m.ChannelID),
		Author:    c.wrapUser(m.Author),
		GuildID:   guildID,
		ChannelID: channelID,
		Content:   m.Content,
		Mentions:  mentions,
		Origin: generic.Origin{
			Endpoint:  c,
			Target:    m.ChannelID,
			MessageID: m.ID,
		},
		Timestamp: m.Timestamp,
	}

	logger.DebugCF("discord", "Received message", map[string]any{
		"sender":  msg.Author.DisplayName,
		"channel": msg.Channel.Name,
		"preview": utils.Truncate(m.Content, 50),
	})

	c.bus.PublishInbound(bus.InboundEvent{
		Transport: "discord",
		Message:   msg,
		Received:  time.Now(),
	})
}

func (c *DiscordChannel) handleReactionAdd(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	if ev, ok := c.reactionEvent(r.MessageReaction); ok {
		c.sink.ReactionAdded(c.ctx, ev)
	}
}

func (c *DiscordChannel) handleReactionRemove(s *discordgo.Session, r *discordgo.MessageReactionRemove) {
	if ev, ok := c.reactionEvent(r.MessageReaction); ok {
		c.sink.ReactionRemoved(c.ctx, ev)
	}
}

// reactionEvent fetches the reacted-to message and builds the generic
// event. The per-emoji count comes from the fetched message, so it is
// current even for reactions on old messages.
func (c *DiscordChannel) reactionEvent(r *discordgo.MessageReaction) (generic.ReactionEvent, bool) {
	if c.sink == nil || r.UserID == c.botUserID {
		return generic.ReactionEvent{}, false
	}

	message, err := c.session.State.Message(r.ChannelID, r.MessageID)
	if err != nil {
		message, err = c.session.ChannelMessage(r.ChannelID, r.MessageID)
	}
	if err != nil || message.Author == nil {
		logger.WarnCF("discord", "Failed to fetch reacted-to message", map[string]any{
			"message_id": r.MessageID,
		})
		return generic.ReactionEvent{}, false
	}

	reactor := generic.User{Transport: "discord", Mention: "<@" + r.UserID + ">"}
	reactor.ID, _ = strconv.ParseInt(r.UserID, 10, 64)
	if user, err := c.session.User(r.UserID); err == nil {
		reactor = c.wrapUser(user)
	}

	count := 0
	for _, reaction := range message.Reactions {
		if reaction.Emoji != nil && reaction.Emoji.Name == r.Emoji.Name {
			count = reaction.Count
			break
		}
	}

	guildID, _ := strconv.ParseInt(r.GuildID, 10, 64)
	channelID, _ := strconv.ParseInt(r.ChannelID, 10, 64)

	return generic.ReactionEvent{
		GuildID:   guildID,
		ChannelID: channelID,
		Origin: generic.Origin{
			Endpoint:  c,
			Target:    r.ChannelID,
			MessageID: r.MessageID,
		},
		MessageAuthor:  c.wrapUser(message.Author),
		MessageContent: message.Content,
		MessageIsSelf:  message.Author.ID == c.botUserID,
		Reactor:        reactor,
		Emoji:          r.Emoji.Name,
		Count:          count,
	}, true
}
