package channels

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	twitch "github.com/gempir/go-twitch-irc/v4"

	"github.com/sintia-bot/sintia/pkg/bus"
	"github.com/sintia-bot/sintia/pkg/generic"
	"github.com/sintia-bot/sintia/pkg/logger"
	"github.com/sintia-bot/sintia/pkg/utils"
)

// ircLineLimit stays under the 512-byte protocol line including the
// command and target overhead.
const ircLineLimit = 450

// IRCChannel is the line-protocol transport adapter. The protocol has
// no stable account identity, so user IDs are synthesized by hashing
// the lowercased login name. Two people using the same nickname over
// time collapse into one identity; that is accepted.
type IRCChannel struct {
	client *twitch.Client
	bus    bus.Publisher
	dir    *Directory
	nick   string

	rosterMu sync.RWMutex
	roster   map[string]map[string]string // room → lowercased login → display name
}

func NewIRCChannel(nick, token string, b bus.Publisher) *IRCChannel {
	return &IRCChannel{
		client: twitch.NewClient(nick, token),
		bus:    b,
		nick:   strings.ToLower(nick),
		roster: make(map[string]map[string]string),
	}
}

// SetCapabilities restricts the capability request. Membership is what
// feeds the roster with join/part traffic; without it mention
// resolution only sees users who have spoken.
func (c *IRCChannel) SetCapabilities(sendCaps bool) {
	if !sendCaps {
		c.client.Capabilities = nil
	}
}

// Attach wires the channel directory. Must happen before Start.
func (c *IRCChannel) Attach(dir *Directory) {
	c.dir = dir
}

func (c *IRCChannel) Name() string { return "irc" }

// ircUserID synthesizes a stable numeric identity from a login name.
func ircUserID(login string) int64 {
	h := fnv.New64a()
	h.Write([]byte(strings.ToLower(login)))
	return int64(h.Sum64())
}

func (c *IRCChannel) wrapUser(login, display string) generic.User {
	if display == "" {
		display = login
	}
	return generic.User{
		Transport:   "irc",
		ID:          ircUserID(login),
		DisplayName: display,
		IsBot:       strings.EqualFold(login, c.nick),
		Mention:     display,
	}
}

func (c *IRCChannel) Start(ctx context.Context) error {
	logger.InfoC("irc", "Starting IRC connection")

	c.client.OnConnect(func() {
		logger.InfoCF("irc", "IRC connected", map[string]any{"nick": c.nick})
	})
	c.client.OnPrivateMessage(c.handleMessage)
	c.client.OnUserJoinMessage(func(m twitch.UserJoinMessage) {
		c.rosterAdd(m.Channel, m.User, "")
	})
	c.client.OnUserPartMessage(func(m twitch.UserPartMessage) {
		c.rosterRemove(m.Channel, m.User)
	})
	c.client.OnNamesMessage(func(m twitch.NamesMessage) {
		for _, user := range m.Users {
			c.rosterAdd(m.Channel, user, "")
		}
	})

	rooms := make([]string, 0, len(c.dir.Rooms()))
	for _, room := range c.dir.Rooms() {
		rooms = append(rooms, strings.TrimPrefix(room, "#"))
	}
	c.client.Join(rooms...)

	// Connect blocks until Disconnect; surface failures from the
	// background goroutine through the log.
	go func() {
		if err := c.client.Connect(); err != nil {
			logger.ErrorCF("irc", "IRC connection ended", map[string]any{"error": err.Error()})
		}
	}()
	return nil
}

func (c *IRCChannel) Stop(ctx context.Context) error {
	logger.InfoC("irc", "Stopping IRC connection")
	if err := c.client.Disconnect(); err != nil {
		return fmt.Errorf("failed to disconnect irc client: %w", err)
	}
	return nil
}

func (c *IRCChannel) SendText(ctx context.Context, target, text string) error {
	room := strings.TrimPrefix(target, "#")
	// One protocol line per logical line; long lines are split again.
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		for _, chunk := range utils.SplitMessage(line, ircLineLimit) {
			c.client.Say(room, chunk)
		}
	}
	return nil
}

// SendEmbed degrades to the embed's plain-text rendering.
func (c *IRCChannel) SendEmbed(ctx context.Context, target string, embed *generic.Embed) error {
	return c.SendText(ctx, target, embed.PlainText())
}

func (c *IRCChannel) React(ctx context.Context, target, messageID, token string) error {
	return generic.ErrUnsupported
}

// ResolveMention probes the room roster for a nickname, with or without
// a leading @.
func (c *IRCChannel) ResolveMention(target, token string) (generic.User, bool) {
	login := strings.ToLower(strings.TrimPrefix(token, "@"))
	room := strings.TrimPrefix(target, "#")

	c.rosterMu.RLock()
	defer c.rosterMu.RUnlock()
	display, ok := c.roster[room][login]
	if !ok {
		return generic.User{}, false
	}
	if display == "" {
		display = login
	}
	return c.wrapUser(login, display), true
}

func (c *IRCChannel) rosterAdd(room, login, display string) {
	room = strings.TrimPrefix(room, "#")
	login = strings.ToLower(login)

	c.rosterMu.Lock()
	defer c.rosterMu.Unlock()
	if c.roster[room] == nil {
		c.roster[room] = make(map[string]string)
	}
	c.roster[room][login] = display
}

func (c *IRCChannel) rosterRemove(room, login string) {
	room = strings.TrimPrefix(room, "#")

	c.rosterMu.Lock()
	defer c.rosterMu.Unlock()
	delete(c.roster[room], strings.ToLower(login))
}

func (c *IRCChannel) handleMessage(m twitch.PrivateMessage) {
	if strings.EqualFold(m.User.Name, c.nick) {
		return
	}
	c.rosterAdd(m.Channel, m.User.Name, m.User.DisplayName)

	room := "#" + m.Channel
	ch, ok := c.dir.ForRoom(room)
	if !ok {
		ch = c.dir.Solo(c, m.Channel, m.Channel, false)
	}

	author := c.wrapUser(m.User.Name, m.User.DisplayName)
	msg := &generic.Message{
		Channel:   ch,
		Author:    author,
		GuildID:   0, // the line protocol has a single flat namespace
		ChannelID: ircUserID(room),
		Content:   m.Message,
		Mentions:  c.mentionsIn(m.Channel, m.Message, author),
		Origin: generic.Origin{
			Endpoint:  c,
			Target:    m.Channel,
			MessageID: m.ID,
		},
		Timestamp: m.Time,
	}

	logger.DebugCF("irc", "Received message", map[string]any{
		"sender":  author.DisplayName,
		"room":    room,
		"preview": utils.Truncate(m.Message, 50),
	})

	c.bus.PublishInbound(bus.InboundEvent{
		Transport: "irc",
		Message:   msg,
		Received:  time.Now(),
	})
}

// mentionsIn scans message tokens against the room roster so commands
// like score and lastspoke see mentions the way they do on the gateway
// transport.
func (c *IRCChannel) mentionsIn(room, content string, author generic.User) []generic.User {
	var mentions []generic.User
	seen := make(map[generic.UserKey]bool)

	for _, token := range strings.Fields(content) {
		token = strings.Trim(token, ",:;")
		if !strings.HasPrefix(token, "@") {
			continue
		}
		user, ok := c.ResolveMention(room, token)
		if !ok || seen[user.Key()] || user.Key() == author.Key() {
			continue
		}
		seen[user.Key()] = true
		mentions = append(mentions, user)
	}
	return mentions
}
