package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sintia-bot/sintia/pkg/bus"
	"github.com/sintia-bot/sintia/pkg/config"
	"github.com/sintia-bot/sintia/pkg/generic"
	"github.com/sintia-bot/sintia/pkg/ratelimit"
	"github.com/sintia-bot/sintia/pkg/store"
)

// storeStub lets each test override the store calls it cares about.
type storeStub struct {
	mu             sync.Mutex
	recordVotes    func(guildID int64, messageID string, voter generic.User, tally map[generic.User]int) error
	recordActivity func() error
	recordCommand  func(trigger string) error
	adjustScore    func(id int64, delta int) error
	emojiVote      func(guildID, userID int64, emoji string, delta int) error

	voteCalls    int
	commandCalls []string
}

func (s *storeStub) GetQuote(context.Context, int64) (*store.Quote, error)      { return nil, nil }
func (s *storeStub) RandomQuote(context.Context) (*store.Quote, error)          { return nil, nil }
func (s *storeStub) LatestQuote(context.Context, string) (*store.Quote, error)  { return nil, nil }
func (s *storeStub) BestQuote(context.Context) (*store.Quote, error)            { return nil, nil }
func (s *storeStub) QuoteRank(context.Context, int64) (int, error)              { return 1, nil }
func (s *storeStub) QuotesForRank(context.Context, int) ([]store.Quote, error)  { return nil, nil }
func (s *storeStub) FindQuotes(context.Context, string) ([]store.Quote, error)  { return nil, nil }
func (s *storeStub) AddQuote(context.Context, string, string, string) (int64, error) {
	return 1, nil
}

func (s *storeStub) AdjustQuoteScore(_ context.Context, id int64, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.adjustScore != nil {
		return s.adjustScore(id, delta)
	}
	return nil
}

func (s *storeStub) RecordVotes(_ context.Context, guildID int64, messageID string, voter generic.User, tally map[generic.User]int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voteCalls++
	if s.recordVotes != nil {
		return s.recordVotes(guildID, messageID, voter, tally)
	}
	return nil
}

func (s *storeStub) UserScore(context.Context, int64, int64) (int, error) { return 0, nil }

func (s *storeStub) AddEmojiVote(_ context.Context, guildID, userID int64, emoji string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.emojiVote != nil {
		return s.emojiVote(guildID, userID, emoji, delta)
	}
	return nil
}

func (s *storeStub) EmojiScores(context.Context, int64, int64, int) ([]store.EmojiScore, error) {
	return nil, nil
}

func (s *storeStub) RecordActivity(context.Context, int64, int64, int64, time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recordActivity != nil {
		return s.recordActivity()
	}
	return nil
}

func (s *storeStub) LastActivity(context.Context, int64, int64) (*store.ActivityRecord, error) {
	return nil, nil
}

func (s *storeStub) RecordCommand(_ context.Context, _, _, _ int64, trigger string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commandCalls = append(s.commandCalls, trigger)
	if s.recordCommand != nil {
		return s.recordCommand(trigger)
	}
	return nil
}

// fakeEndpoint records deliveries for assertions.
type fakeEndpoint struct {
	mu        sync.Mutex
	name      string
	texts     []string
	reactions []string
	resolve   map[string]generic.User
}

func (f *fakeEndpoint) Name() string { return f.name }

func (f *fakeEndpoint) SendText(_ context.Context, _, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	return nil
}

func (f *fakeEndpoint) SendEmbed(_ context.Context, _ string, embed *generic.Embed) error {
	return f.SendText(context.Background(), "", embed.PlainText())
}

func (f *fakeEndpoint) React(_ context.Context, _, _, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reactions = append(f.reactions, token)
	return nil
}

func (f *fakeEndpoint) ResolveMention(_, token string) (generic.User, bool) {
	u, ok := f.resolve[token]
	return u, ok
}

func (f *fakeEndpoint) sentTexts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.texts...)
}

var (
	author = generic.User{Transport: "discord", ID: 1, DisplayName: "alice", Mention: "<@1>"}
	target = generic.User{Transport: "discord", ID: 2, DisplayName: "bob", Mention: "<@2>"}
)

func newTestDispatcher(st *storeStub, registry *Registry) *Dispatcher {
	env := &Env{
		Store:   st,
		Limiter: ratelimit.New(map[string]time.Duration{"quote.vote": 5 * time.Minute}),
		Cfg:     &config.Config{CommandPrefix: "!"},
	}
	return New(nil, registry, env)
}

func testMessage(ep *fakeEndpoint, content string) *generic.Message {
	return &generic.Message{
		Channel: &generic.Channel{
			Name:     "lobby",
			Bindings: []generic.Binding{{Endpoint: ep, Target: "123"}},
		},
		Author:    author,
		GuildID:   10,
		ChannelID: 123,
		Content:   content,
		Origin:    generic.Origin{Endpoint: ep, Target: "123", MessageID: "m1"},
		Timestamp: time.Now(),
	}
}

func TestSplitTrigger(t *testing.T) {
	tests := []struct {
		input       string
		wantTrigger string
		wantArg     string
	}{
		{"!hello", "!hello", ""},
		{"!q 42", "!q", "42"},
		{"!fq  search term ", "!fq", "search term"},
		{"  !aq some quote", "!aq", "some quote"},
		{"", "", ""},
	}

	for _, tt := range tests {
		trigger, arg := splitTrigger(tt.input)
		assert.Equal(t, tt.wantTrigger, trigger, tt.input)
		assert.Equal(t, tt.wantArg, arg, tt.input)
	}
}

func TestDispatchInvokesHandler(t *testing.T) {
	registry := NewRegistry("!")
	var gotArg string
	var called bool
	registry.Register(func(_ context.Context, _ *Env, _ *generic.Message, arg string) error {
		called = true
		gotArg = arg
		return nil
	}, "hello")

	d := newTestDispatcher(&storeStub{}, registry)
	ep := &fakeEndpoint{name: "discord"}

	d.Handle(context.Background(), testMessage(ep, "!hello"))
	assert.True(t, called)
	assert.Equal(t, "", gotArg)
}

func TestDispatchUnknownTrigger(t *testing.T) {
	registry := NewRegistry("!")
	called := false
	registry.Register(func(context.Context, *Env, *generic.Message, string) error {
		called = true
		return nil
	}, "hello")

	st := &storeStub{}
	d := newTestDispatcher(st, registry)
	ep := &fakeEndpoint{name: "discord"}

	d.Handle(context.Background(), testMessage(ep, "!unknownxyz foo"))
	assert.False(t, called)
	assert.Empty(t, st.commandCalls, "unknown triggers are not recorded")
}

func TestDispatchCaseSensitive(t *testing.T) {
	registry := NewRegistry("!")
	called := false
	registry.Register(func(context.Context, *Env, *generic.Message, string) error {
		called = true
		return nil
	}, "hello")

	d := newTestDispatcher(&storeStub{}, registry)
	d.Handle(context.Background(), testMessage(&fakeEndpoint{name: "discord"}, "!HELLO"))
	assert.False(t, called)
}

func TestDispatchRecordsCommandStats(t *testing.T) {
	registry := NewRegistry("!")
	registry.Register(func(context.Context, *Env, *generic.Message, string) error {
		return nil
	}, "hello")

	st := &storeStub{}
	d := newTestDispatcher(st, registry)
	d.Handle(context.Background(), testMessage(&fakeEndpoint{name: "discord"}, "!hello"))

	assert.Equal(t, []string{"!hello"}, st.commandCalls)
}

func TestActivityFailureDoesNotBlockCommand(t *testing.T) {
	registry := NewRegistry("!")
	registry.Register(func(ctx context.Context, _ *Env, msg *generic.Message, _ string) error {
		return msg.Channel.Send(ctx, "hi there", nil)
	}, "hello")

	st := &storeStub{
		recordActivity: func() error { return errors.New("store down") },
	}
	d := newTestDispatcher(st, registry)
	ep := &fakeEndpoint{name: "discord"}

	d.Handle(context.Background(), testMessage(ep, "!hello"))
	assert.Equal(t, []string{"hi there"}, ep.sentTexts(), "reply must be delivered despite activity fault")
}

func TestStatsFailureDoesNotBlockHandler(t *testing.T) {
	registry := NewRegistry("!")
	registry.Register(func(ctx context.Context, _ *Env, msg *generic.Message, _ string) error {
		return msg.Channel.Send(ctx, "still here", nil)
	}, "hello")

	st := &storeStub{
		recordCommand: func(string) error { return errors.New("insert failed") },
	}
	d := newTestDispatcher(st, registry)
	ep := &fakeEndpoint{name: "discord"}

	d.Handle(context.Background(), testMessage(ep, "!hello"))
	assert.Equal(t, []string{"still here"}, ep.sentTexts())
}

func TestHandlerPanicIsContained(t *testing.T) {
	registry := NewRegistry("!")
	registry.Register(func(context.Context, *Env, *generic.Message, string) error {
		panic("handler bug")
	}, "boom")

	st := &storeStub{}
	d := newTestDispatcher(st, registry)

	// Must not panic the fan-out, and the stats branch still runs.
	d.Handle(context.Background(), testMessage(&fakeEndpoint{name: "discord"}, "!boom"))
	assert.Equal(t, []string{"!boom"}, st.commandCalls)
}

func TestVotesBranchRecordsAndAcks(t *testing.T) {
	st := &storeStub{}
	var got map[generic.User]int
	st.recordVotes = func(_ int64, _ string, voter generic.User, tally map[generic.User]int) error {
		got = tally
		assert.Equal(t, author, voter)
		return nil
	}

	d := newTestDispatcher(st, NewRegistry("!"))
	ep := &fakeEndpoint{name: "discord", resolve: map[string]generic.User{"<@2>": target}}

	d.Handle(context.Background(), testMessage(ep, "<@2>++ nice"))
	assert.Equal(t, map[generic.User]int{target: 1}, got)
	assert.Equal(t, []string{"✅"}, ep.reactions)
}

func TestSelfVotesProduceNoStoreCall(t *testing.T) {
	st := &storeStub{}
	d := newTestDispatcher(st, NewRegistry("!"))
	ep := &fakeEndpoint{name: "discord", resolve: map[string]generic.User{"<@1>": author}}

	d.Handle(context.Background(), testMessage(ep, "<@1>++"))
	assert.Zero(t, st.voteCalls)
	assert.Empty(t, ep.reactions, "no acknowledgement for a dropped tally")
}

func TestListenersObserveAllTraffic(t *testing.T) {
	d := newTestDispatcher(&storeStub{}, NewRegistry("!"))

	var mu sync.Mutex
	var seen []string
	d.AddListener(func(_ context.Context, msg *generic.Message) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, msg.Content)
		return nil
	})

	d.Handle(context.Background(), testMessage(&fakeEndpoint{name: "discord"}, "plain chatter"))
	assert.Equal(t, []string{"plain chatter"}, seen)
}

func TestListenerFaultIsolated(t *testing.T) {
	registry := NewRegistry("!")
	registry.Register(func(ctx context.Context, _ *Env, msg *generic.Message, _ string) error {
		return msg.Channel.Send(ctx, "ok", nil)
	}, "hello")

	d := newTestDispatcher(&storeStub{}, registry)
	d.AddListener(func(context.Context, *generic.Message) error {
		panic("listener bug")
	})

	ep := &fakeEndpoint{name: "discord"}
	d.Handle(context.Background(), testMessage(ep, "!hello"))
	assert.Equal(t, []string{"ok"}, ep.sentTexts())
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := New(stubBus{}, NewRegistry("!"), &Env{Store: &storeStub{}})
	require.NoError(t, d.Run(ctx))
}

// stubBus reports closure as soon as the context is done.
type stubBus struct{}

func (stubBus) ConsumeInbound(ctx context.Context) (bus.InboundEvent, bool) {
	<-ctx.Done()
	return bus.InboundEvent{}, false
}
