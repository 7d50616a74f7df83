package generic

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEndpoint records sends and can be told to fail.
type fakeEndpoint struct {
	mu        sync.Mutex
	name      string
	fail      error
	noReact   bool
	texts     []string
	embeds    []*Embed
	reactions []string
}

func (f *fakeEndpoint) Name() string { return f.name }

func (f *fakeEndpoint) SendText(_ context.Context, _, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.texts = append(f.texts, text)
	return nil
}

func (f *fakeEndpoint) SendEmbed(_ context.Context, _ string, embed *Embed) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.embeds = append(f.embeds, embed)
	return nil
}

func (f *fakeEndpoint) React(_ context.Context, _, _, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.noReact {
		return ErrUnsupported
	}
	f.reactions = append(f.reactions, token)
	return nil
}

func (f *fakeEndpoint) ResolveMention(_, _ string) (User, bool) {
	return User{}, false
}

func TestChannelSendDeliversToAllBindings(t *testing.T) {
	a := &fakeEndpoint{name: "discord"}
	b := &fakeEndpoint{name: "irc"}
	ch := &Channel{Name: "lobby", Bindings: []Binding{
		{Endpoint: a, Target: "123"},
		{Endpoint: b, Target: "#lobby"},
	}}

	require.NoError(t, ch.Send(context.Background(), "hi", nil))
	assert.Equal(t, []string{"hi"}, a.texts)
	assert.Equal(t, []string{"hi"}, b.texts)
}

func TestChannelSendOneEndpointFailing(t *testing.T) {
	boom := errors.New("boom")
	a := &fakeEndpoint{name: "discord", fail: boom}
	b := &fakeEndpoint{name: "irc"}
	ch := &Channel{Name: "lobby", Bindings: []Binding{
		{Endpoint: a, Target: "123"},
		{Endpoint: b, Target: "#lobby"},
	}}

	err := ch.Send(context.Background(), "hi", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var de *DeliveryError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "discord", de.Endpoint)

	// The healthy endpoint still got the content.
	assert.Equal(t, []string{"hi"}, b.texts)
}

func TestEmbedPlainText(t *testing.T) {
	e := &Embed{Title: "Go", URL: "https://example.org/go", Description: "a language"}
	assert.Equal(t, "Go (https://example.org/go)\na language", e.PlainText())
}

func TestAddReactionNative(t *testing.T) {
	ep := &fakeEndpoint{name: "discord"}
	msg := &Message{
		Author: User{Mention: "<@1>"},
		Origin: Origin{Endpoint: ep, Target: "123", MessageID: "m1"},
	}

	require.NoError(t, msg.AddReaction(context.Background(), "✅"))
	assert.Equal(t, []string{"✅"}, ep.reactions)
	assert.Empty(t, ep.texts)
}

func TestAddReactionFallsBackToText(t *testing.T) {
	ep := &fakeEndpoint{name: "irc", noReact: true}
	msg := &Message{
		Author: User{Mention: "casper"},
		Origin: Origin{Endpoint: ep, Target: "#lobby", MessageID: "m1"},
	}

	require.NoError(t, msg.AddReaction(context.Background(), "✅"))
	assert.Equal(t, []string{"casper: ✅"}, ep.texts)
}

func TestAddReactionNoMessageID(t *testing.T) {
	ep := &fakeEndpoint{name: "irc"}
	msg := &Message{
		Author: User{Mention: "casper"},
		Origin: Origin{Endpoint: ep, Target: "#lobby"},
	}

	require.NoError(t, msg.AddReaction(context.Background(), "✅"))
	assert.Equal(t, []string{"casper: ✅"}, ep.texts)
}

func TestUserKey(t *testing.T) {
	a := User{Transport: "discord", ID: 7, DisplayName: "old name"}
	b := User{Transport: "discord", ID: 7, DisplayName: "new name"}
	c := User{Transport: "irc", ID: 7, DisplayName: "old name"}

	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), c.Key())
}
