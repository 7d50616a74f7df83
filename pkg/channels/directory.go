// Package channels holds the transport adapters and the directory that
// pairs their native channels into generic ones.
package channels

import (
	"sync"

	"github.com/sintia-bot/sintia/pkg/config"
	"github.com/sintia-bot/sintia/pkg/generic"
)

// Directory maps native channel identifiers to generic channels. Paired
// channels are built once from configuration; unpaired ones are created
// lazily the first time traffic arrives and cached.
type Directory struct {
	mu        sync.RWMutex
	byDiscord map[string]*generic.Channel
	byRoom    map[string]*generic.Channel
	solo      map[string]*generic.Channel
	rooms     []string
}

// NewDirectory builds the paired channels. Either endpoint may be nil
// when its transport is not configured; pairs referencing it then bind
// only the remaining side.
func NewDirectory(pairs []config.ChannelPair, discord, irc generic.Endpoint) *Directory {
	d := &Directory{
		byDiscord: make(map[string]*generic.Channel),
		byRoom:    make(map[string]*generic.Channel),
		solo:      make(map[string]*generic.Channel),
	}

	for _, pair := range pairs {
		ch := &generic.Channel{
			Name:       pair.Name,
			Restricted: pair.Restricted,
		}
		if discord != nil {
			ch.Bindings = append(ch.Bindings, generic.Binding{Endpoint: discord, Target: pair.DiscordChannelID})
			d.byDiscord[pair.DiscordChannelID] = ch
		}
		if irc != nil {
			ch.Bindings = append(ch.Bindings, generic.Binding{Endpoint: irc, Target: pair.Room})
			d.byRoom[pair.Room] = ch
			d.rooms = append(d.rooms, pair.Room)
		}
	}

	return d
}

// ForDiscord resolves a Discord channel ID to its paired channel.
func (d *Directory) ForDiscord(channelID string) (*generic.Channel, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ch, ok := d.byDiscord[channelID]
	return ch, ok
}

// ForRoom resolves a line-protocol room to its paired channel.
func (d *Directory) ForRoom(room string) (*generic.Channel, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ch, ok := d.byRoom[room]
	return ch, ok
}

// Rooms lists the line-protocol rooms the bot should join.
func (d *Directory) Rooms() []string {
	return d.rooms
}

// Solo returns the single-binding channel for an unpaired native
// channel, creating and caching it on first use.
func (d *Directory) Solo(ep generic.Endpoint, target, name string, restricted bool) *generic.Channel {
	key := ep.Name() + "\x00" + target

	d.mu.Lock()
	defer d.mu.Unlock()
	if ch, ok := d.solo[key]; ok {
		return ch
	}

	ch := &generic.Channel{
		Name:       name,
		Restricted: restricted,
		Bindings:   []generic.Binding{{Endpoint: ep, Target: target}},
	}
	d.solo[key] = ch
	return ch
}
