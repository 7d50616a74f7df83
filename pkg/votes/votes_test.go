package votes

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sintia-bot/sintia/pkg/generic"
)

var (
	alice  = generic.User{Transport: "discord", ID: 1, DisplayName: "alice", Mention: "<@1>"}
	bob    = generic.User{Transport: "discord", ID: 2, DisplayName: "bob", Mention: "<@2>"}
	casper = generic.User{Transport: "irc", ID: 3, DisplayName: "casper", Mention: "casper"}
)

// testResolver resolves Discord mention tokens and the IRC nick "casper".
func testResolver(token string) (generic.User, bool) {
	switch token {
	case "<@1>", "<@!1>":
		return alice, true
	case "<@2>", "<@!2>":
		return bob, true
	case "casper", "@casper":
		return casper, true
	}
	return generic.User{}, false
}

func TestSingleUpvote(t *testing.T) {
	tally := Parse("<@2>++ nice one", alice, testResolver)
	assert.Equal(t, map[generic.User]int{bob: 1}, tally)
}

func TestChainedVotesNetOut(t *testing.T) {
	tally := Parse("<@2>++ <@2>++ <@2>--", alice, testResolver)
	assert.Equal(t, map[generic.User]int{bob: 1}, tally)
}

func TestZeroNetDropped(t *testing.T) {
	tally := Parse("<@2>++ <@2>--", alice, testResolver)
	assert.Nil(t, tally)
}

func TestSelfVoteRemoved(t *testing.T) {
	tally := Parse("<@1>++ <@2>++", alice, testResolver)
	assert.Equal(t, map[generic.User]int{bob: 1}, tally)
}

func TestOnlySelfVotesMeansNoAction(t *testing.T) {
	assert.Nil(t, Parse("<@1>++ <@1>++", alice, testResolver))
	assert.Nil(t, Parse("<@1>--", alice, testResolver))
}

func TestDownvote(t *testing.T) {
	tally := Parse("<@2>-- boo", alice, testResolver)
	assert.Equal(t, map[generic.User]int{bob: -1}, tally)
}

func TestBotAuthorIgnored(t *testing.T) {
	bot := generic.User{Transport: "discord", ID: 99, IsBot: true}
	assert.Nil(t, Parse("<@2>++", bot, testResolver))
}

func TestFencedCodeExcluded(t *testing.T) {
	content := "```\ni = <@2>++\n```\nreal vote <@2>++"
	tally := Parse(content, alice, testResolver)
	assert.Equal(t, map[generic.User]int{bob: 1}, tally)
}

func TestInlineCodeExcluded(t *testing.T) {
	assert.Nil(t, Parse("use `<@2>++` in a loop", alice, testResolver))
}

func TestUnresolvedTokensIgnored(t *testing.T) {
	// "c++" looks like a vote token but resolves to nobody.
	assert.Nil(t, Parse("I write c++ for a living", alice, testResolver))
}

func TestIrcNicknameVote(t *testing.T) {
	tally := Parse("casper++ thanks for the help", alice, testResolver)
	assert.Equal(t, map[generic.User]int{casper: 1}, tally)
}

func TestNicknameMentionForm(t *testing.T) {
	tally := Parse("<@!2>++", alice, testResolver)
	assert.Equal(t, map[generic.User]int{bob: 1}, tally)
}

func TestMultipleTargets(t *testing.T) {
	tally := Parse("<@2>++ casper--", alice, testResolver)
	assert.Equal(t, map[generic.User]int{bob: 1, casper: -1}, tally)
}
