// Package votes parses mention-based vote tokens ("@user++", "@user--")
// out of raw message text and reduces them to a net per-target delta.
// Persistence is the store's concern; a tally lives only as long as the
// message that produced it.
package votes

import (
	"regexp"

	"github.com/sintia-bot/sintia/pkg/generic"
)

// Resolver maps a mention token to a member of the guild or room the
// message was seen in.
type Resolver func(token string) (generic.User, bool)

var (
	fencedCode = regexp.MustCompile("(?s)```.*?```")
	inlineCode = regexp.MustCompile("`[^`\n]+`")

	// A mention token immediately followed by ++ or --, no intervening
	// whitespace. Tokens are either rendered Discord mentions or bare
	// nicknames; whether a bare token is a real member is the resolver's
	// call.
	voteToken = regexp.MustCompile(`(<@!?[0-9]+>|@?[A-Za-z0-9][A-Za-z0-9_\-\[\]\\^{}|]*)(\+\+|--)`)
)

// Parse scans content for vote tokens and nets them out per target. A
// single message chaining several votes for one target yields one entry
// with the arithmetic sum, not several events. The author's own entry is
// removed regardless of sign, and targets netting to zero are dropped; an
// empty result means no further action. Bot-authored messages never
// produce votes.
func Parse(content string, author generic.User, resolve Resolver) map[generic.User]int {
	if author.IsBot {
		return nil
	}

	// Code samples containing ++ or -- are not votes.
	cleaned := fencedCode.ReplaceAllString(content, "")
	cleaned = inlineCode.ReplaceAllString(cleaned, "")

	tally := make(map[generic.User]int)
	for _, match := range voteToken.FindAllStringSubmatch(cleaned, -1) {
		target, ok := resolve(match[1])
		if !ok {
			continue
		}
		if match[2] == "++" {
			tally[target]++
		} else {
			tally[target]--
		}
	}

	for target, delta := range tally {
		if target.Key() == author.Key() || delta == 0 {
			delete(tally, target)
		}
	}
	if len(tally) == 0 {
		return nil
	}
	return tally
}
