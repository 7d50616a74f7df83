package commands

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/sintia-bot/sintia/pkg/dispatch"
	"github.com/sintia-bot/sintia/pkg/generic"
)

// UrbanDictionary shows the top definition for a term.
func UrbanDictionary(ctx context.Context, env *dispatch.Env, msg *generic.Message, arg string) error {
	if arg == "" {
		return nil
	}

	var results struct {
		List []struct {
			Word       string `json:"word"`
			Permalink  string `json:"permalink"`
			Definition string `json:"definition"`
		} `json:"list"`
	}
	err := env.HTTP.GetJSON(ctx, "http://api.urbandictionary.com/v0/define", url.Values{
		"term": {arg},
	}, &results)
	if err != nil {
		return err
	}
	if len(results.List) == 0 {
		return msg.Channel.Send(ctx, fmt.Sprintf("No results found for `%s`", arg), nil)
	}

	top := results.List[0]
	// The API marks cross-references with square brackets.
	definition := strings.NewReplacer("[", "", "]", "").Replace(top.Definition)
	return msg.Channel.Send(ctx, fmt.Sprintf("**%s**\n<%s>\n%s", top.Word, top.Permalink, definition), nil)
}

type finnhubQuote struct {
	Current   float64 `json:"c"`
	PrevClose float64 `json:"pc"`
}

// Stock shows current price and day change for one or more tickers.
// Tickers are fetched concurrently; ones that fail are skipped.
func Stock(ctx context.Context, env *dispatch.Env, msg *generic.Message, arg string) error {
	if arg == "" {
		return nil
	}

	tickers := strings.Fields(strings.ToUpper(arg))
	results := make([]*finnhubQuote, len(tickers))

	var wg sync.WaitGroup
	for i, ticker := range tickers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var quote finnhubQuote
			err := env.HTTP.GetJSON(ctx, "https://finnhub.io/api/v1/quote", url.Values{
				"symbol": {ticker},
				"token":  {env.Cfg.FinnhubAPIKey},
			}, &quote)
			if err == nil && quote.PrevClose != 0 {
				results[i] = &quote
			}
		}()
	}
	wg.Wait()

	lines := make([]string, 0, len(tickers))
	for i, ticker := range tickers {
		if results[i] == nil {
			continue
		}
		change := ((results[i].Current / results[i].PrevClose) - 1) * 100
		lines = append(lines, fmt.Sprintf("**%s**: %.2f (%+.2f%%)", ticker, results[i].Current, change))
	}
	if len(lines) == 0 {
		return msg.Channel.Send(ctx, fmt.Sprintf("No results found for `%s`", arg), nil)
	}
	return msg.Channel.Send(ctx, strings.Join(lines, "\n"), nil)
}

// Wikipedia replies with an embed for the best-matching article. The
// line transport renders the embed's plain-text form.
func Wikipedia(ctx context.Context, env *dispatch.Env, msg *generic.Message, arg string) error {
	if arg == "" {
		return nil
	}

	var results struct {
		Query *struct {
			PageIDs []string `json:"pageids"`
			Pages   map[string]struct {
				Title        string `json:"title"`
				Extract      string `json:"extract"`
				CanonicalURL string `json:"canonicalurl"`
				Thumbnail    *struct {
					Source string `json:"source"`
				} `json:"thumbnail"`
			} `json:"pages"`
		} `json:"query"`
	}
	err := env.HTTP.GetJSON(ctx, "https://en.wikipedia.org/w/api.php", url.Values{
		"action":       {"query"},
		"format":       {"json"},
		"prop":         {"extracts|info|pageimages"},
		"indexpageids": {"1"},
		"generator":    {"search"},
		"utf8":         {"1"},
		"exlimit":      {"1"},
		"explaintext":  {"1"},
		"inprop":       {"url"},
		"gsrsearch":    {arg},
		"gsrlimit":     {"1"},
		"pithumbsize":  {"1024"},
	}, &results)
	if err != nil {
		return err
	}
	if results.Query == nil || len(results.Query.PageIDs) == 0 {
		return msg.Channel.Send(ctx, fmt.Sprintf("No results found for `%s`", arg), nil)
	}

	page, ok := results.Query.Pages[results.Query.PageIDs[0]]
	if !ok {
		return msg.Channel.Send(ctx, fmt.Sprintf("No results found for `%s`", arg), nil)
	}

	firstParagraph, _, _ := strings.Cut(page.Extract, "\n")
	embed := &generic.Embed{
		Title:       page.Title,
		URL:         page.CanonicalURL,
		Description: firstParagraph,
	}
	if page.Thumbnail != nil {
		embed.Thumbnail = page.Thumbnail.Source
	}
	return msg.Channel.Send(ctx, "", embed)
}
