package utils

import "strings"

// SplitMessage splits content into chunks of at most limit runes, preferring
// to break on newlines and falling back to spaces so words stay intact.
// Transports enforce hard length limits (Discord 2000 chars, IRC lines much
// shorter), so every outbound send goes through this.
func SplitMessage(content string, limit int) []string {
	runes := []rune(content)
	if len(runes) <= limit {
		return []string{content}
	}

	var chunks []string
	for len(runes) > limit {
		cut := limit
		window := string(runes[:limit])
		if idx := strings.LastIndexByte(window, '\n'); idx > 0 {
			cut = len([]rune(window[:idx]))
		} else if idx := strings.LastIndexByte(window, ' '); idx > 0 {
			cut = len([]rune(window[:idx]))
		}

		chunks = append(chunks, strings.TrimRight(string(runes[:cut]), " \n"))
		runes = []rune(strings.TrimLeft(string(runes[cut:]), " \n"))
	}
	if len(runes) > 0 {
		chunks = append(chunks, string(runes))
	}
	return chunks
}

// Truncate shortens s to at most n runes for log previews.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
