package brain

import (
	"regexp"
	"strings"
)

// hashtagPattern matches #tags with the whitespace before them. A tag starts
// with a letter, so rankings like "#1" survive.
// Examples: " #solana", "#gm", " #web3_dev"
var hashtagPattern = regexp.MustCompile(`\s*#\p{L}[\p{L}\p{N}_]*`)

// SanitizePost cleans model output before it is published.
// It trims whitespace, drops quotes wrapping the whole text and strips
// hashtags. Returns the cleaned content and the count of hashtags stripped.
func SanitizePost(content string) (string, int) {
	content = strings.TrimSpace(content)
	content = trimWrappingQuotes(content)

	matches := hashtagPattern.FindAllStringIndex(content, -1)
	count := len(matches)
	if count > 0 {
		content = strings.TrimSpace(hashtagPattern.ReplaceAllString(content, ""))
	}
	return content, count
}

func trimWrappingQuotes(s string) string {
	for _, q := range []string{`"`, "“"} {
		closing := q
		if q == "“" {
			closing = "”"
		}
		if len(s) >= len(q)+len(closing) && strings.HasPrefix(s, q) && strings.HasSuffix(s, closing) {
			return strings.TrimSpace(s[len(q) : len(s)-len(closing)])
		}
	}
	return s
}
