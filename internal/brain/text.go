package brain

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxPostRunes is the longest text a single social post may carry.
const MaxPostRunes = 280

// mentionPattern matches @handles that are not part of an email address.
var mentionPattern = regexp.MustCompile(`(?:^|[^a-zA-Z0-9_.@])@([a-zA-Z0-9_-]+)`)

// ExtractMentions returns the distinct lowercased handles mentioned in text,
// in order of first appearance.
func ExtractMentions(text string) []string {
	matches := mentionPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(matches))
	mentions := make([]string, 0, len(matches))
	for _, m := range matches {
		handle := strings.ToLower(m[1])
		if _, ok := seen[handle]; ok {
			continue
		}
		seen[handle] = struct{}{}
		mentions = append(mentions, handle)
	}
	return mentions
}

// MentionSet is ExtractMentions as a set.
func MentionSet(text string) map[string]struct{} {
	mentions := ExtractMentions(text)
	set := make(map[string]struct{}, len(mentions))
	for _, m := range mentions {
		set[m] = struct{}{}
	}
	return set
}

// ChunkText splits text into pieces of at most max runes.
// Empty input yields no chunks.
func ChunkText(text string, max int) []string {
	if text == "" || max <= 0 {
		return nil
	}
	if utf8.RuneCountInString(text) <= max {
		return []string{text}
	}

	runes := []rune(text)
	chunks := make([]string, 0, len(runes)/max+1)
	for len(runes) > 0 {
		n := min(max, len(runes))
		chunks = append(chunks, string(runes[:n]))
		runes = runes[n:]
	}
	return chunks
}
