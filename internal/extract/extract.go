// Package extract derives presentation metadata from a finished completion.
// All functions are pure over the final frozen text: missing metadata yields
// defaults, never an error, so post-processing cannot fail a generation.
package extract

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// DefaultTitle is used when the completion carries no usable title.
	DefaultTitle = "Untitled App"

	// tagMarker terminates a completion with its self-declared tag list,
	// e.g. [[app_tags: Timer, Utility]].
	tagMarker = "[[app_tags:"

	maxTitleLen = 80
	maxTags     = 4
)

// HTMLContent isolates the HTML document from a completion. A fenced
// ```html block wins; otherwise a body that already starts with markup is
// taken as-is, minus any trailing tag marker. Anything else yields "".
func HTMLContent(content string) string {
	if start := strings.Index(content, "```html"); start >= 0 {
		after := start + len("```html")
		if end := strings.Index(content[after:], "```"); end >= 0 {
			return strings.TrimSpace(content[after : after+end])
		}
	}
	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "<!DOCTYPE") || strings.HasPrefix(trimmed, "<html") || strings.HasPrefix(trimmed, "<") {
		if pos := strings.LastIndex(trimmed, tagMarker); pos >= 0 {
			return strings.TrimSpace(trimmed[:pos])
		}
		return trimmed
	}
	return ""
}

// Title picks a display title: the HTML <title> element if present, else
// the first non-blank line with any leading markdown heading marks removed,
// else DefaultTitle. Titles are clipped to a display-safe length.
func Title(content string) string {
	if t, ok := htmlTitle(content); ok {
		return truncateTitle(t)
	}
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		trimmed = strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
		if trimmed == "" {
			break
		}
		return truncateTitle(trimmed)
	}
	return DefaultTitle
}

// htmlTitle extracts the <title> element, matching the tag case-insensitively
// while preserving the content's original casing.
func htmlTitle(content string) (string, bool) {
	lower := strings.ToLower(content)
	start := strings.Index(lower, "<title>")
	if start < 0 {
		return "", false
	}
	after := start + len("<title>")
	end := strings.Index(lower[after:], "</title>")
	if end < 0 {
		return "", false
	}
	title := strings.TrimSpace(content[after : after+end])
	if title == "" {
		return "", false
	}
	return title, true
}

func truncateTitle(title string) string {
	if len(title) <= maxTitleLen {
		return title
	}
	// Clip on a rune boundary.
	n := 0
	for i := range title {
		if i > maxTitleLen {
			break
		}
		n = i
	}
	return title[:n]
}

// Tags splits a completion into its body and tag list. A trailing
// [[app_tags: ...]] marker wins (last one, trimmed and capitalized, marker
// stripped from the body); without one the tags are derived from the text
// by word frequency, and a completion yielding nothing gets the default.
func Tags(content string) (clean string, tags []string) {
	clean, tags = markerTags(content)
	if tags == nil {
		tags = GenerateTags(clean)
	}
	if len(tags) == 0 {
		tags = []string{"App"}
	}
	return clean, tags
}

func markerTags(content string) (string, []string) {
	start := strings.LastIndex(content, tagMarker)
	if start < 0 {
		return content, nil
	}
	end := strings.Index(content[start:], "]]")
	if end < 0 {
		return content, nil
	}

	raw := content[start+len(tagMarker) : start+end]
	clean := strings.TrimRight(content[:start], " \t\r\n")

	var tags []string
	for _, t := range strings.Split(raw, ",") {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		tags = append(tags, capitalize(t))
	}
	if tags == nil {
		// An empty marker is still an explicit choice: no derived tags.
		tags = []string{"App"}
	}
	return clean, tags
}

// stopwords excluded from frequency-derived tags.
var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "that": {}, "with": {}, "have": {}, "this": {},
	"from": {}, "there": {}, "would": {}, "could": {}, "should": {},
	"about": {}, "into": {}, "while": {}, "where": {}, "which": {},
	"their": {}, "them": {}, "they": {}, "been": {}, "after": {},
	"before": {}, "because": {}, "given": {}, "using": {}, "based": {},
	"over": {}, "under": {}, "through": {}, "among": {},
}

// GenerateTags derives tags from free text by word frequency: words of at
// least four letters, stopwords excluded, most frequent first with ties
// broken alphabetically.
func GenerateTags(text string) []string {
	freq := make(map[string]int)
	for _, word := range strings.Fields(text) {
		cleaned := strings.ToLower(strings.TrimFunc(word, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		}))
		if len(cleaned) < 4 {
			continue
		}
		if _, skip := stopwords[cleaned]; skip {
			continue
		}
		freq[cleaned]++
	}

	words := make([]string, 0, len(freq))
	for w := range freq {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if freq[words[i]] != freq[words[j]] {
			return freq[words[i]] > freq[words[j]]
		}
		return words[i] < words[j]
	})

	if len(words) > maxTags {
		words = words[:maxTags]
	}
	tags := make([]string, len(words))
	for i, w := range words {
		tags[i] = capitalize(w)
	}
	return tags
}

func capitalize(word string) string {
	r, size := utf8.DecodeRuneInString(word)
	if r == utf8.RuneError && size <= 1 {
		return word
	}
	return string(unicode.ToUpper(r)) + word[size:]
}
