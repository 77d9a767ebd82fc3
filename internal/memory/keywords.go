package memory

import (
	"regexp"
	"sort"
	"strings"
)

var wordPattern = regexp.MustCompile(`[a-zA-Z0-9']+`)

var stopwords = map[string]struct{}{
	"the": {}, "is": {}, "at": {}, "which": {}, "on": {}, "a": {},
	"an": {}, "and": {}, "or": {}, "but": {}, "in": {}, "with": {},
	"to": {}, "for": {}, "of": {}, "as": {}, "i": {}, "you": {},
	"my": {}, "me": {}, "this": {}, "that": {}, "what": {}, "have": {},
	"about": {}, "just": {}, "really": {}, "feel": {}, "feeling": {},
}

// extractKeywords returns up to max salient words from the text, most
// frequent first. Words of three letters or fewer are ignored.
func extractKeywords(text string, max int) []string {
	counts := map[string]int{}
	order := []string{}
	for _, word := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		if len(word) <= 3 {
			continue
		}
		if _, skip := stopwords[word]; skip {
			continue
		}
		if counts[word] == 0 {
			order = append(order, word)
		}
		counts[word]++
	}

	// Stable sort keeps first-seen order among equal counts.
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > max {
		order = order[:max]
	}
	return order
}
