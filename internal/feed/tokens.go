package feed

import "strings"

// stopWords are dropped from derived search terms.
var stopWords = map[string]struct{}{
	"the": {}, "be": {}, "to": {}, "is": {}, "of": {},
	"and": {}, "or": {}, "a": {}, "in": {}, "it": {},
}

func isTokenSeparator(r rune) bool {
	switch r {
	case ' ', '.', ',', '?', '!', '#':
		return true
	}
	return false
}

// tokenize lowercases the input, splits it on whitespace and the caption
// punctuation set, and drops empty tokens and stop words.
func tokenize(s string) []string {
	var out []string
	for _, tok := range strings.FieldsFunc(strings.ToLower(s), isTokenSeparator) {
		if _, stop := stopWords[tok]; stop {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// SearchTokens derives the search-term set for a post: caption tokens
// unioned with tokens from the tagged-users string, first occurrence wins.
func SearchTokens(caption, taggedUsers string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, tok := range append(tokenize(caption), tokenize(taggedUsers)...) {
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}
