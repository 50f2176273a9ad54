// Package cloze implements the blank bracket syntax: extraction of blank
// specifications from text, tree-preserving substitution of blanks with
// rendered input nodes, and the placeholder two-pass path used for tables.
package cloze

import (
	"regexp"
	"strings"
)

// blankRe matches one inline blank token. Non-greedy, so a nested "]" inside
// an answer is not supported.
var blankRe = regexp.MustCompile(`\[.*?\]`)

const hintPrefix = "hint:"

// BlankSpec is one parsed blank: the authored answer, the author-declared
// choice list, and an optional hint. Index is assigned in first-seen order
// across the whole flattened content.
type BlankSpec struct {
	Index        int      `json:"index"`
	Answer       string   `json:"answer"`
	LocalOptions []string `json:"local_options,omitempty"`
	Hint         string   `json:"hint,omitempty"`
}

// Normalize is the only matching rule applied to answers and input: trim
// plus lowercase. Unicode is otherwise opaque.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ParseBlanks extracts every blank specification from text in order of
// appearance. Text between blanks is ignored here; it stays literal and is
// handled by substitution.
func ParseBlanks(text string) []BlankSpec {
	tokens := blankRe.FindAllString(text, -1)
	specs := make([]BlankSpec, 0, len(tokens))
	for i, tok := range tokens {
		specs = append(specs, parseToken(tok, i))
	}
	return specs
}

// parseToken parses a single "[...]" token. Segment 0 is the answer; a
// segment with the "hint:" prefix sets the hint (last one wins); every other
// segment is an option, declaration order preserved.
func parseToken(tok string, index int) BlankSpec {
	interior := strings.TrimSuffix(strings.TrimPrefix(tok, "["), "]")
	segments := strings.Split(interior, "|")

	spec := BlankSpec{Index: index, Answer: segments[0]}
	for _, seg := range segments[1:] {
		if strings.HasPrefix(seg, hintPrefix) {
			spec.Hint = strings.TrimPrefix(seg, hintPrefix)
			continue
		}
		spec.LocalOptions = append(spec.LocalOptions, seg)
	}
	return spec
}

// IsBlankToken reports whether s is exactly one blank token.
func IsBlankToken(s string) bool {
	return len(s) >= 2 && strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") &&
		blankRe.FindString(s) == s
}

// SplitKeep splits text on blank tokens, keeping the tokens as their own
// segments. Concatenating the result yields the input unchanged.
func SplitKeep(text string) []string {
	locs := blankRe.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return []string{text}
	}
	var out []string
	prev := 0
	for _, loc := range locs {
		if loc[0] > prev {
			out = append(out, text[prev:loc[0]])
		}
		out = append(out, text[loc[0]:loc[1]])
		prev = loc[1]
	}
	if prev < len(text) {
		out = append(out, text[prev:])
	}
	return out
}
