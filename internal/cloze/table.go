package cloze

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/starford/lacuna/internal/content"
)

// Table cell boundaries are determined by the text structure (pipe and
// separator positions), so tree-preserving substitution cannot be guaranteed
// for tables. Instead each blank is flattened to an inert positional marker,
// the marked text is reparsed as a table, and markers are resolved back to
// blank indices afterwards.

var (
	// separatorRowRe matches a table separator row: cells of only '-', ':'
	// and whitespace, bounded by pipes, with at least one dash.
	separatorRowRe = regexp.MustCompile(`^\s*\|[:\s|-]*-[:\s|-]*\|\s*$`)

	// markerRe matches the inert marker a blank is flattened to. The marker
	// carries only the blank index; everything else lives in the spec lookup.
	markerRe = regexp.MustCompile(`\{\{blank:(\d+)\}\}`)
)

// IsTable reports whether flattened text is a table: at least one line
// containing a pipe and at least one separator row. Detection runs on
// dedented text so indentation from nesting does not defeat it.
func IsTable(text string) bool {
	hasPipe := false
	hasSeparator := false
	for _, line := range strings.Split(content.Dedent(text), "\n") {
		if strings.Contains(line, "|") {
			hasPipe = true
		}
		if separatorRowRe.MatchString(line) {
			hasSeparator = true
		}
	}
	return hasPipe && hasSeparator
}

// Marker returns the inert marker text for blank index i.
func Marker(i int) string {
	return fmt.Sprintf("{{blank:%d}}", i)
}

// InsertMarkers replaces each blank token in text with its positional marker,
// assigning indices in order of appearance.
func InsertMarkers(text string) string {
	var b strings.Builder
	next := 0
	for _, seg := range SplitKeep(text) {
		if IsBlankToken(seg) {
			b.WriteString(Marker(next))
			next++
			continue
		}
		b.WriteString(seg)
	}
	return b.String()
}

// SubstituteTable runs the two-pass table path: flatten blanks to markers,
// reparse the marked text through the table renderer, then rehydrate markers
// into rendered blank nodes. If the renderer drops or reorders a marker, that
// blank silently fails to render.
func SubstituteTable(flat string, specs []BlankSpec, render RenderFunc, parse func(string) content.Node) content.Node {
	marked := InsertMarkers(content.Dedent(flat))
	return Rehydrate(parse(marked), specs, render)
}

// Rehydrate resolves every surviving marker in the tree to the rendered node
// for its blank index. Markers with no matching spec are dropped.
func Rehydrate(root content.Node, specs []BlankSpec, render RenderFunc) content.Node {
	nodes := rehydrateNode(root, specs, render)
	if len(nodes) == 1 {
		return nodes[0]
	}
	return content.Elem("fragment", nodes...)
}

func rehydrateNode(n content.Node, specs []BlankSpec, render RenderFunc) []content.Node {
	if n.IsText() {
		return rehydrateText(n.Text, specs, render)
	}
	if len(n.Children) == 0 {
		return []content.Node{n}
	}
	children := make([]content.Node, 0, len(n.Children))
	for _, c := range n.Children {
		children = append(children, rehydrateNode(c, specs, render)...)
	}
	n.Children = children
	return []content.Node{n}
}

func rehydrateText(text string, specs []BlankSpec, render RenderFunc) []content.Node {
	locs := markerRe.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return []content.Node{content.TextNode(text)}
	}
	var out []content.Node
	prev := 0
	for _, loc := range locs {
		if loc[0] > prev {
			out = append(out, content.TextNode(text[prev:loc[0]]))
		}
		idx, err := strconv.Atoi(text[loc[2]:loc[3]])
		if err == nil && idx >= 0 && idx < len(specs) {
			out = append(out, render(idx, specs[idx]))
		}
		prev = loc[1]
	}
	if prev < len(text) {
		out = append(out, content.TextNode(text[prev:]))
	}
	return out
}
