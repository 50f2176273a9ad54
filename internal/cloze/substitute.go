package cloze

import "github.com/starford/lacuna/internal/content"

// RenderFunc produces the interactive node for one blank.
type RenderFunc func(index int, spec BlankSpec) content.Node

// Substitute walks root depth-first left-to-right and replaces every blank
// token found inside text leaves with the result of render, leaving all other
// structure untouched. The blank counter is threaded through the traversal as
// an explicit accumulator so indices stay aligned with ParseBlanks over the
// flattened text, even when blanks are scattered across many leaves.
//
// If more blank tokens are encountered than specs exist (mismatched or
// partially authored content), the raw bracket text is emitted verbatim
// instead of failing.
func Substitute(root content.Node, specs []BlankSpec, render RenderFunc) content.Node {
	nodes, _ := substituteNode(root, specs, render, 0)
	if len(nodes) == 1 {
		return nodes[0]
	}
	return content.Elem("fragment", nodes...)
}

// substituteNode returns the replacement node(s) for n and the updated blank
// counter. A text leaf containing blanks expands into several siblings, which
// is why the result is a slice.
func substituteNode(n content.Node, specs []BlankSpec, render RenderFunc, next int) ([]content.Node, int) {
	if n.IsText() {
		return substituteText(n.Text, specs, render, next)
	}
	if len(n.Children) == 0 {
		return []content.Node{n}, next
	}

	children := make([]content.Node, 0, len(n.Children))
	for _, c := range n.Children {
		var sub []content.Node
		sub, next = substituteNode(c, specs, render, next)
		children = append(children, sub...)
	}
	n.Children = children
	return []content.Node{n}, next
}

func substituteText(text string, specs []BlankSpec, render RenderFunc, next int) ([]content.Node, int) {
	segments := SplitKeep(text)
	out := make([]content.Node, 0, len(segments))
	for _, seg := range segments {
		if !IsBlankToken(seg) || next >= len(specs) {
			out = append(out, content.TextNode(seg))
			continue
		}
		out = append(out, render(next, specs[next]))
		next++
	}
	return out, next
}
