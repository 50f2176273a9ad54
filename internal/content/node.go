// Package content defines the generic labeled node tree that rendered
// exercises are built from, plus the flattening helpers shared by blank
// extraction and table detection.
package content

import "strings"

// Node is either a text leaf (Tag empty, Text set) or an element with a tag,
// optional attributes, and an ordered child list. Text leaves never nest.
type Node struct {
	Tag      string            `json:"tag,omitempty"`
	Text     string            `json:"text,omitempty"`
	Attrs    map[string]string `json:"attrs,omitempty"`
	Children []Node            `json:"children,omitempty"`
}

// TextNode returns a text leaf.
func TextNode(s string) Node {
	return Node{Text: s}
}

// Elem returns an element node with the given tag and children.
func Elem(tag string, children ...Node) Node {
	return Node{Tag: tag, Children: children}
}

// IsText reports whether n is a text leaf.
func (n Node) IsText() bool {
	return n.Tag == ""
}

// WithAttr returns a copy of n with an attribute set.
func (n Node) WithAttr(key, value string) Node {
	attrs := make(map[string]string, len(n.Attrs)+1)
	for k, v := range n.Attrs {
		attrs[k] = v
	}
	attrs[key] = value
	n.Attrs = attrs
	return n
}

// blockTags are elements that terminate a line when flattening. Inline
// elements (strong, em, code, ...) flatten without separators.
var blockTags = map[string]struct{}{
	"p": {}, "div": {}, "li": {}, "br": {}, "hr": {},
	"blockquote": {}, "pre": {},
	"h1": {}, "h2": {}, "h3": {}, "h4": {}, "h5": {}, "h6": {},
	"ul": {}, "ol": {}, "table": {}, "thead": {}, "tbody": {}, "tr": {},
}

// IsBlockTag reports whether tag is treated as block-level by Flatten.
func IsBlockTag(tag string) bool {
	_, ok := blockTags[tag]
	return ok
}

// Flatten converts a tree to a single string, inserting a line break after
// every block-level element so that multi-paragraph content and table rows
// survive the round trip. The same flattening feeds blank extraction and
// table detection, which keeps blank indices consistent between them.
func Flatten(n Node) string {
	var b strings.Builder
	flattenInto(&b, n)
	return b.String()
}

func flattenInto(b *strings.Builder, n Node) {
	if n.IsText() {
		b.WriteString(n.Text)
		return
	}
	for _, c := range n.Children {
		flattenInto(b, c)
	}
	if IsBlockTag(n.Tag) && !strings.HasSuffix(b.String(), "\n") {
		b.WriteByte('\n')
	}
}

// Dedent strips the common leading whitespace shared by all non-blank lines.
// Indentation introduced by nesting would otherwise defeat table detection.
func Dedent(text string) string {
	lines := strings.Split(text, "\n")
	indent := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		n := len(line) - len(strings.TrimLeft(line, " \t"))
		if indent < 0 || n < indent {
			indent = n
		}
	}
	if indent <= 0 {
		return text
	}
	for i, line := range lines {
		if len(line) >= indent {
			lines[i] = line[indent:]
		} else {
			lines[i] = strings.TrimLeft(line, " \t")
		}
	}
	return strings.Join(lines, "\n")
}
