// Package markdown converts exercise Markdown into the generic content tree
// using goldmark with GFM extensions (tables, strikethrough). It is the table
// renderer collaborator of the cloze package: marked-up text goes in, a
// content.Node tree comes out.
package markdown

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/starford/lacuna/internal/content"
)

// Converter parses Markdown source into content trees.
type Converter struct {
	md goldmark.Markdown
}

// New creates a converter with GFM enabled.
func New() *Converter {
	return &Converter{
		md: goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// ToTree parses source and returns the content tree rooted at a "div".
func (c *Converter) ToTree(source []byte) content.Node {
	doc := c.md.Parser().Parse(text.NewReader(source))
	return content.Node{Tag: "div", Children: c.convertChildren(doc, source)}
}

// ToTreeString is ToTree for string input.
func (c *Converter) ToTreeString(source string) content.Node {
	return c.ToTree([]byte(source))
}

// convertChildren converts all children of n, coalescing adjacent text
// leaves. Goldmark emits bracket text that fails to parse as a link in
// several fragments; merging keeps each blank token inside a single leaf so
// substitution can see it whole.
func (c *Converter) convertChildren(n ast.Node, source []byte) []content.Node {
	var out []content.Node
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		out = appendMerged(out, c.convertNode(child, source)...)
	}
	return out
}

func appendMerged(nodes []content.Node, add ...content.Node) []content.Node {
	for _, n := range add {
		if n.IsText() && len(nodes) > 0 && nodes[len(nodes)-1].IsText() {
			nodes[len(nodes)-1].Text += n.Text
			continue
		}
		nodes = append(nodes, n)
	}
	return nodes
}

func (c *Converter) convertNode(n ast.Node, source []byte) []content.Node {
	switch n.Kind() {
	case ast.KindText:
		t := n.(*ast.Text)
		nodes := []content.Node{content.TextNode(string(t.Segment.Value(source)))}
		if t.HardLineBreak() {
			nodes = append(nodes, content.Elem("br"))
		} else if t.SoftLineBreak() {
			nodes = append(nodes, content.TextNode("\n"))
		}
		return nodes

	case ast.KindString:
		return []content.Node{content.TextNode(string(n.(*ast.String).Value))}

	case ast.KindParagraph:
		return []content.Node{content.Node{Tag: "p", Children: c.convertChildren(n, source)}}

	case ast.KindTextBlock:
		// Tight list items wrap their text in a TextBlock; splice it.
		return c.convertChildren(n, source)

	case ast.KindHeading:
		h := n.(*ast.Heading)
		tag := fmt.Sprintf("h%d", h.Level)
		return []content.Node{content.Node{Tag: tag, Children: c.convertChildren(n, source)}}

	case ast.KindEmphasis:
		tag := "em"
		if n.(*ast.Emphasis).Level > 1 {
			tag = "strong"
		}
		return []content.Node{content.Node{Tag: tag, Children: c.convertChildren(n, source)}}

	case ast.KindCodeSpan:
		return []content.Node{content.Node{Tag: "code", Children: c.convertChildren(n, source)}}

	case ast.KindCodeBlock, ast.KindFencedCodeBlock:
		return []content.Node{content.Elem("pre", content.TextNode(blockLines(n, source)))}

	case ast.KindBlockquote:
		return []content.Node{content.Node{Tag: "blockquote", Children: c.convertChildren(n, source)}}

	case ast.KindList:
		tag := "ul"
		if n.(*ast.List).IsOrdered() {
			tag = "ol"
		}
		return []content.Node{content.Node{Tag: tag, Children: c.convertChildren(n, source)}}

	case ast.KindListItem:
		return []content.Node{content.Node{Tag: "li", Children: c.convertChildren(n, source)}}

	case ast.KindThematicBreak:
		return []content.Node{content.Elem("hr")}

	case ast.KindLink:
		l := n.(*ast.Link)
		el := content.Node{Tag: "a", Children: c.convertChildren(n, source)}
		return []content.Node{el.WithAttr("href", string(l.Destination))}

	case ast.KindAutoLink:
		al := n.(*ast.AutoLink)
		url := string(al.URL(source))
		el := content.Elem("a", content.TextNode(url))
		return []content.Node{el.WithAttr("href", url)}

	case ast.KindImage:
		img := n.(*ast.Image)
		return []content.Node{content.Elem("img").WithAttr("src", string(img.Destination))}

	case east.KindTable:
		return []content.Node{content.Node{Tag: "table", Children: c.convertChildren(n, source)}}

	case east.KindTableHeader, east.KindTableRow:
		return []content.Node{content.Node{Tag: "tr", Children: c.convertChildren(n, source)}}

	case east.KindTableCell:
		return []content.Node{content.Node{Tag: "td", Children: c.convertChildren(n, source)}}

	case east.KindStrikethrough:
		return []content.Node{content.Node{Tag: "del", Children: c.convertChildren(n, source)}}

	case ast.KindHTMLBlock:
		return []content.Node{content.TextNode(blockLines(n, source))}

	case ast.KindRawHTML:
		raw := n.(*ast.RawHTML)
		var b strings.Builder
		for i := 0; i < raw.Segments.Len(); i++ {
			seg := raw.Segments.At(i)
			b.Write(seg.Value(source))
		}
		return []content.Node{content.TextNode(b.String())}

	default:
		// Unknown node kinds pass their children through.
		return c.convertChildren(n, source)
	}
}

// blockLines concatenates the raw source lines of a block node.
func blockLines(n ast.Node, source []byte) string {
	var b strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(source))
	}
	return b.String()
}
