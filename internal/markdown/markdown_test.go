package markdown

import (
	"strings"
	"testing"

	"github.com/starford/lacuna/internal/cloze"
	"github.com/starford/lacuna/internal/content"
)

func findFirst(n content.Node, tag string) (content.Node, bool) {
	if n.Tag == tag {
		return n, true
	}
	for _, c := range n.Children {
		if found, ok := findFirst(c, tag); ok {
			return found, true
		}
	}
	return content.Node{}, false
}

func TestToTree_Basics(t *testing.T) {
	c := New()
	tree := c.ToTreeString("# Title\n\nSome **bold** text.")

	if tree.Tag != "div" {
		t.Fatalf("root = %q, want div", tree.Tag)
	}
	h, ok := findFirst(tree, "h1")
	if !ok {
		t.Fatal("no h1 node")
	}
	if content.Flatten(h) != "Title\n" {
		t.Errorf("heading text = %q", content.Flatten(h))
	}
	if _, ok := findFirst(tree, "strong"); !ok {
		t.Error("no strong node")
	}
	if got := content.Flatten(tree); !strings.Contains(got, "Some bold text.") {
		t.Errorf("flattened = %q", got)
	}
}

func TestToTree_BlankTokenStaysWhole(t *testing.T) {
	// "[Paris]" looks like a failed link to the parser; the fragments it
	// emits must be merged back into one leaf so the token is matchable.
	c := New()
	tree := c.ToTreeString("The capital of France is [Paris|hint:city of light].")

	p, ok := findFirst(tree, "p")
	if !ok {
		t.Fatal("no paragraph")
	}
	var found bool
	for _, child := range p.Children {
		if child.IsText() && strings.Contains(child.Text, "[Paris|hint:city of light]") {
			found = true
		}
	}
	if !found {
		t.Errorf("blank token fragmented across leaves: %+v", p.Children)
	}

	specs := cloze.ParseBlanks(content.Flatten(tree))
	if len(specs) != 1 || specs[0].Answer != "Paris" {
		t.Errorf("specs = %+v", specs)
	}
}

func TestToTree_MultipleBlanksPerLine(t *testing.T) {
	c := New()
	tree := c.ToTreeString("[a] then [b] then [c]")
	specs := cloze.ParseBlanks(content.Flatten(tree))
	if len(specs) != 3 {
		t.Errorf("specs = %d, want 3", len(specs))
	}
}

func TestToTree_GFMTable(t *testing.T) {
	c := New()
	tree := c.ToTreeString("| Country | Capital |\n|---|---|\n| France | {{blank:0}} |")

	table, ok := findFirst(tree, "table")
	if !ok {
		t.Fatal("no table node")
	}
	rows := 0
	for _, child := range table.Children {
		if child.Tag == "tr" {
			rows++
		}
	}
	if rows != 2 {
		t.Errorf("rows = %d, want 2 (header + body)", rows)
	}
	// Markers survive table cell parsing intact.
	if got := content.Flatten(table); !strings.Contains(got, "{{blank:0}}") {
		t.Errorf("marker lost in table: %q", got)
	}
}

func TestToTree_List(t *testing.T) {
	c := New()
	tree := c.ToTreeString("- one\n- two [x]\n")

	ul, ok := findFirst(tree, "ul")
	if !ok {
		t.Fatal("no ul node")
	}
	items := 0
	for _, child := range ul.Children {
		if child.Tag == "li" {
			items++
		}
	}
	if items != 2 {
		t.Errorf("items = %d, want 2", items)
	}
	if specs := cloze.ParseBlanks(content.Flatten(tree)); len(specs) != 1 {
		t.Errorf("specs in list = %d, want 1", len(specs))
	}
}

func TestToTree_CodeBlockKeptVerbatim(t *testing.T) {
	c := New()
	tree := c.ToTreeString("```\nnot a [blank]\n```")

	pre, ok := findFirst(tree, "pre")
	if !ok {
		t.Fatal("no pre node")
	}
	if !strings.Contains(content.Flatten(pre), "not a [blank]") {
		t.Errorf("code content = %q", content.Flatten(pre))
	}
}

func TestToTree_LinkAndImage(t *testing.T) {
	c := New()
	tree := c.ToTreeString("See [the docs](https://example.com) and ![pic](/assets/p.png).")

	a, ok := findFirst(tree, "a")
	if !ok {
		t.Fatal("no link node")
	}
	if a.Attrs["href"] != "https://example.com" {
		t.Errorf("href = %q", a.Attrs["href"])
	}
	img, ok := findFirst(tree, "img")
	if !ok {
		t.Fatal("no img node")
	}
	if img.Attrs["src"] != "/assets/p.png" {
		t.Errorf("src = %q", img.Attrs["src"])
	}
}

func TestToTree_SoftBreakFlattensToNewline(t *testing.T) {
	c := New()
	tree := c.ToTreeString("line one\nline two")
	flat := content.Flatten(tree)
	if !strings.Contains(flat, "line one\nline two") {
		t.Errorf("flattened = %q", flat)
	}
}
