package exercise

import (
	"context"
	"errors"
	"os"
	"sort"
	"strconv"

	"github.com/starford/lacuna/internal/apperr"
	"github.com/starford/lacuna/internal/checksum"
	"github.com/starford/lacuna/internal/cloze"
	"github.com/starford/lacuna/internal/content"
	"github.com/starford/lacuna/internal/models"
	"github.com/starford/lacuna/internal/parser"
)

// RenderResult is a rendered exercise: the content tree with every blank
// replaced by an interactive blank node. Answers never appear in the tree.
type RenderResult struct {
	Path     string       `json:"path"`
	Title    string       `json:"title"`
	Checksum string       `json:"checksum"`
	Mode     string       `json:"mode"`
	Table    bool         `json:"table"`
	Blanks   int          `json:"blanks"`
	Tree     content.Node `json:"tree"`
}

// Render reads an exercise and produces its interactive content tree. The
// tree-preserving walker handles ordinary content; tables take the two-pass
// marker path over the raw body, before the table renderer sees it.
// modeOverride, when non-empty, wins over the frontmatter mode.
func (s *Service) Render(_ context.Context, path, modeOverride string) (*RenderResult, error) {
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	res, err := parser.Parse(data)
	if err != nil {
		return nil, err
	}

	mode := res.Mode
	if modeOverride == models.ModeType || modeOverride == models.ModePicker {
		mode = modeOverride
	}

	specs, table := s.bodySpecs(res.Body)

	renderBlank := func(i int, spec cloze.BlankSpec) content.Node {
		return s.blankNode(i, spec, mode, res.Options)
	}

	var tree content.Node
	if table {
		tree = cloze.SubstituteTable(res.Body, specs, renderBlank, s.md.ToTreeString)
	} else {
		tree = cloze.Substitute(s.md.ToTreeString(res.Body), specs, renderBlank)
	}

	return &RenderResult{
		Path:     path,
		Title:    res.Title,
		Checksum: checksum.Sum(data),
		Mode:     mode,
		Table:    table,
		Blanks:   len(specs),
		Tree:     tree,
	}, nil
}

// blankNode builds the interactive node for one blank: a "blank" element
// with index and mode attributes, an optional hint, and, in picker mode, its
// choice list as option children.
func (s *Service) blankNode(i int, spec cloze.BlankSpec, mode string, global []string) content.Node {
	node := content.Elem("blank").
		WithAttr("index", strconv.Itoa(i)).
		WithAttr("mode", mode)

	if s.showHints && spec.Hint != "" {
		node = node.WithAttr("hint", spec.Hint)
	}

	if mode == models.ModePicker {
		for _, choice := range pickerChoices(spec, global) {
			node.Children = append(node.Children, content.Elem("option", content.TextNode(choice)))
		}
	}
	return node
}

// pickerChoices is the closed choice set for one blank: local options plus
// global options plus the answer itself, deduplicated and sorted lexically.
// Sorting also keeps the answer's position from giving it away.
func pickerChoices(spec cloze.BlankSpec, global []string) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(s string) {
		if s == "" {
			return
		}
		if _, dup := seen[s]; dup {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	for _, o := range spec.LocalOptions {
		add(o)
	}
	for _, o := range global {
		add(o)
	}
	add(spec.Answer)
	sort.Strings(out)
	return out
}

// Specs returns the blank specifications and content checksum for an
// exercise; sessions are created from these.
func (s *Service) Specs(_ context.Context, path string) ([]cloze.BlankSpec, string, error) {
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, "", apperr.ErrNotFound
		}
		return nil, "", err
	}
	res, err := parser.Parse(data)
	if err != nil {
		return nil, "", err
	}
	specs, _ := s.bodySpecs(res.Body)
	return specs, checksum.Sum(data), nil
}

// bodySpecs extracts the blank specifications for a body and reports whether
// it takes the table path. Table bodies are analyzed as raw text: the table
// renderer consumes pipes before extraction could run, and a pipe-bearing
// blank would be split across cells and lose its options and hint.
func (s *Service) bodySpecs(body string) ([]cloze.BlankSpec, bool) {
	if cloze.IsTable(body) {
		return cloze.ParseBlanks(body), true
	}
	return cloze.ParseBlanks(content.Flatten(s.md.ToTreeString(body))), false
}

// AnswerCheck is the grading result for one blank.
type AnswerCheck struct {
	Index   int    `json:"index"`
	Correct bool   `json:"correct"`
	Value   string `json:"value"`
}

// CheckAnswers grades a complete answer set against an exercise, for
// stateless clients. Missing values grade as empty input.
func (s *Service) CheckAnswers(ctx context.Context, path string, values []string) ([]AnswerCheck, bool, error) {
	specs, _, err := s.Specs(ctx, path)
	if err != nil {
		return nil, false, err
	}
	checks := make([]AnswerCheck, len(specs))
	all := true
	for i, spec := range specs {
		v := ""
		if i < len(values) {
			v = values[i]
		}
		ok := cloze.Normalize(v) == cloze.Normalize(spec.Answer)
		checks[i] = AnswerCheck{Index: i, Correct: ok, Value: v}
		if !ok {
			all = false
		}
	}
	return checks, all, nil
}
