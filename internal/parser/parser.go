// Package parser extracts frontmatter, render mode, global options, and tags
// from exercise Markdown content.
package parser

import (
	"bytes"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/lacuna/internal/models"
)

// Result holds the output of parsing an exercise file.
type Result struct {
	Frontmatter map[string]interface{}
	Body        string
	Tags        []string
	Title       string
	Mode        string
	Options     []string
}

// Parse extracts frontmatter, body, tags, title, render mode, and global
// picker options from raw exercise bytes.
func Parse(data []byte) (*Result, error) {
	fm, body, err := splitFrontmatter(data)
	if err != nil {
		return nil, err
	}

	return &Result{
		Frontmatter: fm,
		Body:        body,
		Tags:        extractTags(fm),
		Title:       deriveTitle(fm, body),
		Mode:        extractMode(fm),
		Options:     stringList(fm, "options"),
	}, nil
}

// splitFrontmatter separates YAML frontmatter (between leading --- delimiters)
// from the Markdown body. If no frontmatter is found the entire content is body.
func splitFrontmatter(data []byte) (map[string]interface{}, string, error) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data), nil
	}

	// Find end delimiter.
	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		// No closing delimiter, treat everything as body.
		return nil, string(data), nil
	}

	yamlBlock := rest[:idx]
	// Body starts after closing delimiter line.
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	var fm map[string]interface{}
	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		// Invalid YAML still yields the body; frontmatter errors are not fatal.
		return nil, string(data), nil
	}

	return fm, body, nil
}

// extractTags collects the frontmatter "tags" list.
func extractTags(fm map[string]interface{}) []string {
	return stringList(fm, "tags")
}

// extractMode reads the frontmatter "mode" field, defaulting to free-text.
func extractMode(fm map[string]interface{}) string {
	if fm != nil {
		if raw, ok := fm["mode"]; ok {
			if s, ok := raw.(string); ok {
				s = strings.TrimSpace(strings.ToLower(s))
				if s == models.ModePicker {
					return models.ModePicker
				}
			}
		}
	}
	return models.ModeType
}

// stringList reads a frontmatter field as a deduplicated list of non-empty
// strings, declaration order preserved.
func stringList(fm map[string]interface{}, key string) []string {
	if fm == nil {
		return nil
	}
	raw, ok := fm[key]
	if !ok {
		return nil
	}
	items, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	seen := make(map[string]struct{}, len(items))
	var out []string
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// deriveTitle returns the frontmatter "title" if present, otherwise the first
// H1 heading, otherwise empty string.
func deriveTitle(fm map[string]interface{}, body string) string {
	if fm != nil {
		if t, ok := fm["title"]; ok {
			if s, ok := t.(string); ok && s != "" {
				return s
			}
		}
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}
