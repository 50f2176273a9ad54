package mcpserver

// ExerciseFormatContract describes the canonical exercise format that
// LLM consumers should follow when creating exercises.
const ExerciseFormatContract = `# Lacuna Exercise Format Contract

Every exercise stored in Lacuna MUST follow this structure.

## Structure

` + "```" + `markdown
---
title: Human-readable title        # OPTIONAL – falls back to the first heading
tags:                               # OPTIONAL – YAML list; used for filtering
  - tag-one
  - tag-two
mode: type                          # OPTIONAL – "type" (default) or "picker"
options:                            # OPTIONAL – global picker choices
  - Paris
  - London
---

Body text in standard Markdown with blanks in square brackets.

The capital of France is [Paris].
` + "```" + `

## Blank syntax

A blank is a square-bracket token inside the body text:

` + "```" + `
[answer]                       plain blank
[answer|wrong1|wrong2]         blank with extra picker choices
[answer|hint:some hint text]   blank with a hint
[cat|dog|hint:a common pet]    choices and a hint combined
` + "```" + `

1. **The first segment is always the answer.** Everything before the first
   pipe. Answers are matched case-insensitively with surrounding whitespace
   ignored, so "paris" and " Paris " both count.
2. **Later segments are extra choices** shown in picker mode, except a
   segment starting with ` + "`" + `hint:` + "`" + ` which becomes the hint. If several hint
   segments appear, the last one wins.
3. **Empty brackets ` + "`" + `[]` + "`" + ` are a blank with an empty answer.** Only empty
   or whitespace input matches it; avoid unless that is what you mean.
4. **Blanks are numbered left to right, top to bottom** across the whole
   body, starting at 0.

## Modes

- ` + "`" + `type` + "`" + `: the learner types the answer into a text field.
- ` + "`" + `picker` + "`" + `: the learner picks from a closed choice list built from the
  blank's own choices, the frontmatter ` + "`" + `options` + "`" + ` list, and the answer.

## Tables

Exercises may be a single Markdown table with blanks inside cells:

` + "```" + `markdown
| Country | Capital  |
|---------|----------|
| France  | [Paris]  |
| Italy   | [Rome]   |
` + "```" + `

## Assets & Images

- Upload assets via the ` + "`" + `upload_asset` + "`" + ` tool. It returns an ` + "`" + `embed` + "`" + ` snippet ready to paste into the exercise body.
- Assets are stored in the shared ` + "`" + `assets/` + "`" + ` directory (flat, no sub-folders).
- Reference in exercises using the absolute path: ` + "`" + `![description](/assets/filename.png)` + "`" + `
- Supported formats: png, jpg, jpeg, gif, webp, svg, pdf.
- Do **not** use relative paths like ` + "`" + `./assets/...` + "`" + `; always use ` + "`" + `/assets/filename` + "`" + `.

## Example

` + "```" + `markdown
---
title: European Capitals
tags:
  - geography
mode: picker
options:
  - Madrid
  - Berlin
---

# European Capitals

The capital of France is [Paris|hint:city of light].
The capital of Italy is [Rome].
` + "```" + `
`
