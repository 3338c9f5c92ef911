// Package format converts the lightweight markup used in chat replies.
//
// A Pipeline is an ordered list of rules. The HTML pipeline is:
//
//  1. escape bare &, < and > (entities and the pipeline's own tags are kept)
//  2. ```code``` becomes <pre><code>code</code></pre>
//  3. `code` becomes <code>code</code>
//  4. **text** becomes <strong>text</strong>
//  5. *text* becomes <em>text</em>
//  6. newlines become <br>
//
// The terminal pipeline applies rules 2-5 with lipgloss styles and keeps
// newlines.
package format

import (
	"regexp"
	"strings"
)

// Rule rewrites every match of Pattern. Replace receives the full match
// followed by its submatches.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	Replace func(groups []string) string
}

// Apply rewrites every non-overlapping match in text
func (r Rule) Apply(text string) string {
	matches := r.Pattern.FindAllStringSubmatchIndex(text, -1)
	if matches == nil {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, m := range matches {
		b.WriteString(text[last:m[0]])
		groups := make([]string, len(m)/2)
		for i := range groups {
			if m[2*i] >= 0 {
				groups[i] = text[m[2*i]:m[2*i+1]]
			}
		}
		b.WriteString(r.Replace(groups))
		last = m[1]
	}
	b.WriteString(text[last:])
	return b.String()
}

// Pipeline is an ordered list of rules
type Pipeline struct {
	rules []Rule
}

// NewPipeline creates a pipeline that applies rules in the given order
func NewPipeline(rules ...Rule) *Pipeline {
	return &Pipeline{rules: rules}
}

// Rules returns the rule names in order
func (p *Pipeline) Rules() []string {
	names := make([]string, len(p.rules))
	for i, r := range p.rules {
		names[i] = r.Name
	}
	return names
}

// Apply runs each rule once, in order
func (p *Pipeline) Apply(text string) string {
	for _, r := range p.rules {
		text = r.Apply(text)
	}
	return text
}

// Shared patterns. Inline code swallows whole backtick runs so that
// ``x`` never leaves a stray backtick behind.
//
// Bold and emphasis are lazy and stay on one line. Bold may hold stars and
// whole code spans, emphasis holds no tags at all. Neither can reach across
// a <br>, so formatted output never forms a new match and a second pass
// leaves it unchanged.
var (
	fencedPattern = regexp.MustCompile("```([\\s\\S]*?)```")
	inlinePattern = regexp.MustCompile("`+([^`]+)`+")
	boldPattern   = regexp.MustCompile(`\*\*((?:[^\n<]|<code>[^<\n]*</code>)+?)\*\*`)
	emPattern     = regexp.MustCompile(`\*([^*\n<]+?)\*`)
	escapePattern = regexp.MustCompile(`&(?:amp|lt|gt|quot|#[0-9]+);|</?(?:pre|code|strong|em)>|<br>|[&<>]`)
)

var htmlEscapes = map[string]string{
	"&": "&amp;",
	"<": "&lt;",
	">": "&gt;",
}

// EscapeRule escapes bare &, < and > and leaves known entities and tags alone
func EscapeRule() Rule {
	return Rule{
		Name:    "escape",
		Pattern: escapePattern,
		Replace: func(g []string) string {
			if esc, ok := htmlEscapes[g[0]]; ok {
				return esc
			}
			return g[0]
		},
	}
}

// wrap returns a Replace func that wraps the first submatch
func wrap(open, close string) func([]string) string {
	return func(g []string) string {
		return open + g[1] + close
	}
}

// HTMLRules returns the rules of the HTML pipeline in order
func HTMLRules() []Rule {
	return []Rule{
		EscapeRule(),
		{Name: "fenced_code", Pattern: fencedPattern, Replace: wrap("<pre><code>", "</code></pre>")},
		{Name: "inline_code", Pattern: inlinePattern, Replace: wrap("<code>", "</code>")},
		{Name: "bold", Pattern: boldPattern, Replace: wrap("<strong>", "</strong>")},
		{Name: "emphasis", Pattern: emPattern, Replace: wrap("<em>", "</em>")},
		{Name: "newline", Pattern: regexp.MustCompile(`\n`), Replace: func([]string) string { return "<br>" }},
	}
}

var htmlPipeline = NewPipeline(HTMLRules()...)

// HTML formats text for embedding in an HTML document
func HTML(text string) string {
	return htmlPipeline.Apply(text)
}
