package render

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/chatline/internal/format"
)

// Markdown renders content for terminal display. The basic style uses the
// inline formatter; every other style goes through a pooled glamour renderer.
func Markdown(content string, opts Options) (string, error) {
	if opts.Basic() {
		return basic(content, opts.Width), nil
	}

	renderer, err := globalPool.get(opts)
	if err != nil {
		return "", err
	}
	defer globalPool.put(opts, renderer)

	return renderer.Render(content)
}

// MarkdownWithWidth renders with default options at the given width.
func MarkdownWithWidth(content string, width int) (string, error) {
	return Markdown(content, DefaultOptions().WithWidth(width))
}

// Fallback renders content without failing: on a glamour error the basic
// formatter is used instead.
func Fallback(content string, opts Options) string {
	out, err := Markdown(content, opts)
	if err != nil {
		return basic(content, opts.Width)
	}
	return out
}

func basic(content string, width int) string {
	out := format.Terminal(content)
	if width > 0 {
		out = lipgloss.NewStyle().Width(width).Render(out)
	}
	return out
}
