// Package render turns assistant replies into styled terminal output.
package render

// Options configures the markdown renderer.
type Options struct {
	// Width is the wrap column (default 80).
	Width int

	// Style is a glamour style name, StyleBasic, or a path to a JSON style.
	Style string

	EnableEmoji      bool
	PreserveNewLines bool
	TableWrap        bool
	InlineTableLinks bool
}

// DefaultOptions returns the default configuration.
func DefaultOptions() Options {
	return Options{
		Width:            80,
		Style:            StyleDark,
		EnableEmoji:      true,
		PreserveNewLines: true,
		TableWrap:        true,
	}
}

// WithWidth returns a copy of o with the wrap column set.
func (o Options) WithWidth(width int) Options {
	o.Width = width
	return o
}

// WithStyle returns a copy of o using style.
func (o Options) WithStyle(style string) Options {
	o.Style = style
	return o
}

// Basic reports whether o bypasses glamour for the built-in formatter.
func (o Options) Basic() bool {
	return o.Style == StyleBasic
}
