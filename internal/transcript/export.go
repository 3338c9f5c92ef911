// Package transcript exports a conversation to a file.
package transcript

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/diogo/chatline/internal/format"
	"github.com/diogo/chatline/internal/models"
)

// Format is an export file format
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatHTML     Format = "html"
)

// extensions maps file extensions to formats; the first entry per format is
// the one used for generated file names.
var extensions = []struct {
	ext    string
	format Format
}{
	{".md", FormatMarkdown},
	{".markdown", FormatMarkdown},
	{".json", FormatJSON},
	{".html", FormatHTML},
	{".htm", FormatHTML},
}

// Transcript is a conversation snapshot plus the context it came from
type Transcript struct {
	SessionID  string
	Endpoint   string
	ExportedAt time.Time
	Messages   []models.Message
}

// ParseFormat accepts a format name or a common alias such as "md"
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	case "html", "htm":
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("unknown export format %q (use markdown, json or html)", name)
	}
}

// FormatForPath picks the format from the file extension, defaulting to Markdown
func FormatForPath(path string) Format {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range extensions {
		if e.ext == ext {
			return e.format
		}
	}
	return FormatMarkdown
}

// DefaultFileName returns a timestamped file name for f
func DefaultFileName(now time.Time, f Format) string {
	ext := ".md"
	for _, e := range extensions {
		if e.format == f {
			ext = e.ext
			break
		}
	}
	return "chatline-" + now.Format("20060102-150405") + ext
}

// Markdown renders the transcript as a Markdown document
func Markdown(t Transcript) string {
	var sb strings.Builder

	sb.WriteString("# Chat transcript\n\n")
	if t.Endpoint != "" {
		fmt.Fprintf(&sb, "**Endpoint:** %s\n", t.Endpoint)
	}
	if t.SessionID != "" {
		fmt.Fprintf(&sb, "**Session:** %s\n", t.SessionID)
	}
	if !t.ExportedAt.IsZero() {
		fmt.Fprintf(&sb, "**Exported:** %s\n", t.ExportedAt.Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintf(&sb, "**Messages:** %d\n\n---\n\n", len(t.Messages))

	for i, msg := range t.Messages {
		sb.WriteString("## ")
		sb.WriteString(msg.Role.Label())
		sb.WriteString("\n\n")
		sb.WriteString(msg.Content)
		sb.WriteString("\n")

		if i < len(t.Messages)-1 {
			sb.WriteString("\n---\n\n")
		}
	}

	return sb.String()
}

type jsonTranscript struct {
	SessionID  string           `json:"session_id,omitempty"`
	Endpoint   string           `json:"endpoint,omitempty"`
	ExportedAt *time.Time       `json:"exported_at,omitempty"`
	Messages   []models.Message `json:"messages"`
}

// JSON renders the transcript as indented JSON. Messages keep the wire
// shape sent to the endpoint.
func JSON(t Transcript) ([]byte, error) {
	out := jsonTranscript{
		SessionID: t.SessionID,
		Endpoint:  t.Endpoint,
		Messages:  t.Messages,
	}
	if out.Messages == nil {
		out.Messages = []models.Message{}
	}
	if !t.ExportedAt.IsZero() {
		at := t.ExportedAt
		out.ExportedAt = &at
	}
	return json.MarshalIndent(out, "", "  ")
}

var htmlTemplate = template.Must(template.New("transcript").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Chat transcript</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 48rem; margin: 2rem auto; padding: 0 1rem; }
.message { border-radius: 0.75rem; padding: 0.75rem 1rem; margin: 0.75rem 0; }
.user { background: #e8f0fe; margin-left: 4rem; }
.assistant { background: #f1f3f4; margin-right: 4rem; }
.role { font-weight: 600; font-size: 0.85rem; margin-bottom: 0.25rem; }
pre { background: #202124; color: #e8eaed; padding: 0.75rem; border-radius: 0.5rem; overflow-x: auto; }
code { font-family: ui-monospace, monospace; }
.meta { color: #5f6368; font-size: 0.85rem; }
</style>
</head>
<body>
<h1>Chat transcript</h1>
<p class="meta">{{if .Endpoint}}{{.Endpoint}} · {{end}}{{len .Messages}} messages{{if .ExportedAt}} · {{.ExportedAt}}{{end}}</p>
{{range .Messages}}<div class="message {{.Role}}">
<div class="role">{{.Label}}</div>
<div class="content">{{.Body}}</div>
</div>
{{end}}</body>
</html>
`))

type htmlMessage struct {
	Role  string
	Label string
	Body  template.HTML
}

// HTML renders the transcript as a standalone HTML page. Message bodies go
// through the format package's HTML pipeline, which escapes raw markup.
func HTML(t Transcript) (string, error) {
	data := struct {
		Endpoint   string
		ExportedAt string
		Messages   []htmlMessage
	}{
		Endpoint: t.Endpoint,
		Messages: make([]htmlMessage, len(t.Messages)),
	}
	if !t.ExportedAt.IsZero() {
		data.ExportedAt = t.ExportedAt.Format("2006-01-02 15:04:05")
	}
	for i, msg := range t.Messages {
		data.Messages[i] = htmlMessage{
			Role:  string(msg.Role),
			Label: msg.Role.Label(),
			Body:  template.HTML(format.HTML(msg.Content)),
		}
	}

	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render html: %w", err)
	}
	return buf.String(), nil
}

// Render encodes the transcript in format f
func Render(t Transcript, f Format) ([]byte, error) {
	switch f {
	case FormatMarkdown:
		return []byte(Markdown(t)), nil
	case FormatJSON:
		return JSON(t)
	case FormatHTML:
		out, err := HTML(t)
		return []byte(out), err
	default:
		return nil, fmt.Errorf("unknown export format %q", f)
	}
}

// WriteFile exports the transcript to path. An empty f picks the format
// from the extension. Parent directories are created as needed.
func WriteFile(path string, t Transcript, f Format) error {
	if f == "" {
		f = FormatForPath(path)
	}

	data, err := Render(t, f)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write transcript: %w", err)
	}
	return nil
}
