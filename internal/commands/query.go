package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/diogo/chatline/internal/chat"
	"github.com/diogo/chatline/internal/config"
	apierrors "github.com/diogo/chatline/internal/errors"
	"github.com/diogo/chatline/internal/logging"
	"github.com/diogo/chatline/internal/models"
	"github.com/diogo/chatline/internal/render"
	"github.com/diogo/chatline/internal/transcript"
)

// Gradient colors for animation
var gradientColors = []lipgloss.Color{
	lipgloss.Color("#ff6b6b"), // Red
	lipgloss.Color("#feca57"), // Yellow
	lipgloss.Color("#48dbfb"), // Cyan
	lipgloss.Color("#ff9ff3"), // Pink
	lipgloss.Color("#54a0ff"), // Blue
	lipgloss.Color("#5f27cd"), // Purple
	lipgloss.Color("#00d2d3"), // Teal
	lipgloss.Color("#1dd1a1"), // Green
}

var (
	colorText     = lipgloss.Color("#c0caf5")
	colorTextDim  = lipgloss.Color("#565f89")
	colorTextMute = lipgloss.Color("#3b4261")
	colorSuccess  = lipgloss.Color("#9ece6a")
	colorPrimary  = lipgloss.Color("#7aa2f7")
	colorError    = lipgloss.Color("#f7768e")
)

// Styles matching the chat TUI
var (
	assistantLabelStyle = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	assistantBubbleStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(colorPrimary).
				Foreground(colorText).
				Padding(0, 1).
				MarginTop(1).
				MarginBottom(1)
)

// queryOptions holds the flags of a one-shot query
type queryOptions struct {
	output    string
	file      string
	raw       bool
	streaming bool
}

// spinner handles the animated loading indicator
type spinner struct {
	out     io.Writer
	message string
	stop    chan struct{}
	done    chan struct{}
	mu      sync.Mutex
	frame   int
	stopped bool // Flag to prevent double-close
}

// newSpinner creates a new animated spinner writing to out
func newSpinner(out io.Writer, message string) *spinner {
	return &spinner{
		out:     out,
		message: message,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// start begins the animation
func (s *spinner) start() {
	go func() {
		defer close(s.done)

		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		// Hide cursor
		fmt.Fprint(s.out, "\033[?25l")

		for {
			select {
			case <-s.stop:
				// Clear line and show cursor
				fmt.Fprint(s.out, "\r\033[K\033[?25h")
				return
			case <-ticker.C:
				s.mu.Lock()
				s.render()
				s.frame++
				s.mu.Unlock()
			}
		}
	}()
}

// setMessage replaces the text next to the animation
func (s *spinner) setMessage(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}

// render draws the current animation frame
func (s *spinner) render() {
	chars := []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}
	barChars := []string{"█", "█", "█", "█", "█", "█", "▓", "▒", "░"}

	spinIdx := s.frame % len(chars)
	spinColor := gradientColors[s.frame%len(gradientColors)]
	spinnerChar := lipgloss.NewStyle().Foreground(spinColor).Bold(true).Render(chars[spinIdx])

	barWidth := 16
	var bar strings.Builder
	for i := 0; i < barWidth; i++ {
		colorIdx := (i + s.frame) % len(gradientColors)
		charIdx := (i + s.frame/2) % len(barChars)
		style := lipgloss.NewStyle().Foreground(gradientColors[colorIdx])
		bar.WriteString(style.Render(barChars[charIdx]))
	}

	var dots strings.Builder
	numDots := (s.frame / 3) % 4
	for i := 0; i < 3; i++ {
		if i < numDots {
			dotColor := gradientColors[(s.frame+i)%len(gradientColors)]
			dots.WriteString(lipgloss.NewStyle().Foreground(dotColor).Render("●"))
		} else {
			dots.WriteString(lipgloss.NewStyle().Foreground(colorTextMute).Render("○"))
		}
	}

	msg := lipgloss.NewStyle().Foreground(colorText).Render(s.message)

	fmt.Fprintf(s.out, "\r\033[K%s %s %s %s", spinnerChar, bar.String(), msg, dots.String())
}

// stopOnce safely closes the stop channel only once
func (s *spinner) stopOnce() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stopped {
		close(s.stop)
		s.stopped = true
	}
}

// stopWithSuccess stops the spinner and shows success message
func (s *spinner) stopWithSuccess(message string) {
	s.stopOnce()
	<-s.done

	checkmark := lipgloss.NewStyle().Foreground(colorSuccess).Bold(true).Render("✓")
	msg := lipgloss.NewStyle().Foreground(colorSuccess).Render(message)
	fmt.Fprintf(s.out, "%s %s\n", checkmark, msg)
}

// stopWithError stops the spinner and shows error
func (s *spinner) stopWithError() {
	s.stopOnce()
	<-s.done
}

// runQuery sends a single prompt and outputs the reply. In raw mode only
// the reply text is printed; when streaming, deltas are printed as they
// arrive.
func runQuery(ctx context.Context, deps *Dependencies, cfg config.Config, prompt string, opts queryOptions, stdout, stderr io.Writer) error {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return apierrors.ErrEmptyPrompt
	}
	if ctx == nil {
		ctx = context.Background()
	}

	logger, closer := initLogging(cfg, stderr)
	defer closer.Close()

	fetcher, release, err := deps.fetcher(cfg, logger)
	if err != nil {
		return err
	}
	defer release()

	session := chat.NewSession(fetcher, chat.WithLogger(logger))

	if cfg.Verbose && !opts.raw {
		fmt.Fprintf(stderr, "[verbose] Endpoint: %s (stream=%t)\n", chatURL(cfg), opts.streaming)
	}

	// Raw streaming prints each delta unless the reply goes to a file
	printDeltas := opts.raw && opts.streaming && opts.output == ""
	printed := 0

	var spin *spinner
	if !opts.raw {
		spin = newSpinner(stderr, "Waiting for a reply")
		spin.start()
	}

	var onPartial func(string)
	if opts.streaming {
		onPartial = func(text string) {
			switch {
			case printDeltas:
				fmt.Fprint(stdout, text[printed:])
				printed = len(text)
			case spin != nil:
				spin.setMessage(fmt.Sprintf("Receiving (%d chars)", len(text)))
			}
		}
	}

	startTime := time.Now()
	reply, err := session.Send(ctx, prompt, opts.streaming, onPartial)
	requestDuration := time.Since(startTime)

	if err != nil {
		if spin != nil {
			spin.stopWithError()
		}
		if printed > 0 {
			fmt.Fprintln(stdout)
		}
		fmt.Fprintln(stderr, formatErrorMessage(err))
		return err
	}
	if spin != nil {
		spin.stopWithSuccess("Done")
	}

	if cfg.Verbose && !opts.raw {
		fmt.Fprintf(stderr, "[verbose] Request took %s\n", requestDuration.Round(time.Millisecond))
	}

	if opts.output != "" {
		t := transcript.Transcript{
			SessionID:  session.ID(),
			Endpoint:   chatURL(cfg),
			ExportedAt: time.Now(),
			Messages:   session.Conversation().Snapshot(),
		}
		if err := writeOutput(opts.output, reply, t); err != nil {
			return err
		}
		if !opts.raw {
			successMsg := lipgloss.NewStyle().Foreground(colorSuccess).Render(
				fmt.Sprintf("✓ Response saved to %s", opts.output),
			)
			fmt.Fprintln(stderr, successMsg)
		}
		return nil
	}

	// Raw output mode: output only the raw text
	if opts.raw {
		fmt.Fprint(stdout, reply[printed:])
		if printDeltas {
			fmt.Fprintln(stdout)
		}
		return nil
	}

	// Decorated output mode
	fmt.Fprintln(stderr)

	if cfg.CopyToClipboard {
		if err := clipboard.WriteAll(reply); err != nil {
			warnMsg := lipgloss.NewStyle().Foreground(colorError).Render(
				fmt.Sprintf("⚠ Failed to copy to clipboard: %v", err),
			)
			fmt.Fprintln(stderr, warnMsg)
		} else {
			clipMsg := lipgloss.NewStyle().Foreground(colorSuccess).Render("✓ Copied to clipboard")
			fmt.Fprintln(stderr, clipMsg)
		}
	}

	bubbleWidth := getTerminalWidth() - 4
	if bubbleWidth < 40 {
		bubbleWidth = 40
	}
	if bubbleWidth > 120 {
		bubbleWidth = 120
	}
	contentWidth := bubbleWidth - 4

	fmt.Fprintln(stdout, assistantLabelStyle.Render("✦ Assistant"))

	rendered := render.Fallback(reply, render.OptionsFromConfig(cfg).WithWidth(contentWidth))
	rendered = strings.TrimRight(rendered, "\n")

	fmt.Fprintln(stdout, assistantBubbleStyle.Width(bubbleWidth).Render(rendered))
	return nil
}

// writeOutput saves the reply to path. JSON and HTML paths get the whole
// exchange as a transcript; any other path gets the reply text.
func writeOutput(path, reply string, t transcript.Transcript) error {
	switch transcript.FormatForPath(path) {
	case transcript.FormatJSON, transcript.FormatHTML:
		if err := transcript.WriteFile(path, t, ""); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		return nil
	}

	if err := os.WriteFile(path, []byte(reply), 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

// getTerminalWidth returns the terminal width or a default value
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80 // default width
	}
	return width
}

// formatErrorMessage renders the apology and the structured details of a
// failed exchange. Other errors are shown as they are.
func formatErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	errorStyle := lipgloss.NewStyle().Foreground(colorError)
	dimStyle := lipgloss.NewStyle().Foreground(colorTextDim)

	if !apierrors.IsExchangeFailure(err) {
		return errorStyle.Render(fmt.Sprintf("✗ %v", err))
	}

	var sb strings.Builder
	sb.WriteString(errorStyle.Render("✗ " + models.ApologyMessage))

	if status := apierrors.GetHTTPStatus(err); status > 0 {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n  HTTP Status: %d", status)))
	}

	if endpoint := apierrors.GetEndpoint(err); endpoint != "" {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n  Endpoint: %s", endpoint)))
	}

	// Show response body if available
	if body := apierrors.GetResponseBody(err); body != "" {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n\n  %s", strings.ReplaceAll(body, "\n", "\n  "))))
	} else {
		// Provide helpful hints based on error type only if no body
		switch {
		case apierrors.IsNetworkError(err):
			sb.WriteString(dimStyle.Render("\n  Hint: Check that the chat server is running and reachable"))
		case apierrors.IsStreamError(err):
			sb.WriteString(dimStyle.Render("\n  Hint: The stream broke off before it finished. Try again or use --no-stream"))
		case apierrors.IsParseError(err):
			sb.WriteString(dimStyle.Render("\n  Hint: The server did not answer with {\"response\": ...}"))
		}
	}

	return sb.String()
}

// initLogging sets up logging. When the log file cannot be opened, logs are
// discarded and verbose mode says so on stderr.
func initLogging(cfg config.Config, stderr io.Writer) (*slog.Logger, io.Closer) {
	logger, closer, err := logging.Init(cfg)
	if err != nil && cfg.Verbose {
		fmt.Fprintf(stderr, "[verbose] Logging disabled: %v\n", err)
	}
	return logger, closer
}
