package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/chatline/internal/conversation"
	apierrors "github.com/diogo/chatline/internal/errors"
	"github.com/diogo/chatline/internal/models"
	"github.com/diogo/chatline/internal/render"
	"github.com/diogo/chatline/internal/transcript"
)

// Sender runs exchanges for the chat screen. chat.Session implements it.
type Sender interface {
	ID() string
	Send(ctx context.Context, text string, streaming bool, onPartial func(string)) (string, error)
	Retry(ctx context.Context, streaming bool, onPartial func(string)) (string, error)
	Reset() error
	Conversation() *conversation.Conversation
}

// Options configures the chat screen
type Options struct {
	Endpoint  string
	Streaming bool
	Render    render.Options
	// AutoCopy copies every completed reply to the clipboard.
	AutoCopy bool
}

// Message types
type (
	partialMsg struct{ text string }
	replyMsg   struct{ text string }
	errMsg     struct{ err error }
)

// animationTickMsg is sent to update the loading animation
type animationTickMsg time.Time

// chatMessage is one visible bubble. Error bubbles exist only on screen.
type chatMessage struct {
	role    models.Role
	content string
	isError bool
}

// Model represents the chat screen state
type Model struct {
	session    Sender
	endpoint   string
	streaming  bool
	renderOpts render.Options
	autoCopy   bool
	copyFn     func(string) error

	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	messages []chatMessage
	live     string
	events   chan tea.Msg

	loading         bool
	ready           bool
	confirmingClear bool
	notice          string
	errDetail       []string
	animationFrame  int
	suggestionIdx   int

	width  int
	height int
}

// NewChatModel creates the chat screen for a session
func NewChatModel(session Sender, opts Options) Model {
	ta := textarea.New()
	ta.Placeholder = "Type your message... (Enter to send, Alt+Enter for newline)"
	ta.Focus()
	ta.CharLimit = 4000
	ta.SetWidth(60)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false
	ta.KeyMap.InsertNewline.SetKeys("alt+enter")

	// Style the textarea
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle()
	ta.BlurredStyle.Base = lipgloss.NewStyle()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(colorAccent)

	if opts.Render.Width == 0 {
		opts.Render = render.DefaultOptions()
	}

	return Model{
		session:    session,
		endpoint:   opts.Endpoint,
		streaming:  opts.Streaming,
		renderOpts: opts.Render,
		autoCopy:   opts.AutoCopy,
		copyFn:     clipboard.WriteAll,
		textarea:   ta,
		spinner:    s,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
	)
}

// animationTick returns a command that sends animation tick messages
func animationTick() tea.Cmd {
	return tea.Tick(time.Millisecond*80, func(t time.Time) tea.Msg {
		return animationTickMsg(t)
	})
}

// waitForEvent delivers the next event of a running exchange
func waitForEvent(events chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-events
		if !ok {
			return nil
		}
		return msg
	}
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		// Layout: header, messages, input, status and notice lines
		headerHeight := 4
		inputHeight := 6
		statusHeight := 2
		padding := 2

		vpHeight := m.height - headerHeight - inputHeight - statusHeight - padding
		if vpHeight < 5 {
			vpHeight = 5
		}
		contentWidth := m.width - 4

		if !m.ready {
			m.viewport = viewport.New(contentWidth, vpHeight)
			m.ready = true
		} else {
			m.viewport.Width = contentWidth
			m.viewport.Height = vpHeight
		}
		m.textarea.SetWidth(contentWidth - 4)
		m.updateViewport()

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}

		if m.confirmingClear {
			return m.answerClear(msg), nil
		}

		if m.loading {
			// Only scrolling while an exchange runs
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

		switch msg.String() {
		case "esc":
			return m, tea.Quit
		case "ctrl+s":
			m.toggleStreaming()
			return m, nil
		case "ctrl+l":
			m.askClear()
			return m, nil
		case "tab":
			if m.cycleSuggestion() {
				return m, nil
			}
		case "enter":
			return m.submit()
		}

	case partialMsg:
		m.live = msg.text
		m.updateViewport()
		return m, waitForEvent(m.events)

	case replyMsg:
		m.finishExchange()
		m.messages = append(m.messages, chatMessage{role: models.RoleAssistant, content: msg.text})
		if m.autoCopy {
			m.copyReply(msg.text)
		}
		m.updateViewport()
		return m, textarea.Blink

	case errMsg:
		m.finishExchange()
		if apierrors.IsExchangeFailure(msg.err) {
			m.messages = append(m.messages, chatMessage{
				role:    models.RoleAssistant,
				content: models.ApologyMessage,
				isError: true,
			})
			m.errDetail = ErrorDetails(msg.err)
		} else {
			m.notice = msg.err.Error()
		}
		m.updateViewport()
		return m, textarea.Blink

	case animationTickMsg:
		if m.loading {
			m.animationFrame++
			return m, animationTick()
		}
		return m, nil

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if !m.loading {
		m.textarea, cmd = m.textarea.Update(msg)
		cmds = append(cmds, cmd)
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// submit handles Enter: a quit word, a slash command or a prompt
func (m Model) submit() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.textarea.Value())
	if input == "" {
		return m, nil
	}

	switch strings.ToLower(input) {
	case "exit", "quit", "/exit", "/quit":
		return m, tea.Quit
	}

	if strings.HasPrefix(input, "/") {
		m.textarea.Reset()
		return m.runCommand(input)
	}

	m.textarea.Reset()
	m.messages = append(m.messages, chatMessage{role: models.RoleUser, content: input})
	return m.startExchange(func(ctx context.Context, onPartial func(string)) (string, error) {
		return m.session.Send(ctx, input, m.streaming, onPartial)
	})
}

// runCommand executes a slash command typed into the input
func (m Model) runCommand(input string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(input)
	name, args := strings.ToLower(fields[0]), fields[1:]

	switch name {
	case "/retry":
		if !m.session.Conversation().PendingUser() {
			m.notice = "Nothing to retry"
			return m, nil
		}
		// The failed attempt's bubble goes away; its user turn stays
		if n := len(m.messages); n > 0 && m.messages[n-1].isError {
			m.messages = m.messages[:n-1]
		}
		return m.startExchange(func(ctx context.Context, onPartial func(string)) (string, error) {
			return m.session.Retry(ctx, m.streaming, onPartial)
		})

	case "/clear":
		m.askClear()

	case "/stream":
		m.toggleStreaming()

	case "/copy":
		last, ok := m.session.Conversation().LastAssistant()
		if !ok {
			m.notice = "No reply to copy yet"
			break
		}
		m.copyReply(last.Content)

	case "/export":
		path := transcript.DefaultFileName(time.Now(), transcript.FormatMarkdown)
		if len(args) > 0 {
			path = args[0]
		}
		m.notice = m.export(path)

	case "/help":
		m.notice = "Commands: /retry  /clear  /stream  /copy  /export [file]  /exit"

	default:
		m.notice = fmt.Sprintf("Unknown command %s (try /help)", name)
	}

	m.updateViewport()
	return m, nil
}

// startExchange runs fn in the background and streams its events back
// through a channel that lives as long as the exchange.
func (m Model) startExchange(fn func(ctx context.Context, onPartial func(string)) (string, error)) (tea.Model, tea.Cmd) {
	events := make(chan tea.Msg, 1)
	streaming := m.streaming

	go func() {
		defer close(events)

		var onPartial func(string)
		if streaming {
			onPartial = func(text string) { events <- partialMsg{text: text} }
		}

		reply, err := fn(context.Background(), onPartial)
		if err != nil {
			events <- errMsg{err: err}
			return
		}
		events <- replyMsg{text: reply}
	}()

	m.events = events
	m.loading = true
	m.live = ""
	m.notice = ""
	m.errDetail = nil
	m.animationFrame = 0
	m.textarea.Blur()
	m.updateViewport()

	return m, tea.Batch(waitForEvent(events), animationTick())
}

func (m *Model) finishExchange() {
	m.loading = false
	m.live = ""
	m.events = nil
	m.textarea.Focus()
}

func (m *Model) toggleStreaming() {
	m.streaming = !m.streaming
	if m.streaming {
		m.notice = "Streaming on"
	} else {
		m.notice = "Streaming off"
	}
}

func (m *Model) askClear() {
	m.confirmingClear = true
	m.notice = ""
}

// answerClear resolves the clear prompt. Only y confirms.
func (m Model) answerClear(key tea.KeyMsg) Model {
	m.confirmingClear = false

	if s := key.String(); s != "y" && s != "Y" {
		m.notice = "Clear cancelled"
		return m
	}

	if err := m.session.Reset(); err != nil {
		m.notice = err.Error()
		return m
	}
	m.messages = nil
	m.errDetail = nil
	m.suggestionIdx = 0
	m.notice = "Conversation cleared"
	m.updateViewport()
	return m
}

// cycleSuggestion fills the input with the next starter prompt. It only
// applies before the first message.
func (m *Model) cycleSuggestion() bool {
	if m.session.Conversation().Len() > 0 || len(m.messages) > 0 {
		return false
	}

	suggestions := models.Suggestions()
	m.textarea.SetValue(suggestions[m.suggestionIdx%len(suggestions)])
	m.suggestionIdx++
	return true
}

func (m *Model) copyReply(text string) {
	if err := m.copyFn(text); err != nil {
		m.notice = "Copy failed: " + err.Error()
		return
	}
	m.notice = "Reply copied to clipboard"
}

func (m Model) export(path string) string {
	t := transcript.Transcript{
		SessionID:  m.session.ID(),
		Endpoint:   m.endpoint,
		ExportedAt: time.Now(),
		Messages:   m.session.Conversation().Snapshot(),
	}
	if err := transcript.WriteFile(path, t, ""); err != nil {
		return "Export failed: " + err.Error()
	}
	return "Exported to " + path
}

// View renders the model
func (m Model) View() string {
	if !m.ready {
		return loadingStyle.Render("  Initializing...")
	}

	var sections []string
	contentWidth := m.width - 4

	// Header
	mode := "no stream"
	if m.streaming {
		mode = "stream"
	}
	headerContent := lipgloss.JoinHorizontal(
		lipgloss.Center,
		titleStyle.Render("✦ chatline"),
		hintStyle.Render("  •  "),
		subtitleStyle.Render(m.endpoint),
		hintStyle.Render("  •  "),
		subtitleStyle.Render(mode),
	)
	sections = append(sections, headerStyle.Width(contentWidth).Render(headerContent))

	// Messages
	var messagesContent string
	if len(m.messages) == 0 && !m.loading {
		messagesContent = m.renderWelcome()
	} else {
		messagesContent = m.viewport.View()
	}
	sections = append(sections, messagesAreaStyle.
		Width(contentWidth).
		Height(m.viewport.Height).
		Render(messagesContent))

	// Input
	var inputContent string
	if m.loading {
		inputContent = m.renderLoadingAnimation()
	} else {
		inputContent = lipgloss.JoinVertical(
			lipgloss.Left,
			inputLabelStyle.Render("You"),
			m.textarea.View(),
		)
	}
	sections = append(sections, inputPanelStyle.Width(contentWidth).Render(inputContent))

	sections = append(sections, m.renderStatusBar(contentWidth))
	if line := m.renderNotice(); line != "" {
		sections = append(sections, line)
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderWelcome renders the welcome screen when no messages exist
func (m Model) renderWelcome() string {
	width := m.viewport.Width - 4
	height := m.viewport.Height

	icon := welcomeIconStyle.Width(width).Render("✦")
	title := welcomeTitleStyle.Width(width).Render("Welcome to chatline")
	subtitle := welcomeSubtitleStyle.Width(width).Render("Type a message below, or press Tab for a suggestion")

	var chips []string
	active := (m.suggestionIdx - 1) % len(models.Suggestions())
	for i, s := range models.Suggestions() {
		if m.suggestionIdx > 0 && i == active {
			chips = append(chips, suggestionActiveStyle.Render(s))
		} else {
			chips = append(chips, suggestionStyle.Render(s))
		}
	}
	suggestions := lipgloss.NewStyle().Width(width).Align(lipgloss.Center).
		Render(lipgloss.JoinVertical(lipgloss.Center, chips...))

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		"",
		icon,
		"",
		title,
		"",
		subtitle,
		"",
		suggestions,
	)

	// Center vertically
	topPadding := (height - lipgloss.Height(content)) / 2
	if topPadding < 0 {
		topPadding = 0
	}

	return strings.Repeat("\n", topPadding) + content
}

// renderLoadingAnimation renders a colorful animated loading indicator
func (m Model) renderLoadingAnimation() string {
	chars := []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}
	barChars := []string{"█", "█", "█", "█", "█", "█", "█", "█", "▓", "▒", "░"}

	frame := m.animationFrame

	spinIdx := frame % len(chars)
	spinColor := gradientColors[frame%len(gradientColors)]
	spin := lipgloss.NewStyle().Foreground(spinColor).Bold(true).Render(chars[spinIdx])

	barWidth := 20
	var bar strings.Builder
	for i := 0; i < barWidth; i++ {
		colorIdx := (i + frame) % len(gradientColors)
		charIdx := (i + frame/2) % len(barChars)

		style := lipgloss.NewStyle().Foreground(gradientColors[colorIdx])
		bar.WriteString(style.Render(barChars[charIdx]))
	}

	dots := ""
	numDots := (frame / 3) % 4
	for i := 0; i < numDots; i++ {
		dotColor := gradientColors[(frame+i)%len(gradientColors)]
		dots += lipgloss.NewStyle().Foreground(dotColor).Render("●")
	}
	for i := numDots; i < 3; i++ {
		dots += lipgloss.NewStyle().Foreground(colorTextMute).Render("○")
	}

	text := lipgloss.NewStyle().Foreground(colorText).Render(" Waiting for a reply ")

	return fmt.Sprintf("%s %s %s %s", spin, bar.String(), text, dots)
}

// renderStatusBar renders the bottom status bar with shortcuts
func (m Model) renderStatusBar(width int) string {
	shortcuts := []struct {
		key  string
		desc string
	}{
		{"Enter", "Send"},
		{"Alt+Enter", "Newline"},
		{"Ctrl+S", "Stream"},
		{"Ctrl+L", "Clear"},
		{"Esc", "Quit"},
	}

	var items []string
	for _, s := range shortcuts {
		item := lipgloss.JoinHorizontal(
			lipgloss.Center,
			statusKeyStyle.Render(s.key),
			statusDescStyle.Render(" "+s.desc),
		)
		items = append(items, item)
	}

	bar := lipgloss.JoinHorizontal(lipgloss.Center, strings.Join(items, "  │  "))
	return statusBarStyle.Width(width).Align(lipgloss.Center).Render(bar)
}

// renderNotice shows the clear prompt, error details or the last notice
func (m Model) renderNotice() string {
	switch {
	case m.confirmingClear:
		return confirmStyle.Render("  Clear the conversation? (y/N)")
	case len(m.errDetail) > 0:
		lines := make([]string, 0, len(m.errDetail)+1)
		if m.notice != "" {
			lines = append(lines, noticeStyle.Render("  "+m.notice))
		}
		for _, d := range m.errDetail {
			lines = append(lines, detailStyle.Render(d))
		}
		return strings.Join(lines, "\n")
	case m.notice != "":
		return noticeStyle.Render("  " + m.notice)
	}
	return ""
}

// updateViewport refreshes the viewport content with styled messages
func (m *Model) updateViewport() {
	if !m.ready {
		return
	}

	var content strings.Builder
	bubbleWidth := m.viewport.Width - 6

	for i, msg := range m.messages {
		if i > 0 {
			content.WriteString("\n")
		}
		content.WriteString(m.renderBubble(msg, bubbleWidth))
		content.WriteString("\n")
	}

	if m.loading && m.live != "" {
		if len(m.messages) > 0 {
			content.WriteString("\n")
		}
		label := assistantLabelStyle.Render("✦ Assistant ") + m.spinner.View()
		content.WriteString(label + "\n" + assistantBubbleStyle.Width(bubbleWidth).Render(m.markdown(m.live, bubbleWidth)))
		content.WriteString("\n")
	}

	m.viewport.SetContent(content.String())
	m.viewport.GotoBottom()
}

func (m Model) renderBubble(msg chatMessage, width int) string {
	switch {
	case msg.isError:
		label := errorLabelStyle.Render("✗ Error")
		return label + "\n" + errorBubbleStyle.Width(width).Render(msg.content)
	case msg.role == models.RoleUser:
		label := userLabelStyle.Render("⬤ You")
		return label + "\n" + userBubbleStyle.Width(width).Render(msg.content)
	default:
		label := assistantLabelStyle.Render("✦ Assistant")
		return label + "\n" + assistantBubbleStyle.Width(width).Render(m.markdown(msg.content, width))
	}
}

func (m Model) markdown(content string, width int) string {
	rendered := render.Fallback(content, m.renderOpts.WithWidth(width-4))
	return strings.TrimRight(rendered, "\n")
}

// RunChat starts the interactive chat screen
func RunChat(session Sender, opts Options) error {
	p := tea.NewProgram(
		NewChatModel(session, opts),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	_, err := p.Run()
	return err
}
