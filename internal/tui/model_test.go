package tui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/diogo/chatline/internal/chat"
	apierrors "github.com/diogo/chatline/internal/errors"
	"github.com/diogo/chatline/internal/models"
	"github.com/diogo/chatline/internal/render"
)

const testEndpoint = "http://chat.test/api/chat"

// scriptedFetcher answers each request with the next reply or error
type scriptedFetcher struct {
	replies  []string
	errs     []error
	partials [][]string
	calls    int
}

func (f *scriptedFetcher) FetchReply(_ context.Context, _ []models.Message, streaming bool, onPartial func(string)) (string, error) {
	i := f.calls
	f.calls++

	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if streaming && onPartial != nil && i < len(f.partials) {
		for _, p := range f.partials[i] {
			onPartial(p)
		}
	}
	if i < len(f.replies) {
		return f.replies[i], nil
	}
	return "", nil
}

func newTestModel(t *testing.T, fetcher chat.Fetcher, streaming bool) (Model, *chat.Session) {
	t.Helper()
	session := chat.NewSession(fetcher)
	m := NewChatModel(session, Options{
		Endpoint:  testEndpoint,
		Streaming: streaming,
		Render:    render.DefaultOptions().WithStyle(render.StyleBasic),
	})
	m.copyFn = func(string) error { return nil }

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return updated.(Model), session
}

func press(t *testing.T, m Model, key tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(key)
	return updated.(Model), cmd
}

func typeAndSend(t *testing.T, m Model, text string) Model {
	t.Helper()
	m.textarea.SetValue(text)
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	return m
}

// drain feeds every event of the running exchange back into the model
func drain(t *testing.T, m Model) (Model, []string) {
	t.Helper()
	var live []string
	for m.events != nil {
		msg, ok := <-m.events
		if !ok {
			break
		}
		updated, _ := m.Update(msg)
		m = updated.(Model)
		if _, isPartial := msg.(partialMsg); isPartial {
			live = append(live, m.live)
		}
	}
	return m, live
}

func runeKey(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNewChatModel(t *testing.T) {
	m := NewChatModel(chat.NewSession(&scriptedFetcher{}), Options{Endpoint: testEndpoint, Streaming: true})

	if m.ready {
		t.Error("model should not be ready before the first window size")
	}
	if !m.streaming {
		t.Error("streaming should follow the options")
	}
	if m.renderOpts.Width == 0 {
		t.Error("zero render options should be replaced with defaults")
	}
	if m.View() == "" {
		t.Error("View() should render an initializing message")
	}
}

func TestModel_SendNonStreaming(t *testing.T) {
	m, session := newTestModel(t, &scriptedFetcher{replies: []string{"hi there"}}, false)

	m = typeAndSend(t, m, "  hello  ")
	if !m.loading {
		t.Fatal("model should be loading after Enter")
	}
	if m.textarea.Value() != "" {
		t.Error("input should be cleared after sending")
	}
	if len(m.messages) != 1 || m.messages[0].content != "hello" {
		t.Fatalf("messages = %+v", m.messages)
	}

	m, live := drain(t, m)
	if len(live) != 0 {
		t.Errorf("non-streaming exchange produced partials %v", live)
	}
	if m.loading {
		t.Error("loading should end with the reply")
	}
	if len(m.messages) != 2 || m.messages[1].content != "hi there" || m.messages[1].isError {
		t.Fatalf("messages = %+v", m.messages)
	}
	if session.Conversation().Len() != 2 {
		t.Errorf("conversation length = %d, want 2", session.Conversation().Len())
	}
}

func TestModel_SendStreaming(t *testing.T) {
	fetcher := &scriptedFetcher{
		replies:  []string{"Hello"},
		partials: [][]string{{"He", "Hello"}},
	}
	m, session := newTestModel(t, fetcher, true)

	m = typeAndSend(t, m, "hi")
	m, live := drain(t, m)

	if strings.Join(live, ",") != "He,Hello" {
		t.Errorf("live text = %v, want [He Hello]", live)
	}
	if m.live != "" {
		t.Error("live bubble should be cleared once the reply commits")
	}
	if last, _ := session.Conversation().Last(); last.Content != "Hello" {
		t.Errorf("committed reply = %q", last.Content)
	}
}

func TestModel_ExchangeFailureShowsOneApology(t *testing.T) {
	fetcher := &scriptedFetcher{
		errs: []error{apierrors.NewStatusError(500, testEndpoint, "boom")},
	}
	m, session := newTestModel(t, fetcher, false)

	m = typeAndSend(t, m, "hello")
	m, _ = drain(t, m)

	if len(m.messages) != 2 {
		t.Fatalf("messages = %+v, want user plus one error bubble", m.messages)
	}
	bubble := m.messages[1]
	if !bubble.isError || bubble.content != models.ApologyMessage {
		t.Errorf("error bubble = %+v", bubble)
	}
	if session.Conversation().Len() != 1 {
		t.Errorf("conversation length = %d, the apology must not be stored", session.Conversation().Len())
	}

	details := strings.Join(m.errDetail, "\n")
	if !strings.Contains(details, "HTTP Status: 500") || !strings.Contains(details, testEndpoint) {
		t.Errorf("errDetail = %v", m.errDetail)
	}
	if !strings.Contains(m.View(), "HTTP Status: 500") {
		t.Error("View() should show the error details")
	}
	if !m.textarea.Focused() {
		t.Error("input should be re-enabled after a failure")
	}
}

func TestModel_NonExchangeErrorIsNotice(t *testing.T) {
	m, _ := newTestModel(t, &scriptedFetcher{errs: []error{context.Canceled}}, false)

	m = typeAndSend(t, m, "hello")
	m, _ = drain(t, m)

	if len(m.messages) != 1 {
		t.Errorf("messages = %+v, no error bubble expected", m.messages)
	}
	if m.notice != context.Canceled.Error() {
		t.Errorf("notice = %q", m.notice)
	}
}

func TestModel_Retry(t *testing.T) {
	fetcher := &scriptedFetcher{
		errs:    []error{apierrors.NewNetworkError(testEndpoint, errors.New("refused")), nil},
		replies: []string{"", "second time"},
	}
	m, session := newTestModel(t, fetcher, false)

	m = typeAndSend(t, m, "hello")
	m, _ = drain(t, m)

	m = typeAndSend(t, m, "/retry")
	m, _ = drain(t, m)

	if len(m.messages) != 2 || m.messages[1].content != "second time" {
		t.Fatalf("messages = %+v", m.messages)
	}
	if session.Conversation().Len() != 2 {
		t.Errorf("conversation length = %d, want 2", session.Conversation().Len())
	}
	if len(m.errDetail) != 0 {
		t.Error("error details should clear on the next exchange")
	}
}

func TestModel_RetryWithNothingPending(t *testing.T) {
	fetcher := &scriptedFetcher{}
	m, _ := newTestModel(t, fetcher, false)

	m = typeAndSend(t, m, "/retry")
	if m.loading || fetcher.calls != 0 {
		t.Error("/retry without a failed turn must not send")
	}
	if m.notice != "Nothing to retry" {
		t.Errorf("notice = %q", m.notice)
	}
}

func TestModel_InputIgnoredWhileLoading(t *testing.T) {
	m, _ := newTestModel(t, &scriptedFetcher{replies: []string{"ok"}}, false)

	m = typeAndSend(t, m, "first")
	events := m.events

	m, cmd := press(t, m, runeKey("x"))
	if cmd != nil {
		if _, isQuit := cmd().(tea.QuitMsg); isQuit {
			t.Error("a key press should not quit while loading")
		}
	}
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.events != events {
		t.Error("Enter while loading must not start another exchange")
	}
	if len(m.messages) != 1 {
		t.Errorf("messages = %+v", m.messages)
	}
	drain(t, m)
}

func TestModel_ClearConfirmation(t *testing.T) {
	m, session := newTestModel(t, &scriptedFetcher{replies: []string{"ok"}}, false)
	m = typeAndSend(t, m, "hello")
	m, _ = drain(t, m)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlL})
	if !m.confirmingClear {
		t.Fatal("Ctrl+L should ask for confirmation")
	}
	if !strings.Contains(m.View(), "(y/N)") {
		t.Error("View() should show the confirmation prompt")
	}

	m, _ = press(t, m, runeKey("n"))
	if m.confirmingClear || len(m.messages) != 2 || session.Conversation().Len() != 2 {
		t.Error("any key other than y should cancel the clear")
	}

	m = typeAndSend(t, m, "/clear")
	m, _ = press(t, m, runeKey("y"))
	if len(m.messages) != 0 {
		t.Errorf("messages = %+v, want none", m.messages)
	}
	if session.Conversation().Len() != 0 {
		t.Errorf("conversation length = %d, want 0", session.Conversation().Len())
	}
}

func TestModel_ToggleStreaming(t *testing.T) {
	m, _ := newTestModel(t, &scriptedFetcher{}, true)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	if m.streaming {
		t.Error("Ctrl+S should turn streaming off")
	}
	m = typeAndSend(t, m, "/stream")
	if !m.streaming {
		t.Error("/stream should turn streaming back on")
	}
}

func TestModel_QuitWords(t *testing.T) {
	for _, word := range []string{"exit", "quit", "EXIT", "/quit"} {
		t.Run(word, func(t *testing.T) {
			m, _ := newTestModel(t, &scriptedFetcher{}, false)
			m.textarea.SetValue(word)
			_, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
			if cmd == nil {
				t.Fatal("expected a quit command")
			}
			if _, ok := cmd().(tea.QuitMsg); !ok {
				t.Error("expected tea.QuitMsg")
			}
		})
	}
}

func TestModel_Suggestions(t *testing.T) {
	m, _ := newTestModel(t, &scriptedFetcher{replies: []string{"ok"}}, false)
	suggestions := models.Suggestions()

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.textarea.Value() != suggestions[0] {
		t.Errorf("input = %q, want %q", m.textarea.Value(), suggestions[0])
	}
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.textarea.Value() != suggestions[1] {
		t.Errorf("input = %q, want %q", m.textarea.Value(), suggestions[1])
	}

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = drain(t, m)
	if m.cycleSuggestion() {
		t.Error("suggestions only apply to an empty conversation")
	}
}

func TestModel_Copy(t *testing.T) {
	m, _ := newTestModel(t, &scriptedFetcher{replies: []string{"copy me"}}, false)

	var copied string
	m.copyFn = func(s string) error {
		copied = s
		return nil
	}

	m = typeAndSend(t, m, "/copy")
	if m.notice != "No reply to copy yet" {
		t.Errorf("notice = %q", m.notice)
	}

	m = typeAndSend(t, m, "hello")
	m, _ = drain(t, m)
	m = typeAndSend(t, m, "/copy")
	if copied != "copy me" {
		t.Errorf("copied = %q", copied)
	}
}

func TestModel_AutoCopy(t *testing.T) {
	m, _ := newTestModel(t, &scriptedFetcher{replies: []string{"auto"}}, false)
	m.autoCopy = true

	var copied string
	m.copyFn = func(s string) error {
		copied = s
		return nil
	}

	m = typeAndSend(t, m, "hello")
	drain(t, m)
	if copied != "auto" {
		t.Errorf("copied = %q, want auto", copied)
	}
}

func TestModel_Export(t *testing.T) {
	m, _ := newTestModel(t, &scriptedFetcher{replies: []string{"exported reply"}}, false)
	m = typeAndSend(t, m, "hello")
	m, _ = drain(t, m)

	path := filepath.Join(t.TempDir(), "chat.md")
	m = typeAndSend(t, m, "/export "+path)
	if m.notice != "Exported to "+path {
		t.Fatalf("notice = %q", m.notice)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), "exported reply") {
		t.Errorf("export = %s", data)
	}
}

func TestModel_UnknownCommand(t *testing.T) {
	m, _ := newTestModel(t, &scriptedFetcher{}, false)
	m = typeAndSend(t, m, "/bogus")
	if !strings.Contains(m.notice, "/bogus") {
		t.Errorf("notice = %q", m.notice)
	}
}

func TestModel_View(t *testing.T) {
	m, _ := newTestModel(t, &scriptedFetcher{}, true)
	view := m.View()

	for _, want := range []string{"chatline", testEndpoint, "Enter", "Welcome"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}

func TestModel_WindowResize(t *testing.T) {
	m, _ := newTestModel(t, &scriptedFetcher{}, false)

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 60, Height: 12})
	m = updated.(Model)
	if m.viewport.Width != 56 {
		t.Errorf("viewport width = %d, want 56", m.viewport.Width)
	}
	if m.viewport.Height != 5 {
		t.Errorf("viewport height = %d, want the minimum 5", m.viewport.Height)
	}
}

func TestErrorDetails(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want []string
	}{
		{"nil", nil, nil},
		{"plain", errors.New("x"), nil},
		{
			"status",
			apierrors.NewStatusError(502, testEndpoint, "bad gateway"),
			[]string{"HTTP Status: 502", "Endpoint: " + testEndpoint, "Response: bad gateway"},
		},
		{
			"stream",
			apierrors.NewStreamError("He", errors.New("reset")),
			[]string{"Cause: stream interrupted"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ErrorDetails(tt.err)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("ErrorDetails() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormatError(t *testing.T) {
	if FormatError(nil) != "" {
		t.Error("FormatError(nil) should be empty")
	}
	out := FormatError(apierrors.NewStatusError(500, testEndpoint, ""))
	if !strings.Contains(out, models.ApologyMessage) || !strings.Contains(out, "HTTP Status: 500") {
		t.Errorf("FormatError() = %q", out)
	}
}
