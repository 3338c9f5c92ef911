package commands

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/diogo/chatline/internal/config"
	"github.com/diogo/chatline/internal/models"
	"github.com/diogo/chatline/internal/render"
	"github.com/diogo/chatline/internal/tui"
)

// fakeFetcher answers every request with reply or err
type fakeFetcher struct {
	reply    string
	partials []string
	err      error

	calls     int
	streaming bool
	messages  []models.Message
}

func (f *fakeFetcher) FetchReply(_ context.Context, messages []models.Message, streaming bool, onPartial func(string)) (string, error) {
	f.calls++
	f.streaming = streaming
	f.messages = messages

	if f.err != nil {
		return "", f.err
	}
	if streaming && onPartial != nil {
		for _, p := range f.partials {
			onPartial(p)
		}
	}
	return f.reply, nil
}

// fakeTUI records the chat screen it was asked to run
type fakeTUI struct {
	session tui.Sender
	opts    tui.Options
	err     error
}

func (f *fakeTUI) RunChat(session tui.Sender, opts tui.Options) error {
	f.session = session
	f.opts = opts
	return f.err
}

// isolate points HOME at a temp dir and clears environment overrides
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(config.EnvEndpoint, "")
	t.Setenv(render.EnvStyle, "basic")
	return home
}

// execute runs the root command with args and returns its output
func execute(t *testing.T, deps *Dependencies, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd(deps)

	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}
