package commands

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/diogo/chatline/internal/config"
	"github.com/diogo/chatline/internal/render"
)

func TestNewChatCmd(t *testing.T) {
	cmd := NewChatCmd(nil, &globalOptions{})

	if cmd.Use != "chat" {
		t.Errorf("expected Use 'chat', got '%s'", cmd.Use)
	}
	if cmd.Short == "" || cmd.Long == "" {
		t.Error("descriptions should not be empty")
	}
	if cmd.RunE == nil {
		t.Error("RunE should not be nil")
	}
}

func TestChatCommand_RunsTUI(t *testing.T) {
	isolate(t)
	screen := &fakeTUI{}
	deps := &Dependencies{Fetcher: &fakeFetcher{}, TUI: screen}

	if _, _, err := execute(t, deps, "", "chat", "--endpoint", "http://chat.test:9000/"); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if screen.session == nil {
		t.Fatal("the chat screen was not started")
	}
	if screen.session.ID() == "" {
		t.Error("session should have an ID")
	}
	if screen.opts.Endpoint != "http://chat.test:9000/api/chat" {
		t.Errorf("Endpoint = %s", screen.opts.Endpoint)
	}
	if !screen.opts.Streaming {
		t.Error("streaming should default to on")
	}
	if screen.opts.Render.Style != render.StyleBasic {
		t.Errorf("Render.Style = %s, want the GLAMOUR_STYLE override", screen.opts.Render.Style)
	}
}

func TestChatCommand_UsesConfig(t *testing.T) {
	isolate(t)

	cfg := config.DefaultConfig()
	cfg.Stream = false
	cfg.CopyToClipboard = true
	if err := config.SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig() error = %v", err)
	}

	screen := &fakeTUI{}
	if _, _, err := execute(t, &Dependencies{Fetcher: &fakeFetcher{}, TUI: screen}, "", "chat"); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if screen.opts.Streaming {
		t.Error("streaming should follow the config")
	}
	if !screen.opts.AutoCopy {
		t.Error("AutoCopy should follow copy_to_clipboard")
	}
	if screen.opts.Endpoint != "http://localhost:8000/api/chat" {
		t.Errorf("Endpoint = %s", screen.opts.Endpoint)
	}
}

func TestChatCommand_TUIError(t *testing.T) {
	isolate(t)
	cause := errors.New("no terminal")
	screen := &fakeTUI{err: cause}

	_, _, err := execute(t, &Dependencies{Fetcher: &fakeFetcher{}, TUI: screen}, "", "chat")
	if !errors.Is(err, cause) {
		t.Errorf("error = %v, want it to wrap the TUI failure", err)
	}
}

func TestChatCommand_ReportsLoggingFailure(t *testing.T) {
	home := isolate(t)

	blocker := filepath.Join(home, "not-a-dir")
	if err := os.WriteFile(blocker, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	cfg := config.DefaultConfig()
	cfg.Verbose = true
	cfg.LogFile = filepath.Join(blocker, "logs", "chatline.log")
	if err := config.SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig() error = %v", err)
	}

	screen := &fakeTUI{}
	_, stderr, err := execute(t, &Dependencies{Fetcher: &fakeFetcher{}, TUI: screen}, "", "chat")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !strings.Contains(stderr, "Logging disabled") {
		t.Errorf("stderr = %q, want the logging failure reported", stderr)
	}
	if screen.session == nil {
		t.Error("the chat screen should still start with logging disabled")
	}
}

func TestChatCommand_RejectsArgs(t *testing.T) {
	isolate(t)
	screen := &fakeTUI{}

	if _, _, err := execute(t, &Dependencies{Fetcher: &fakeFetcher{}, TUI: screen}, "", "chat", "extra"); err == nil {
		t.Error("chat takes no arguments")
	}
	if screen.session != nil {
		t.Error("the chat screen should not start")
	}
}

func TestDependencies_BuildsClient(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Endpoint = "http://chat.test:1"

	var deps *Dependencies
	fetcher, release, err := deps.fetcher(cfg, nil)
	if err != nil {
		t.Fatalf("fetcher() error = %v", err)
	}
	defer release()
	if fetcher == nil {
		t.Error("a client should be built when none is injected")
	}

	if _, ok := deps.tui().(*DefaultTUI); !ok {
		t.Error("nil dependencies should use the default TUI")
	}
}
