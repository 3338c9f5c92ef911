package commands

import (
	"fmt"
	"log/slog"

	"github.com/diogo/chatline/internal/api"
	"github.com/diogo/chatline/internal/chat"
	"github.com/diogo/chatline/internal/config"
	"github.com/diogo/chatline/internal/tui"
)

// TUIInterface defines the methods required from the TUI package.
type TUIInterface interface {
	RunChat(session tui.Sender, opts tui.Options) error
}

// Dependencies holds the external dependencies for the commands.
// This allows for dependency injection and easier testing.
type Dependencies struct {
	// Fetcher answers chat requests. When nil, an HTTP client is built
	// from the configuration.
	Fetcher chat.Fetcher

	// TUI is the terminal user interface.
	TUI TUIInterface
}

// DefaultTUI is the production implementation of TUIInterface.
type DefaultTUI struct{}

func (d *DefaultTUI) RunChat(session tui.Sender, opts tui.Options) error {
	return tui.RunChat(session, opts)
}

// NewDependencies creates a new Dependencies struct with default implementations.
func NewDependencies() *Dependencies {
	return &Dependencies{
		TUI: &DefaultTUI{},
	}
}

// fetcher returns the injected fetcher, or a client built from cfg. The
// returned func releases the client's connections.
func (d *Dependencies) fetcher(cfg config.Config, logger *slog.Logger) (chat.Fetcher, func(), error) {
	if d != nil && d.Fetcher != nil {
		return d.Fetcher, func() {}, nil
	}

	clientOpts := []api.ClientOption{
		api.WithBaseURL(cfg.Endpoint),
		api.WithTimeout(cfg.TimeoutSeconds),
		api.WithClientProfile(cfg.ClientProfile),
		api.WithLogger(logger),
	}
	if cfg.Proxy != "" {
		clientOpts = append(clientOpts, api.WithProxy(cfg.Proxy))
	}

	client, err := api.NewClient(clientOpts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create client: %w", err)
	}
	return client, client.Close, nil
}

func (d *Dependencies) tui() TUIInterface {
	if d == nil || d.TUI == nil {
		return &DefaultTUI{}
	}
	return d.TUI
}
