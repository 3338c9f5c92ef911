package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/diogo/chatline/internal/chat"
	"github.com/diogo/chatline/internal/config"
	"github.com/diogo/chatline/internal/render"
	"github.com/diogo/chatline/internal/tui"
)

// NewChatCmd creates the interactive chat command
func NewChatCmd(deps *Dependencies, global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		Long: `Start an interactive chat session.

The chat keeps the conversation so far and sends all of it with every
message. Type 'exit' or 'quit', or press Ctrl+C, to end the session.
Type /help for the available commands.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := global.loadConfig()
			if err != nil {
				return err
			}
			return runChat(deps, cfg, cmd.ErrOrStderr())
		},
	}
}

func runChat(deps *Dependencies, cfg config.Config, stderr io.Writer) error {
	logger, closer := initLogging(cfg, stderr)
	defer closer.Close()

	fetcher, release, err := deps.fetcher(cfg, logger)
	if err != nil {
		return err
	}
	defer release()

	if cfg.TUITheme != "" && !render.SetTUITheme(cfg.TUITheme) {
		logger.Warn("unknown TUI theme, using default", "theme", cfg.TUITheme)
	}
	tui.UpdateTheme()

	session := chat.NewSession(fetcher, chat.WithLogger(logger))
	logger.Info("chat started", "endpoint", chatURL(cfg), "stream", cfg.Stream)

	err = deps.tui().RunChat(session, tui.Options{
		Endpoint:  chatURL(cfg),
		Streaming: cfg.Stream,
		Render:    render.OptionsFromConfig(cfg),
		AutoCopy:  cfg.CopyToClipboard,
	})
	if err != nil {
		return fmt.Errorf("chat failed: %w", err)
	}

	logger.Info("chat ended", "turns", session.Conversation().Len())
	return nil
}
