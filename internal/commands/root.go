// Package commands provides CLI commands for chatline.
package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/diogo/chatline/internal/config"
	apierrors "github.com/diogo/chatline/internal/errors"
	"github.com/diogo/chatline/internal/models"
)

var (
	// Version info (set at build time)
	Version   = "0.1.0"
	BuildTime = "unknown"
)

// globalOptions holds flags shared by every command
type globalOptions struct {
	endpoint string
}

// loadConfig reads the config file and applies environment overrides and
// the --endpoint flag, in that order.
func (g *globalOptions) loadConfig() (config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return cfg, err
	}
	config.ApplyEnv(&cfg)

	if g != nil && g.endpoint != "" {
		cfg.Endpoint = g.endpoint
	}
	if err := config.ValidateEndpoint(cfg.Endpoint); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// chatURL is the full URL exchanges are posted to
func chatURL(cfg config.Config) string {
	return strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/") + models.EndpointChat
}

// NewRootCmd creates the base command
func NewRootCmd(deps *Dependencies) *cobra.Command {
	global := &globalOptions{}
	opts := &queryOptions{}

	cmd := &cobra.Command{
		Use:   "chatline [prompt]",
		Short: "Terminal client for a chat endpoint",
		Long: `chatline talks to a chat server that accepts POST /api/chat with the
conversation so far, and prints the assistant's reply. Replies can be
streamed as they are generated or fetched in one piece.

Examples:
  chatline chat                           Start interactive chat
  chatline "What is Go?"                  Send a single query
  chatline -f prompt.md                   Read prompt from file
  cat prompt.md | chatline                Read prompt from stdin
  chatline "Hello" -o reply.md            Save the reply to a file
  chatline --endpoint http://host:8000 "Hi"
  chatline config set stream false`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Check for version flag
			if v, _ := cmd.Flags().GetBool("version"); v {
				fmt.Fprintf(cmd.OutOrStdout(), "chatline %s (built %s)\n", Version, BuildTime)
				return nil
			}

			prompt, ok, err := readPrompt(args, opts.file, stdinInput(cmd))
			if err != nil {
				return err
			}
			if !ok {
				// No input - show help
				return cmd.Help()
			}

			cfg, err := global.loadConfig()
			if err != nil {
				return err
			}

			switch {
			case cmd.Flags().Changed("no-stream"):
				opts.streaming = false
			case cmd.Flags().Changed("stream"):
				opts.streaming = true
			default:
				opts.streaming = cfg.Stream
			}

			return runQuery(cmd.Context(), deps, cfg, prompt, *opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.PersistentFlags().StringVar(&global.endpoint, "endpoint", "",
		"Base URL of the chat server (overrides config and "+config.EnvEndpoint+")")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Save the reply to a file (.json/.html save a transcript)")
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "Read prompt from file")
	cmd.Flags().BoolVar(&opts.raw, "raw", false, "Print only the reply text")
	cmd.Flags().Bool("stream", false, "Stream the reply as it is generated")
	cmd.Flags().Bool("no-stream", false, "Fetch the reply in one piece")
	cmd.MarkFlagsMutuallyExclusive("stream", "no-stream")
	cmd.Flags().BoolP("version", "v", false, "Show version and exit")

	cmd.AddCommand(NewChatCmd(deps, global))
	cmd.AddCommand(NewConfigCmd(deps))

	return cmd
}

// rootCmd represents the base command
var rootCmd = NewRootCmd(NewDependencies())

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Exchange failures were already reported with their details
		if !apierrors.IsExchangeFailure(err) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

// stdinInput returns stdin when it carries piped data, or nil for a terminal
func stdinInput(cmd *cobra.Command) io.Reader {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok {
		stat, err := f.Stat()
		if err != nil || stat.Mode()&os.ModeCharDevice != 0 {
			return nil
		}
	}
	return in
}

// readPrompt picks the prompt from --file, piped stdin or the argument, in
// that order. ok is false when there is no input at all.
func readPrompt(args []string, file string, stdin io.Reader) (prompt string, ok bool, err error) {
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", false, fmt.Errorf("failed to read file: %w", err)
		}
		return string(data), true, nil
	}

	if stdin != nil {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", false, fmt.Errorf("failed to read stdin: %w", err)
		}
		if len(data) > 0 {
			return string(data), true, nil
		}
	}

	if len(args) > 0 {
		return args[0], true, nil
	}
	return "", false, nil
}
