// Package cli implements the terminal chat client.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"gemini-chat/internal/attach"
	"gemini-chat/internal/balancer"
	"gemini-chat/internal/chat"
	"gemini-chat/internal/config"
	"gemini-chat/internal/gemini"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// ExitError carries the process exit code for a failed one-shot send.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return e.Err.Error()
}

func (e *ExitError) ExitCode() int {
	return e.Code
}

var (
	model     string
	prompt    string
	imagePath string
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with Gemini from the terminal",
	Long: `Send text and images to Gemini.

Examples:
  chat                                  interactive session
  chat --prompt "Hello"
  chat --image photo.png                describe an image
  chat --image photo.png --prompt "What breed is this dog?"`,
	RunE:          run,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.Flags().StringVar(&model, "model", "", "model name or alias (default from GEMINI_MODEL)")
	rootCmd.Flags().StringVar(&prompt, "prompt", "", "send one message and exit")
	rootCmd.Flags().StringVar(&imagePath, "image", "", "attach an image to the one-shot message")
	rootCmd.Flags().BoolVar(&verbose, "verbose", false, "log to stderr")
}

func Execute() error {
	return rootCmd.Execute()
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := zap.NewNop().Sugar()
	if verbose {
		logger, err := cfg.NewLogger()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()
		log = logger.Sugar()
	}

	name := model
	if name == "" {
		name = cfg.Model
	}
	name = cfg.MapModel(name)

	pool := balancer.NewKeyPool(log.Named("keys"))
	for _, key := range cfg.APIKeys {
		client, err := gemini.NewClient(key,
			gemini.WithModel(name),
			gemini.WithBaseURL(cfg.BaseURL),
			gemini.WithTimeout(cfg.RequestTimeout),
			gemini.WithProfile(cfg.ClientProfile),
			gemini.WithLogger(log),
		)
		if err != nil {
			return err
		}
		pool.Add(client, balancer.KeyID(key))
	}

	session := chat.NewSession(pool,
		chat.WithBuildOptions(
			gemini.WithDefaultPrompt(cfg.DefaultImagePrompt),
			gemini.WithMaxOutputTokens(cfg.MaxOutputTokens),
		),
		chat.WithLogger(log.Named("session")),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	out := cmd.OutOrStdout()
	if prompt != "" || imagePath != "" {
		return oneShot(ctx, session, prompt, imagePath, cfg.MaxImageBytes, TerminalRenderer{Out: out})
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "/quit",
		Stdout:          out,
	})
	if err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}
	defer rl.Close()

	repl := &REPL{Session: session, Out: rl.Stdout(), MaxImageBytes: cfg.MaxImageBytes}
	return repl.Run(ctx, rl)
}

func oneShot(ctx context.Context, session *chat.Session, text, path string, maxImageBytes int64, sink chat.Renderer) error {
	if path != "" {
		img, err := attach.EncodeFile(path, maxImageBytes)
		if err != nil {
			sink.Render(chat.Message{Sender: chat.SenderBot, Text: gemini.FormatError(err)})
			return &ExitError{Code: 1, Err: err}
		}
		session.Attach(img)
	}

	if _, err := session.Send(ctx, text, sink); err != nil {
		return &ExitError{Code: 1, Err: err}
	}
	return nil
}
