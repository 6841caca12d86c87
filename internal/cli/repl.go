package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"gemini-chat/internal/attach"
	"gemini-chat/internal/chat"
	"gemini-chat/internal/gemini"

	"github.com/chzyer/readline"
)

const replHelp = `Commands:
  /attach <path>  select an image to send with the next message
  /remove         drop the selected image
  /quit           leave
Anything else is sent as a message.`

// REPL drives a chat.Session from terminal input.
type REPL struct {
	Session       *chat.Session
	Out           io.Writer
	MaxImageBytes int64
}

// Handle processes one input line. restore is the text to pre-fill on the
// next prompt; quit reports that the user asked to leave.
func (r *REPL) Handle(ctx context.Context, line string) (restore string, quit bool) {
	trimmed := strings.TrimSpace(line)
	cmd, arg, _ := strings.Cut(trimmed, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "/quit", "/exit":
		return "", true
	case "/help":
		fmt.Fprintln(r.Out, replHelp)
		return "", false
	case "/remove":
		r.Session.Remove()
		fmt.Fprintln(r.Out, "Image removed.")
		return "", false
	case "/attach":
		if arg == "" {
			fmt.Fprintln(r.Out, "usage: /attach <path>")
			return "", false
		}
		img, err := attach.EncodeFile(arg, r.MaxImageBytes)
		if err != nil {
			fmt.Fprintln(r.Out, gemini.FormatError(err))
			return "", false
		}
		r.Session.Attach(img)
		fmt.Fprintf(r.Out, "Image selected: %s\n", img.Name)
		return "", false
	}

	restore, _ = r.Session.Send(ctx, line, TerminalRenderer{Out: r.Out})
	return restore, false
}

// Run reads lines until /quit, EOF or an interrupt on an empty line.
func (r *REPL) Run(ctx context.Context, rl *readline.Instance) error {
	fmt.Fprintln(r.Out, "Type /help for commands.")

	restore := ""
	for {
		line, err := rl.ReadlineWithDefault(restore)
		restore = ""
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				return nil
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if strings.TrimSpace(line) == "" && r.Session.Pending() == nil {
			continue
		}

		var quit bool
		restore, quit = r.Handle(ctx, line)
		if quit || ctx.Err() != nil {
			return nil
		}
	}
}
