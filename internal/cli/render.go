package cli

import (
	"fmt"
	"io"

	"gemini-chat/internal/chat"
)

// TerminalRenderer prints chat messages as prefixed lines.
type TerminalRenderer struct {
	Out io.Writer
}

func (t TerminalRenderer) Render(msg chat.Message) {
	prefix := "gemini>"
	if msg.Sender == chat.SenderUser {
		prefix = "you>"
	}

	if msg.IsImage() {
		fmt.Fprintf(t.Out, "%s [image, %d bytes encoded]\n", prefix, len(msg.ImageURL))
		return
	}
	fmt.Fprintf(t.Out, "%s %s\n", prefix, msg.Text)
}
