package chat

import "sync"

type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Message is one entry on the display surface. ImageURL is a data URL and
// is set only for image previews.
type Message struct {
	Sender   Sender `json:"sender"`
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
}

func (m Message) IsImage() bool {
	return m.ImageURL != ""
}

// Renderer appends messages to whatever the user is looking at.
type Renderer interface {
	Render(msg Message)
}

type RendererFunc func(Message)

func (f RendererFunc) Render(msg Message) {
	f(msg)
}

// Transcript collects rendered messages in memory.
type Transcript struct {
	mu       sync.Mutex
	messages []Message
}

func (t *Transcript) Render(msg Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, msg)
}

func (t *Transcript) Messages() []Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return out
}
