package chat

import (
	"context"
	"errors"
	"strings"
	"sync"

	"gemini-chat/internal/attach"
	"gemini-chat/internal/gemini"

	"go.uber.org/zap"
)

var ErrBusy = errors.New("a message is already being sent")

// Generator performs the single outbound call for a built request.
type Generator interface {
	Generate(ctx context.Context, req *gemini.Request) (string, error)
}

type State int

const (
	StateIdle State = iota
	StateBuilding
	StateAwaitingResponse
	StateRendered
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBuilding:
		return "building"
	case StateAwaitingResponse:
		return "awaiting_response"
	case StateRendered:
		return "rendered"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// Session owns one input box: its pending image and its send lifecycle.
// Only one send may be in flight; a second one fails with ErrBusy.
type Session struct {
	gen       Generator
	buildOpts []gemini.BuildOption
	log       *zap.SugaredLogger

	mu      sync.Mutex
	state   State
	pending *attach.Image
}

type Option func(*Session)

func WithBuildOptions(opts ...gemini.BuildOption) Option {
	return func(s *Session) {
		s.buildOpts = append(s.buildOpts, opts...)
	}
}

func WithLogger(log *zap.SugaredLogger) Option {
	return func(s *Session) {
		if log != nil {
			s.log = log
		}
	}
}

func NewSession(gen Generator, opts ...Option) *Session {
	s := &Session{
		gen: gen,
		log: zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Attach replaces the pending image.
func (s *Session) Attach(img *attach.Image) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = img
}

func (s *Session) Remove() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
}

func (s *Session) Pending() *attach.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Busy() bool {
	return s.State() != StateIdle
}

func (s *Session) setState(to State) {
	s.mu.Lock()
	from := s.state
	s.state = to
	s.mu.Unlock()
	s.log.Debugw("state", "from", from.String(), "to", to.String())
}

// Send builds a request from text and the pending image, performs the call
// and renders the outcome to sink. On failure the error is rendered as a bot
// message and restore carries the text to put back in the input.
func (s *Session) Send(ctx context.Context, text string, sink Renderer) (restore string, err error) {
	text = strings.TrimSpace(text)

	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return text, ErrBusy
	}
	s.state = StateBuilding
	img := s.pending
	s.mu.Unlock()

	defer s.setState(StateIdle)

	req, err := gemini.BuildRequest(text, img, s.buildOpts...)
	if err != nil {
		s.setState(StateErrored)
		sink.Render(Message{Sender: SenderBot, Text: gemini.FormatError(err)})
		return text, err
	}

	if text != "" {
		sink.Render(Message{Sender: SenderUser, Text: text})
	}
	if img != nil {
		sink.Render(Message{Sender: SenderUser, ImageURL: img.DataURL})
	}

	s.mu.Lock()
	// A newer selection made while building stays pending.
	if s.pending == img {
		s.pending = nil
	}
	s.state = StateAwaitingResponse
	s.mu.Unlock()

	reply, err := s.gen.Generate(ctx, req)
	if err != nil {
		s.setState(StateErrored)
		s.log.Infow("send failed", "error", err)
		sink.Render(Message{Sender: SenderBot, Text: gemini.FormatError(err)})
		return text, err
	}

	s.setState(StateRendered)
	sink.Render(Message{Sender: SenderBot, Text: reply})
	return "", nil
}
