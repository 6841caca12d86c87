package chat

import (
	"context"
	"sync"
	"testing"

	"gemini-chat/internal/attach"
	"gemini-chat/internal/gemini"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	mu       sync.Mutex
	requests []*gemini.Request
	reply    string
	err      error
}

func (f *fakeGenerator) Generate(_ context.Context, req *gemini.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.reply, f.err
}

func (f *fakeGenerator) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

// blockingGenerator holds every call until release is closed.
type blockingGenerator struct {
	started chan *gemini.Request
	release chan struct{}
}

func newBlockingGenerator() *blockingGenerator {
	return &blockingGenerator{
		started: make(chan *gemini.Request, 1),
		release: make(chan struct{}),
	}
}

func (b *blockingGenerator) Generate(ctx context.Context, req *gemini.Request) (string, error) {
	b.started <- req
	select {
	case <-b.release:
		return "done", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func testImage(name string) *attach.Image {
	img, _ := attach.Encode(name, "image/png", []byte(name), 0)
	return img
}

func TestSendText(t *testing.T) {
	gen := &fakeGenerator{reply: "Hi!"}
	s := NewSession(gen)
	transcript := &Transcript{}

	restore, err := s.Send(context.Background(), "  Hello  ", transcript)
	require.NoError(t, err)
	assert.Empty(t, restore)
	assert.Equal(t, StateIdle, s.State())

	assert.Equal(t, []Message{
		{Sender: SenderUser, Text: "Hello"},
		{Sender: SenderBot, Text: "Hi!"},
	}, transcript.Messages())

	require.Equal(t, 1, gen.calls())
	parts := gen.requests[0].Parts
	require.Len(t, parts, 1)
	assert.Equal(t, "Hello", parts[0].Text)
}

func TestSendImageOnly(t *testing.T) {
	gen := &fakeGenerator{reply: "A cat."}
	s := NewSession(gen, WithBuildOptions(gemini.WithDefaultPrompt("What is it?")))
	img := testImage("cat")
	s.Attach(img)
	transcript := &Transcript{}

	_, err := s.Send(context.Background(), "", transcript)
	require.NoError(t, err)
	assert.Nil(t, s.Pending())

	msgs := transcript.Messages()
	require.Len(t, msgs, 2)
	assert.True(t, msgs[0].IsImage())
	assert.Equal(t, img.DataURL, msgs[0].ImageURL)
	assert.Equal(t, Message{Sender: SenderBot, Text: "A cat."}, msgs[1])

	parts := gen.requests[0].Parts
	require.Len(t, parts, 2)
	assert.True(t, parts[0].IsImage())
	assert.Equal(t, "What is it?", parts[1].Text)
}

func TestSendTextAndImage(t *testing.T) {
	gen := &fakeGenerator{reply: "ok"}
	s := NewSession(gen)
	s.Attach(testImage("dog"))
	transcript := &Transcript{}

	_, err := s.Send(context.Background(), "Breed?", transcript)
	require.NoError(t, err)

	msgs := transcript.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, Message{Sender: SenderUser, Text: "Breed?"}, msgs[0])
	assert.True(t, msgs[1].IsImage())

	parts := gen.requests[0].Parts
	require.Len(t, parts, 2)
	assert.True(t, parts[0].IsImage())
	assert.Equal(t, "Breed?", parts[1].Text)
}

func TestSendEmptyInput(t *testing.T) {
	gen := &fakeGenerator{reply: "unused"}
	s := NewSession(gen)
	transcript := &Transcript{}

	restore, err := s.Send(context.Background(), "   ", transcript)

	var vErr *gemini.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Empty(t, restore)
	assert.Zero(t, gen.calls())
	assert.Equal(t, []Message{{Sender: SenderBot, Text: "Erro: empty input"}}, transcript.Messages())
	assert.Equal(t, StateIdle, s.State())
}

func TestSendInvalidImageKeepsSelection(t *testing.T) {
	gen := &fakeGenerator{}
	s := NewSession(gen)
	bad := &attach.Image{Name: "x", MimeType: "image/png", DataURL: "data:image/png;base64,"}
	s.Attach(bad)

	restore, err := s.Send(context.Background(), "look", &Transcript{})
	var vErr *gemini.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "invalid image data", vErr.Reason)
	assert.Equal(t, "look", restore)
	assert.Same(t, bad, s.Pending())
	assert.Zero(t, gen.calls())
}

func TestSendFailureRestoresText(t *testing.T) {
	gen := &fakeGenerator{err: &gemini.APIError{Status: 429, Message: "quota exceeded"}}
	s := NewSession(gen)
	s.Attach(testImage("cat"))
	transcript := &Transcript{}

	restore, err := s.Send(context.Background(), "Hello", transcript)
	require.Error(t, err)
	assert.Equal(t, "Hello", restore)
	assert.Nil(t, s.Pending(), "image is consumed once the request is built")
	assert.Equal(t, StateIdle, s.State())

	msgs := transcript.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, Message{Sender: SenderBot, Text: "Erro: quota exceeded"}, msgs[2])
}

func TestSendWhileBusy(t *testing.T) {
	gen := newBlockingGenerator()
	s := NewSession(gen)

	done := make(chan error, 1)
	go func() {
		_, err := s.Send(context.Background(), "first", &Transcript{})
		done <- err
	}()

	<-gen.started
	assert.Equal(t, StateAwaitingResponse, s.State())
	assert.True(t, s.Busy())

	transcript := &Transcript{}
	restore, err := s.Send(context.Background(), "second", transcript)
	assert.ErrorIs(t, err, ErrBusy)
	assert.Equal(t, "second", restore)
	assert.Empty(t, transcript.Messages())

	close(gen.release)
	require.NoError(t, <-done)
	assert.Equal(t, StateIdle, s.State())

	// Idle again: the next send goes through.
	go func() { <-gen.started }()
	_, err = s.Send(context.Background(), "third", &Transcript{})
	assert.NoError(t, err)
}

func TestSendSnapshotsPendingImage(t *testing.T) {
	gen := newBlockingGenerator()
	s := NewSession(gen)
	first := testImage("first")
	s.Attach(first)

	done := make(chan error, 1)
	go func() {
		_, err := s.Send(context.Background(), "", &Transcript{})
		done <- err
	}()

	req := <-gen.started
	second := testImage("second")
	s.Attach(second)
	close(gen.release)
	require.NoError(t, <-done)

	assert.Equal(t, first.Base64(), req.Parts[0].Image.Data)
	assert.Same(t, second, s.Pending(), "a selection made mid-flight stays pending")
}

func TestSendCanceled(t *testing.T) {
	gen := newBlockingGenerator()
	s := NewSession(gen)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := s.Send(ctx, "hi", &Transcript{})
		done <- err
	}()

	<-gen.started
	cancel()
	err := <-done
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateIdle, s.State())
}

func TestRemove(t *testing.T) {
	s := NewSession(&fakeGenerator{})
	s.Attach(testImage("a"))
	require.NotNil(t, s.Pending())
	s.Remove()
	assert.Nil(t, s.Pending())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "awaiting_response", StateAwaitingResponse.String())
	assert.Equal(t, "unknown", State(42).String())
}
