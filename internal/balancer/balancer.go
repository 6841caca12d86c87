package balancer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"gemini-chat/internal/chat"
	"gemini-chat/internal/gemini"

	"go.uber.org/zap"
)

var ErrNoClients = errors.New("no api keys configured")

type KeyEntry struct {
	Client chat.Generator
	KeyID  string
}

// KeyPool spreads requests over one client per API key, round-robin.
type KeyPool struct {
	entries []KeyEntry
	index   uint64
	mu      sync.RWMutex
	log     *zap.SugaredLogger
}

func NewKeyPool(log *zap.SugaredLogger) *KeyPool {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &KeyPool{
		entries: make([]KeyEntry, 0),
		log:     log,
	}
}

func (p *KeyPool) Add(client chat.Generator, keyID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = append(p.entries, KeyEntry{
		Client: client,
		KeyID:  keyID,
	})
}

func (p *KeyPool) Next() (chat.Generator, string) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if len(p.entries) == 0 {
		return nil, ""
	}
	idx := atomic.AddUint64(&p.index, 1) - 1
	entry := p.entries[idx%uint64(len(p.entries))]
	return entry.Client, entry.KeyID
}

func (p *KeyPool) Size() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.entries)
}

// Generate hands the request to the next client. A failed call is not
// retried on another key.
func (p *KeyPool) Generate(ctx context.Context, req *gemini.Request) (string, error) {
	client, keyID := p.Next()
	if client == nil {
		return "", ErrNoClients
	}
	text, err := client.Generate(ctx, req)
	if err != nil {
		p.log.Warnw("generate failed", "key", keyID, "error", err)
		return "", err
	}
	return text, nil
}

// KeyID is a log-safe label for an API key.
func KeyID(apiKey string) string {
	if len(apiKey) <= 4 {
		return "****"
	}
	return "****" + apiKey[len(apiKey)-4:]
}
