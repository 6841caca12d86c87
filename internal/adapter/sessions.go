package adapter

import (
	"net/http"
	"sync"
	"time"

	"gemini-chat/internal/chat"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	SessionCookie = "chat_session"
	sessionKey    = "chat_session"
)

type sessionEntry struct {
	session  *chat.Session
	lastSeen time.Time
}

// SessionStore keeps one chat.Session per browser, in memory only.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*sessionEntry
	factory  func() *chat.Session
	now      func() time.Time
}

func NewSessionStore(factory func() *chat.Session) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*sessionEntry),
		factory:  factory,
		now:      time.Now,
	}
}

func (s *SessionStore) Get(id string) (*chat.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	entry.lastSeen = s.now()
	return entry.session, true
}

func (s *SessionStore) Create() (string, *chat.Session) {
	id := uuid.NewString()
	sess := s.factory()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = &sessionEntry{session: sess, lastSeen: s.now()}
	return id, sess
}

func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep drops sessions idle for longer than maxIdle. Sessions with a send in
// flight are kept.
func (s *SessionStore) Sweep(maxIdle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-maxIdle)
	removed := 0
	for id, entry := range s.sessions {
		if entry.lastSeen.Before(cutoff) && !entry.session.Busy() {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// SessionMiddleware attaches the caller's session, creating one (and its
// cookie) when the cookie is missing or unknown.
func SessionMiddleware(store *SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if id, err := c.Cookie(SessionCookie); err == nil {
			if sess, ok := store.Get(id); ok {
				c.Set(sessionKey, sess)
				c.Next()
				return
			}
		}

		id, sess := store.Create()
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(SessionCookie, id, 0, "/", "", false, true)
		c.Set(sessionKey, sess)
		c.Next()
	}
}

func sessionFrom(c *gin.Context) *chat.Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	sess, _ := v.(*chat.Session)
	return sess
}
