package web

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"handyman/internal/editor"

	"github.com/google/uuid"
)

const sessionCookie = "handyman_session"

type pageSession struct {
	id       string
	ed       *editor.Session
	lastSeen time.Time
}

// sessionRegistry maps a browser page (cookie) to its editor session.
type sessionRegistry struct {
	mu   sync.Mutex
	max  int
	byID map[string]*pageSession
	now  func() time.Time
}

func newSessionRegistry(max int) *sessionRegistry {
	return &sessionRegistry{max: max, byID: map[string]*pageSession{}, now: time.Now}
}

func (r *sessionRegistry) put(ed *editor.Session) *pageSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	ps := &pageSession{id: uuid.NewString(), ed: ed, lastSeen: r.now()}
	r.byID[ps.id] = ps
	for len(r.byID) > r.max {
		r.evictOldestLocked()
	}
	return ps
}

func (r *sessionRegistry) get(id string) (*pageSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ps, ok := r.byID[strings.TrimSpace(id)]
	if ok {
		ps.lastSeen = r.now()
	}
	return ps, ok
}

func (r *sessionRegistry) drop(id string) {
	r.mu.Lock()
	delete(r.byID, id)
	r.mu.Unlock()
}

func (r *sessionRegistry) evictOldestLocked() {
	var oldest *pageSession
	for _, ps := range r.byID {
		if oldest == nil || ps.lastSeen.Before(oldest.lastSeen) {
			oldest = ps
		}
	}
	if oldest != nil {
		delete(r.byID, oldest.id)
	}
}

func (r *sessionRegistry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

func setSessionCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// sessionFor returns the editor session of the requesting page. Callers
// answer 409 when there is none, asking the page to reload.
func (s *Server) sessionFor(r *http.Request) (*pageSession, bool) {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return nil, false
	}
	return s.sessions.get(c.Value)
}
