// Package session holds the signed-in user for one caller and verifies the
// bearer tokens that establish it.
package session

import (
	"context"
	"sync"

	"github.com/rtg123uk/storyai/internal/domain"
)

// User is an authenticated caller.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

type EventType string

const (
	EventSignedIn  EventType = "signed_in"
	EventSignedOut EventType = "signed_out"
)

// Event reports a change of the session's user. User is empty on sign-out.
type Event struct {
	Type EventType
	User User
}

// Session is owned by whoever handles a caller and passed explicitly to the
// code that needs the user. It is safe for concurrent use.
type Session struct {
	mu     sync.RWMutex
	user   *User
	subs   map[int]func(Event)
	nextID int
}

func New() *Session {
	return &Session{subs: make(map[int]func(Event))}
}

// SignIn replaces the current user and notifies subscribers.
func (s *Session) SignIn(u User) {
	s.mu.Lock()
	s.user = &u
	subs := s.snapshot()
	s.mu.Unlock()
	notify(subs, Event{Type: EventSignedIn, User: u})
}

// SignOut clears the user. Subscribers are notified only if someone was
// signed in.
func (s *Session) SignOut() {
	s.mu.Lock()
	was := s.user
	s.user = nil
	subs := s.snapshot()
	s.mu.Unlock()
	if was != nil {
		notify(subs, Event{Type: EventSignedOut})
	}
}

// User returns the signed-in user.
func (s *Session) User() (User, bool) {
	if s == nil {
		return User{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return User{}, false
	}
	return *s.user, true
}

// RequireUser returns the signed-in user or ErrUnauthorized.
func (s *Session) RequireUser() (User, error) {
	u, ok := s.User()
	if !ok {
		return User{}, domain.ErrUnauthorized
	}
	return u, nil
}

// Subscribe registers fn for future events and returns a function that
// removes it. fn runs on the goroutine that changed the session.
func (s *Session) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// snapshot must be called with mu held.
func (s *Session) snapshot() []func(Event) {
	out := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		out = append(out, fn)
	}
	return out
}

func notify(subs []func(Event), ev Event) {
	for _, fn := range subs {
		fn(ev)
	}
}

type contextKey struct{}

// NewContext returns ctx carrying s.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session stored by NewContext, or nil.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(contextKey{}).(*Session)
	return s
}
