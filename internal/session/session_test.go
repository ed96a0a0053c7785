package session_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rtg123uk/storyai/internal/domain"
	"github.com/rtg123uk/storyai/internal/session"
)

func TestSession_SignInOut(t *testing.T) {
	s := session.New()
	_, err := s.RequireUser()
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	var events []session.Event
	unsubscribe := s.Subscribe(func(e session.Event) { events = append(events, e) })

	s.SignIn(session.User{ID: "u1", Email: "a@example.com"})
	u, err := s.RequireUser()
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)

	s.SignOut()
	s.SignOut()
	_, ok := s.User()
	assert.False(t, ok)

	require.Len(t, events, 2)
	assert.Equal(t, session.Event{Type: session.EventSignedIn, User: session.User{ID: "u1", Email: "a@example.com"}}, events[0])
	assert.Equal(t, session.EventSignedOut, events[1].Type)

	unsubscribe()
	unsubscribe()
	s.SignIn(session.User{ID: "u2"})
	assert.Len(t, events, 2)
}

func TestSession_SubscriberMayReadSession(t *testing.T) {
	s := session.New()
	var seen string
	s.Subscribe(func(session.Event) {
		u, _ := s.User()
		seen = u.ID
	})
	s.SignIn(session.User{ID: "reader"})
	assert.Equal(t, "reader", seen)
}

func TestSession_Concurrent(t *testing.T) {
	s := session.New()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.SignIn(session.User{ID: "x"})
		}()
		go func() {
			defer wg.Done()
			unsub := s.Subscribe(func(session.Event) {})
			_, _ = s.User()
			unsub()
		}()
	}
	wg.Wait()
	_, ok := s.User()
	assert.True(t, ok)
}

func TestContext(t *testing.T) {
	assert.Nil(t, session.FromContext(context.Background()))

	var nilSession *session.Session
	_, ok := nilSession.User()
	assert.False(t, ok)

	s := session.New()
	ctx := session.NewContext(context.Background(), s)
	assert.Same(t, s, session.FromContext(ctx))
}
