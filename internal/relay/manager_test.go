package relay

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xpanvictor/hirect/pkg/Logger"
)

func TestManagerTracksSessions(t *testing.T) {
	m := NewManager(Logger.New(true))
	defer m.Close()

	backend := newScriptedAssistant()
	s1 := NewSession(ModeSingle, newFakeConn(), backend, NewCorrelator(), Logger.New(true), testRelayConfig())
	s2 := NewSession(ModeStream, newFakeConn(), backend, NewCorrelator(), Logger.New(true), testRelayConfig())

	m.Register(s1)
	m.Register(s2)
	assert.Equal(t, 2, m.Count())

	m.Unregister(s1.ID)
	assert.Equal(t, 1, m.Count())

	// Unregistering twice is harmless.
	m.Unregister(s1.ID)
	assert.Equal(t, 1, m.Count())
}

func TestManagerStats(t *testing.T) {
	m := NewManager(Logger.New(true))
	defer m.Close()

	backend := newScriptedAssistant()
	session := NewSession(ModeStream, newFakeConn(), backend, NewCorrelator(), Logger.New(true), testRelayConfig())
	m.Register(session)

	stats := m.Stats()
	assert.Equal(t, 1, stats["active_sessions"])

	sessions, ok := stats["sessions"].([]map[string]interface{})
	require.True(t, ok)
	require.Len(t, sessions, 1)
	assert.Equal(t, session.ID.String(), sessions[0]["session_id"])
	assert.Equal(t, "stream", sessions[0]["mode"])
	assert.Equal(t, stateOpen, sessions[0]["state"])
}

func TestManagerReapsIdleSessions(t *testing.T) {
	m := NewManager(Logger.New(true))
	defer m.Close()
	m.SetSessionTimeout(10 * time.Millisecond)

	backend := newScriptedAssistant()
	conn := newFakeConn()
	session := NewSession(ModeSingle, conn, backend, NewCorrelator(), Logger.New(true), testRelayConfig())

	done := make(chan struct{})
	go func() {
		defer close(done)
		session.Run(context.Background())
	}()

	m.Register(session)
	time.Sleep(20 * time.Millisecond)
	m.reapIdleSessions()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("idle session was not closed by the reaper")
	}
}

func TestManagerCloseShutsDownSessions(t *testing.T) {
	m := NewManager(Logger.New(true))

	backend := newScriptedAssistant()
	conn := newFakeConn()
	session := NewSession(ModeSingle, conn, backend, NewCorrelator(), Logger.New(true), testRelayConfig())

	done := make(chan struct{})
	go func() {
		defer close(done)
		session.Run(context.Background())
	}()
	m.Register(session)

	require.NoError(t, m.Close())

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("session still running after manager close")
	}
}
