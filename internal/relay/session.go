package relay

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/looplab/fsm"
	"github.com/xpanvictor/hirect/internal/config"
	"github.com/xpanvictor/hirect/internal/protocol"
	"github.com/xpanvictor/hirect/pkg/Logger"
	"github.com/xpanvictor/hirect/pkg/assistant"
)

// Mode selects how a session answers: one response frame, or a stream.
type Mode string

const (
	ModeSingle Mode = "single"
	ModeStream Mode = "stream"
)

// Session lifecycle states.
const (
	stateOpen        = "open"
	stateReceiving   = "receiving"
	stateDispatching = "dispatching"
	stateClosed      = "closed"
)

const (
	eventReceive  = "receive"
	eventDispatch = "dispatch"
	eventClose    = "close"
)

var errTransportClosed = errors.New("relay: transport closed")

// Transport is the message-framed byte stream a session owns. Satisfied by
// *websocket.Conn.
type Transport interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteJSON(v interface{}) error
	Close() error
}

// Session owns one client connection: receive loop, dispatch, response
// emission and teardown. At most one request is in flight at a time; the
// receive loop does not consume further frames while dispatching.
type Session struct {
	ID         uuid.UUID
	Mode       Mode
	conn       Transport
	assistant  assistant.Assistant
	correlator *Correlator
	dispatcher *StreamDispatcher
	logger     *Logger.Logger
	maxMsgLen  int
	machine    *fsm.FSM

	ConnectedAt time.Time
	lastActive  time.Time
	requests    atomic.Int64

	mutex      sync.Mutex
	down       atomic.Bool
	connCancel context.CancelFunc
}

// NewSession creates a session for an accepted connection.
func NewSession(
	mode Mode,
	conn Transport,
	backend assistant.Assistant,
	correlator *Correlator,
	logger *Logger.Logger,
	cfg config.RelayConfig,
) *Session {
	s := &Session{
		ID:          uuid.New(),
		Mode:        mode,
		conn:        conn,
		assistant:   backend,
		correlator:  correlator,
		dispatcher:  NewStreamDispatcher(backend, logger),
		logger:      logger,
		maxMsgLen:   cfg.MaxMessageLen,
		ConnectedAt: time.Now(),
		lastActive:  time.Now(),
	}
	s.machine = fsm.NewFSM(
		stateOpen,
		fsm.Events{
			{Name: eventReceive, Src: []string{stateOpen, stateDispatching}, Dst: stateReceiving},
			{Name: eventDispatch, Src: []string{stateReceiving}, Dst: stateDispatching},
			{Name: eventClose, Src: []string{stateOpen, stateReceiving, stateDispatching}, Dst: stateClosed},
		},
		fsm.Callbacks{},
	)
	return s
}

// Run drives the session until disconnect or fatal transport error. It
// returns with every held resource released.
func (s *Session) Run(ctx context.Context) {
	connCtx, cancel := context.WithCancel(ctx)
	s.mutex.Lock()
	s.connCancel = cancel
	s.mutex.Unlock()
	defer cancel()
	defer s.teardown()

	frames := make(chan []byte)
	go s.readPump(connCtx, frames)

	_ = s.machine.Event(connCtx, eventReceive)
	for {
		select {
		case raw, ok := <-frames:
			if !ok {
				return
			}
			s.Touch()
			s.handleFrame(connCtx, raw)
			if s.down.Load() {
				return
			}
		case <-connCtx.Done():
			return
		}
	}
}

// readPump feeds inbound frames to the session loop. A read failure means
// the client is gone: it cancels the connection context so any in-flight
// backend call is abandoned promptly.
func (s *Session) readPump(ctx context.Context, frames chan<- []byte) {
	defer close(frames)
	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			s.down.Store(true)
			s.cancelConn()
			s.logger.Debugf("session %s read ended: %v", s.ID, err)
			return
		}
		select {
		case frames <- raw:
		case <-ctx.Done():
			return
		}
	}
}

func (s *Session) handleFrame(ctx context.Context, raw []byte) {
	req, derr := protocol.DecodeRequest(raw, s.maxMsgLen)
	if derr != nil {
		// One malformed message does not close the connection.
		_ = s.WriteFrame(protocol.NewErrorFrame("", derr.Code, derr.Detail))
		return
	}

	_ = s.machine.Event(ctx, eventDispatch)
	defer func() { _ = s.machine.Event(ctx, eventReceive) }()

	id := s.correlator.NewID()
	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.correlator.Register(id, cancel)
	defer s.correlator.Release(id)

	switch s.Mode {
	case ModeStream:
		s.dispatcher.Run(reqCtx, s, id, req.Message)
	default:
		s.invoke(reqCtx, id, req.Message)
	}
	s.requests.Add(1)
}

// invoke drives one non-streaming request to its terminal frame.
func (s *Session) invoke(ctx context.Context, requestID, prompt string) {
	value, err := s.assistant.Invoke(ctx, prompt)
	if err != nil {
		if ctx.Err() == context.Canceled {
			// Cancelled by disconnect or explicit cancel; nothing to emit.
			return
		}
		code, detail := classifyBackendError(err)
		_ = s.WriteFrame(protocol.NewErrorFrame(requestID, code, detail))
		return
	}
	_ = s.WriteFrame(protocol.NewResponseFrame(requestID, value))
}

// WriteFrame emits one outbound frame. After the first failure the transport
// is considered dead and no further writes are attempted.
func (s *Session) WriteFrame(frame any) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.down.Load() {
		return errTransportClosed
	}
	if err := s.conn.WriteJSON(frame); err != nil {
		s.down.Store(true)
		if s.connCancel != nil {
			s.connCancel()
		}
		s.logger.Debugf("session %s write failed: %v", s.ID, err)
		return err
	}
	return nil
}

// Shutdown force-closes the session from outside the connection goroutine.
func (s *Session) Shutdown() {
	s.down.Store(true)
	s.cancelConn()
	_ = s.conn.Close()
}

func (s *Session) cancelConn() {
	s.mutex.Lock()
	cancel := s.connCancel
	s.mutex.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (s *Session) teardown() {
	_ = s.machine.Event(context.Background(), eventClose)
	_ = s.conn.Close()
	s.logger.Infof("session %s closed after %d request(s)", s.ID, s.requests.Load())
}

// State returns the current lifecycle state.
func (s *Session) State() string {
	return s.machine.Current()
}

// Touch updates the last activity timestamp.
func (s *Session) Touch() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.lastActive = time.Now()
}

// LastActive returns the last activity timestamp.
func (s *Session) LastActive() time.Time {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.lastActive
}

// IsExpired checks if the session has been idle longer than timeout.
func (s *Session) IsExpired(timeout time.Duration) bool {
	return time.Since(s.LastActive()) > timeout
}

// RequestsServed returns the number of completed dispatches.
func (s *Session) RequestsServed() int64 {
	return s.requests.Load()
}

func classifyBackendError(err error) (code string, detail string) {
	if assistant.IsTimeout(err) {
		return protocol.CodeTimeout, "backend call exceeded its time budget"
	}
	return protocol.CodeBackendError, err.Error()
}
