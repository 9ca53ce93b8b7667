package relay

import (
	"context"
	"strings"

	"github.com/xpanvictor/hirect/internal/protocol"
	"github.com/xpanvictor/hirect/pkg/Logger"
	"github.com/xpanvictor/hirect/pkg/assistant"
)

// FrameWriter emits outbound frames for one connection.
type FrameWriter interface {
	WriteFrame(frame any) error
}

// StreamDispatcher drives one streaming request: start, then chunks in
// generation order, then exactly one of end / error / silent stop on cancel.
type StreamDispatcher struct {
	assistant assistant.Assistant
	logger    *Logger.Logger
}

func NewStreamDispatcher(backend assistant.Assistant, logger *Logger.Logger) *StreamDispatcher {
	return &StreamDispatcher{
		assistant: backend,
		logger:    logger,
	}
}

// Run consumes the backend fragment sequence for requestID and emits the
// frame sequence on w. It returns once the request reached a terminal state;
// the caller releases the request afterwards.
func (d *StreamDispatcher) Run(ctx context.Context, w FrameWriter, requestID, prompt string) {
	frags, err := d.assistant.Stream(ctx, prompt)
	if err != nil {
		code, detail := classifyBackendError(err)
		_ = w.WriteFrame(protocol.NewErrorFrame(requestID, code, detail))
		return
	}

	if err := w.WriteFrame(protocol.NewStartFrame(requestID)); err != nil {
		return
	}

	var full strings.Builder
	for {
		select {
		case <-ctx.Done():
			// Cancelled mid-stream: stop consuming, emit nothing further.
			return
		case frag, ok := <-frags:
			if !ok {
				_ = w.WriteFrame(protocol.NewEndFrame(requestID, full.String()))
				return
			}
			if frag.Err != nil {
				if ctx.Err() != nil {
					return
				}
				code, detail := classifyBackendError(frag.Err)
				_ = w.WriteFrame(protocol.NewErrorFrame(requestID, code, detail))
				return
			}
			full.WriteString(frag.Text)
			if err := w.WriteFrame(protocol.NewChunkFrame(requestID, frag.Text)); err != nil {
				return
			}
		}
	}
}
