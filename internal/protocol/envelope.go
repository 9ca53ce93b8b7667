package protocol

import (
	"encoding/json"
	"strings"
	"unicode/utf8"
)

// FrameType tags outbound envelopes.
type FrameType string

const (
	FrameTypeResponse FrameType = "response"
	FrameTypeStart    FrameType = "start"
	FrameTypeChunk    FrameType = "chunk"
	FrameTypeEnd      FrameType = "end"
	FrameTypeError    FrameType = "error"
)

// Error codes surfaced to clients.
const (
	CodeInvalidPayload = "INVALID_PAYLOAD"
	CodeMessageTooBig  = "MESSAGE_TOO_BIG"
	CodeTimeout        = "TIMEOUT"
	CodeBackendError   = "BACKEND_ERROR"
)

// ChatRequest is the only inbound payload shape.
type ChatRequest struct {
	Message string `json:"message"`
}

// ResponseFrame carries the single non-streaming result.
type ResponseFrame struct {
	Type      FrameType `json:"type"`
	RequestID string    `json:"request_id"`
	Value     string    `json:"value"`
}

// StartFrame opens a streamed response.
type StartFrame struct {
	Type      FrameType `json:"type"`
	RequestID string    `json:"request_id"`
}

// ChunkFrame carries one incremental fragment.
type ChunkFrame struct {
	Type      FrameType `json:"type"`
	RequestID string    `json:"request_id"`
	Value     string    `json:"value"`
}

// EndFrame closes a streamed response with the accumulated text.
type EndFrame struct {
	Type      FrameType `json:"type"`
	RequestID string    `json:"request_id"`
	Full      string    `json:"full"`
}

// ErrorFrame reports a per-request or protocol failure. RequestID is empty
// for failures raised before a request id was assigned.
type ErrorFrame struct {
	Type      FrameType    `json:"type"`
	RequestID string       `json:"request_id,omitempty"`
	Code      string       `json:"code"`
	Detail    string       `json:"detail"`
	Example   *ChatRequest `json:"example,omitempty"`
}

func NewResponseFrame(requestID, value string) ResponseFrame {
	return ResponseFrame{Type: FrameTypeResponse, RequestID: requestID, Value: value}
}

func NewStartFrame(requestID string) StartFrame {
	return StartFrame{Type: FrameTypeStart, RequestID: requestID}
}

func NewChunkFrame(requestID, value string) ChunkFrame {
	return ChunkFrame{Type: FrameTypeChunk, RequestID: requestID, Value: value}
}

func NewEndFrame(requestID, full string) EndFrame {
	return EndFrame{Type: FrameTypeEnd, RequestID: requestID, Full: full}
}

func NewErrorFrame(requestID, code, detail string) ErrorFrame {
	frame := ErrorFrame{Type: FrameTypeError, RequestID: requestID, Code: code, Detail: detail}
	if code == CodeInvalidPayload || code == CodeMessageTooBig {
		frame.Example = &ChatRequest{Message: "Hi"}
	}
	return frame
}

// DecodeError describes a rejected inbound payload.
type DecodeError struct {
	Code   string
	Detail string
}

func (e *DecodeError) Error() string {
	return e.Detail
}

// DecodeRequest validates a raw inbound frame. maxLen bounds the message
// length in runes; zero disables the bound.
func DecodeRequest(raw []byte, maxLen int) (*ChatRequest, *DecodeError) {
	var payload struct {
		Message *string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, &DecodeError{
			Code:   CodeInvalidPayload,
			Detail: "payload must be a JSON object with a string 'message' field",
		}
	}
	if payload.Message == nil {
		return nil, &DecodeError{
			Code:   CodeInvalidPayload,
			Detail: "missing required field 'message'",
		}
	}
	if strings.TrimSpace(*payload.Message) == "" {
		return nil, &DecodeError{
			Code:   CodeInvalidPayload,
			Detail: "'message' must be a non-empty string",
		}
	}
	if maxLen > 0 && utf8.RuneCountInString(*payload.Message) > maxLen {
		return nil, &DecodeError{
			Code:   CodeMessageTooBig,
			Detail: "message exceeds max length",
		}
	}
	return &ChatRequest{Message: *payload.Message}, nil
}

// Encode marshals an outbound frame. Frames are plain structs, so a marshal
// failure is a programming error, not a runtime condition.
func Encode(frame any) []byte {
	data, err := json.Marshal(frame)
	if err != nil {
		panic("protocol: unencodable frame: " + err.Error())
	}
	return data
}
