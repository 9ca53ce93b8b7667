package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRequestValid(t *testing.T) {
	req, derr := DecodeRequest([]byte(`{"message":"Hi"}`), 8000)
	require.Nil(t, derr)
	assert.Equal(t, "Hi", req.Message)
}

func TestDecodeRequestRejectsBadPayloads(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		code string
	}{
		{"not json", `hello there`, CodeInvalidPayload},
		{"json array", `[1,2,3]`, CodeInvalidPayload},
		{"missing message", `{"msg":"Hi"}`, CodeInvalidPayload},
		{"null message", `{"message":null}`, CodeInvalidPayload},
		{"non-string message", `{"message":42}`, CodeInvalidPayload},
		{"empty message", `{"message":""}`, CodeInvalidPayload},
		{"whitespace message", `{"message":"   "}`, CodeInvalidPayload},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req, derr := DecodeRequest([]byte(tc.raw), 8000)
			assert.Nil(t, req)
			require.NotNil(t, derr)
			assert.Equal(t, tc.code, derr.Code)
			assert.NotEmpty(t, derr.Detail)
		})
	}
}

func TestDecodeRequestTooLong(t *testing.T) {
	long := make([]byte, 0, 32)
	for i := 0; i < 10; i++ {
		long = append(long, 'a')
	}
	req, derr := DecodeRequest([]byte(`{"message":"`+string(long)+`"}`), 5)
	assert.Nil(t, req)
	require.NotNil(t, derr)
	assert.Equal(t, CodeMessageTooBig, derr.Code)
}

func TestErrorFrameCarriesExampleForProtocolErrors(t *testing.T) {
	frame := NewErrorFrame("", CodeInvalidPayload, "missing required field 'message'")
	require.NotNil(t, frame.Example)
	assert.Equal(t, "Hi", frame.Example.Message)

	// Backend failures already have a well-formed request; no example needed.
	frame = NewErrorFrame("req-1", CodeBackendError, "boom")
	assert.Nil(t, frame.Example)
	assert.Equal(t, "req-1", frame.RequestID)
}

func TestEncodeFrameShapes(t *testing.T) {
	var decoded map[string]any

	require.NoError(t, json.Unmarshal(Encode(NewResponseFrame("r1", "hello")), &decoded))
	assert.Equal(t, "response", decoded["type"])
	assert.Equal(t, "r1", decoded["request_id"])
	assert.Equal(t, "hello", decoded["value"])

	// An empty accumulation must still serialize the "full" key.
	require.NoError(t, json.Unmarshal(Encode(NewEndFrame("r2", "")), &decoded))
	assert.Equal(t, "end", decoded["type"])
	_, ok := decoded["full"]
	assert.True(t, ok)

	// Error frames without a request id must omit the key entirely.
	// Reset the map: Unmarshal merges into an existing map, which would
	// leave the previous frame's request_id key behind.
	decoded = nil
	require.NoError(t, json.Unmarshal(Encode(NewErrorFrame("", CodeInvalidPayload, "bad")), &decoded))
	_, ok = decoded["request_id"]
	assert.False(t, ok)
}
