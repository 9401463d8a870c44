package ipc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"whisper-relay/internal/app/model"
	"whisper-relay/internal/app/relay"
)

func dialBridge(t *testing.T, submitter *mockSubmitter) (*Bridge, *websocket.Conn) {
	t.Helper()
	bridge := NewBridge(NewDispatcher(submitter, nil), 1<<20, nil)
	server := httptest.NewServer(bridge)
	t.Cleanup(server.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return bridge, conn
}

func readResponse(t *testing.T, conn *websocket.Conn) Response {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var resp Response
	require.NoError(t, conn.ReadJSON(&resp))
	return resp
}

func TestBridgeRoundTrip(t *testing.T) {
	submitter := &mockSubmitter{}
	submitter.On("SubmitEncodedBuffer", mock.Anything, mock.Anything).Return(model.Success("hello world"))
	_, conn := dialBridge(t, submitter)

	require.NoError(t, conn.WriteJSON(Request{
		ID:      "1",
		Channel: ChannelMicrophone,
		Args:    rawArgs(t, "AAAA", "en"),
	}))

	resp := readResponse(t, conn)
	assert.Equal(t, "1", resp.ID)
	assert.Equal(t, "hello world", resp.Result)
	assert.Empty(t, resp.Error)
}

func TestBridgeErrors(t *testing.T) {
	_, conn := dialBridge(t, &mockSubmitter{})

	require.NoError(t, conn.WriteJSON(Request{ID: "a", Channel: ChannelFile, Args: rawArgs(t, "blob:x")}))
	resp := readResponse(t, conn)
	assert.Equal(t, "a", resp.ID)
	assert.Equal(t, "Invalid file data", resp.Error)
	assert.Nil(t, resp.Result)

	require.NoError(t, conn.WriteJSON(Request{ID: "b", Channel: "nope"}))
	resp = readResponse(t, conn)
	assert.Equal(t, "b", resp.ID)
	assert.Contains(t, resp.Error, "nope")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	resp = readResponse(t, conn)
	assert.Empty(t, resp.ID)
	assert.Contains(t, resp.Error, "invalid message")
}

func TestBridgeServesRequestsConcurrently(t *testing.T) {
	submitter := &mockSubmitter{}
	submitter.On("SubmitEncodedBuffer", mock.Anything, mock.MatchedBy(func(in relay.BufferSubmission) bool {
		return in.Encoded == "slow"
	})).Return(model.Success("slow")).After(500 * time.Millisecond)
	submitter.On("SubmitEncodedBuffer", mock.Anything, mock.MatchedBy(func(in relay.BufferSubmission) bool {
		return in.Encoded == "fast"
	})).Return(model.Success("fast"))
	_, conn := dialBridge(t, submitter)

	require.NoError(t, conn.WriteJSON(Request{ID: "slow", Channel: ChannelMicrophone, Args: rawArgs(t, "slow")}))
	require.NoError(t, conn.WriteJSON(Request{ID: "fast", Channel: ChannelMicrophone, Args: rawArgs(t, "fast")}))

	first := readResponse(t, conn)
	second := readResponse(t, conn)
	assert.Equal(t, "fast", first.ID)
	assert.Equal(t, "fast", first.Result)
	assert.Equal(t, "slow", second.ID)
	assert.Equal(t, "slow", second.Result)
}

func TestBridgeClose(t *testing.T) {
	bridge, conn := dialBridge(t, &mockSubmitter{})

	// make sure the session is registered before closing
	require.NoError(t, conn.WriteJSON(Request{ID: "x", Channel: "nope"}))
	readResponse(t, conn)

	bridge.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}

func TestBridgeRejectsConnectionsAfterClose(t *testing.T) {
	bridge := NewBridge(NewDispatcher(&mockSubmitter{}, nil), 1<<20, nil)
	server := httptest.NewServer(bridge)
	t.Cleanup(server.Close)

	bridge.Close()

	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestBridgeRegisterAfterClose(t *testing.T) {
	bridge := NewBridge(NewDispatcher(&mockSubmitter{}, nil), 1<<20, nil)

	newSession := func() *session {
		ctx, cancel := context.WithCancel(context.Background())
		return &session{done: make(chan struct{}), ctx: ctx, cancel: cancel}
	}

	early := newSession()
	require.True(t, bridge.register(early))

	bridge.Close()
	select {
	case <-early.done:
	default:
		t.Fatal("session registered before Close was not closed")
	}

	// an upgrade that finishes after Close must not slip into the session table
	late := newSession()
	assert.False(t, bridge.register(late))
	_, tracked := bridge.sessions[late]
	assert.False(t, tracked)
}

func TestResponseJSON(t *testing.T) {
	b, err := json.Marshal(Response{ID: "1", Result: ""})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"1","result":""}`, string(b))
}
