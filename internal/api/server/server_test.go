package server

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"whisper-relay/internal/app/relay"
	"whisper-relay/internal/app/storage/transient"
	"whisper-relay/internal/app/testutil"
	"whisper-relay/internal/config"
	"whisper-relay/internal/ipc"
)

func newTestServer(t *testing.T) (*Server, *testutil.MockTranscriber) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := transient.NewStore(filepath.Join(t.TempDir(), "uploads"), nil)
	require.NoError(t, err)
	transcriber := testutil.NewMockTranscriber()
	registry := prometheus.NewRegistry()
	r := relay.New(transcriber, store, relay.NewMetrics(registry), nil, relay.Options{})
	bridge := ipc.NewBridge(ipc.NewDispatcher(r, nil), 1<<20, nil)

	s := NewServer(Config{Address: "127.0.0.1:0", MaxUploadMB: 1}, r, transcriber, bridge, registry, zap.NewNop())
	return s, transcriber
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, true, body["api_key_configured"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRequestIDIsEchoed(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestCORSPreflight(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/microphone", nil)
	req.Header.Set("Origin", "http://localhost:8080")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "3600", rec.Header().Get("Access-Control-Max-Age"))
}

func TestMetricsEndpoint(t *testing.T) {
	s, transcriber := newTestServer(t)
	transcriber.ExpectTranscribe("", "ok", nil)

	body := `{"audio": "` + base64.StdEncoding.EncodeToString([]byte("audio")) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/microphone", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `relay_submissions_total{channel="http_microphone",outcome="success"} 1`)
}

func TestBodyLimit(t *testing.T) {
	s, _ := newTestServer(t)

	body := `{"audio": "` + strings.Repeat("A", 2<<20) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/microphone", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "request body exceeds")
}

func TestIPCRoute(t *testing.T) {
	s, transcriber := newTestServer(t)
	transcriber.ExpectTranscribe("ja", "konnichiwa", nil)

	httpServer := httptest.NewServer(s.Router())
	defer httpServer.Close()
	defer s.bridge.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(httpServer.URL, "http")+"/ipc", nil)
	require.NoError(t, err)
	defer conn.Close()

	args, err := json.Marshal(ipc.FileData{Buffer: "AAAA", FileName: "clip.webm", Language: "ja"})
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(ipc.Request{ID: "7", Channel: ipc.ChannelFile, Args: []json.RawMessage{args}}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var resp ipc.Response
	require.NoError(t, conn.ReadJSON(&resp))
	assert.Equal(t, "7", resp.ID)
	assert.Equal(t, "konnichiwa", resp.Result)
}

func TestSwaggerDocs(t *testing.T) {
	s, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/api/microphone")
	assert.Contains(t, rec.Body.String(), "/api/file")
}

func TestConfigFromUsesConfiguredAddress(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Host = "0.0.0.0"
	cfg.Server.Port = "8088"

	sc := ConfigFrom(cfg)
	assert.Equal(t, cfg.Address(), sc.Address)
	assert.Equal(t, "0.0.0.0:8088", NewServer(sc, nil, nil, nil, nil, zap.NewNop()).Addr())
}
