package app

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"whisper-relay/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	cfg := config.Default()
	cfg.Relay.UploadsDir = filepath.Join(t.TempDir(), "uploads")
	return cfg
}

func TestInitializeServer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv, cleanup, err := InitializeServer(testConfig(t))
	require.NoError(t, err)
	defer cleanup()

	for _, path := range []string{"/health", "/metrics"} {
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
	assert.Equal(t, "localhost:5000", srv.Addr())
}

func TestInitializeServerWithoutAPIKeyStillServes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv, cleanup, err := InitializeServer(testConfig(t))
	require.NoError(t, err)
	defer cleanup()

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Contains(t, rec.Body.String(), `"api_key_configured":false`)
}

func TestInitializeBatchRunner(t *testing.T) {
	runner, err := InitializeBatchRunner(testConfig(t), zap.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, runner)
}
