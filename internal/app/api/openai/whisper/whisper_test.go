package whisper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "whisper-relay/internal/app/errors"
)

const testAPIKey = "sk-test-1234567890abcdef"

// mockProvider records what the relay sent and replies with a canned response
type mockProvider struct {
	server   *httptest.Server
	calls    atomic.Int32
	language atomic.Value
	model    atomic.Value
	auth     atomic.Value
	fileName atomic.Value
}

func newMockProvider(t *testing.T, status int, body string, delay time.Duration) *mockProvider {
	t.Helper()
	mp := &mockProvider{}
	mp.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mp.calls.Add(1)
		if r.URL.Path != "/v1/audio/transcriptions" || r.Method != http.MethodPost {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		file.Close()

		mp.fileName.Store(header.Filename)
		mp.language.Store(r.FormValue("language"))
		mp.model.Store(r.FormValue("model"))
		mp.auth.Store(r.Header.Get("Authorization"))

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(mp.server.Close)
	return mp
}

func (mp *mockProvider) transcriber(apiKey string, timeout time.Duration) *RemoteTranscriber {
	return NewRemoteTranscriber(Config{
		APIKey:  apiKey,
		BaseURL: mp.server.URL + "/v1",
		Timeout: timeout,
	}, nil)
}

func writeAudio(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("0123456789"), 0o600))
	return path
}

func TestRemoteTranscriber_Transcribe(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		expectedText  string
		expectedKind  apperrors.Kind
		expectedError string
	}{
		{
			name:         "successful transcription",
			status:       http.StatusOK,
			body:         `{"text": "bonjour"}`,
			expectedText: "bonjour",
		},
		{
			name:         "successful transcription with special characters",
			status:       http.StatusOK,
			body:         `{"text": "Hello, 世界! émojis 🎵"}`,
			expectedText: "Hello, 世界! émojis 🎵",
		},
		{
			name:         "unauthorized",
			status:       http.StatusUnauthorized,
			body:         `{"error": {"message": "Incorrect API key provided", "type": "invalid_request_error"}}`,
			expectedKind: apperrors.KindAuth,
		},
		{
			name:         "unauthorized without envelope",
			status:       http.StatusUnauthorized,
			body:         ``,
			expectedKind: apperrors.KindAuth,
		},
		{
			name:         "rate limited",
			status:       http.StatusTooManyRequests,
			body:         `{"error": {"message": "Rate limit reached", "type": "requests"}}`,
			expectedKind: apperrors.KindRateLimit,
		},
		{
			name:          "server error keeps upstream message",
			status:        http.StatusInternalServerError,
			body:          `{"error": {"message": "x"}}`,
			expectedKind:  apperrors.KindProvider,
			expectedError: "x",
		},
		{
			name:          "bad request keeps upstream message",
			status:        http.StatusBadRequest,
			body:          `{"error": {"message": "Invalid file format.", "type": "invalid_request_error"}}`,
			expectedKind:  apperrors.KindProvider,
			expectedError: "Invalid file format.",
		},
		{
			name:         "error without envelope",
			status:       http.StatusBadGateway,
			body:         `<html>bad gateway</html>`,
			expectedKind: apperrors.KindProvider,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mp := newMockProvider(t, tt.status, tt.body, 0)
			rt := mp.transcriber(testAPIKey, 5*time.Second)

			text, err := rt.Transcribe(context.Background(), writeAudio(t, "clip.wav"), "fr")

			assert.Equal(t, int32(1), mp.calls.Load(), "exactly one request per call")
			if tt.expectedKind == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.expectedText, text)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.expectedKind, apperrors.KindOf(err))
			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, err.Error())
			}
		})
	}
}

func TestRemoteTranscriber_RequestShape(t *testing.T) {
	mp := newMockProvider(t, http.StatusOK, `{"text": "ok"}`, 0)
	rt := mp.transcriber(testAPIKey, 5*time.Second)

	_, err := rt.Transcribe(context.Background(), writeAudio(t, "take.webm"), "de")
	require.NoError(t, err)

	assert.Equal(t, "Bearer "+testAPIKey, mp.auth.Load())
	assert.Equal(t, "whisper-1", mp.model.Load())
	assert.Equal(t, "de", mp.language.Load())
	assert.Equal(t, "take.webm", mp.fileName.Load())
}

func TestRemoteTranscriber_MissingAPIKey(t *testing.T) {
	mp := newMockProvider(t, http.StatusOK, `{"text": "never"}`, 0)
	rt := mp.transcriber("", 5*time.Second)

	assert.ErrorIs(t, rt.ValidateConfiguration(), apperrors.ErrMissingAPIKey)

	_, err := rt.Transcribe(context.Background(), writeAudio(t, "clip.mp3"), "en")
	assert.ErrorIs(t, err, apperrors.ErrMissingAPIKey)
	assert.Equal(t, apperrors.KindConfig, apperrors.KindOf(err))
	assert.Equal(t, int32(0), mp.calls.Load())
}

func TestRemoteTranscriber_MissingFile(t *testing.T) {
	mp := newMockProvider(t, http.StatusOK, `{"text": "never"}`, 0)
	rt := mp.transcriber(testAPIKey, 5*time.Second)

	_, err := rt.Transcribe(context.Background(), filepath.Join(t.TempDir(), "missing.mp3"), "en")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	assert.ErrorIs(t, err, apperrors.ErrFileNotFound)
	assert.Equal(t, int32(0), mp.calls.Load())
}

func TestRemoteTranscriber_Timeout(t *testing.T) {
	mp := newMockProvider(t, http.StatusOK, `{"text": "too late"}`, 2*time.Second)
	rt := mp.transcriber(testAPIKey, 100*time.Millisecond)

	_, err := rt.Transcribe(context.Background(), writeAudio(t, "clip.webm"), "en")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindProvider, apperrors.KindOf(err))
}

func TestRemoteTranscriber_ContextCanceled(t *testing.T) {
	mp := newMockProvider(t, http.StatusOK, `{"text": "too late"}`, 2*time.Second)
	rt := mp.transcriber(testAPIKey, 5*time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := rt.Transcribe(ctx, writeAudio(t, "clip.webm"), "en")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindProvider, apperrors.KindOf(err))
}

func TestClassifyStatus(t *testing.T) {
	assert.ErrorIs(t, classifyStatus(http.StatusUnauthorized, "nope"), apperrors.ErrUnauthorized)
	assert.ErrorIs(t, classifyStatus(http.StatusTooManyRequests, "slow down"), apperrors.ErrRateLimited)

	err := classifyStatus(http.StatusServiceUnavailable, "")
	assert.Equal(t, apperrors.KindProvider, apperrors.KindOf(err))
	assert.Contains(t, err.Error(), "503")
}
