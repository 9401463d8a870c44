package testutil

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
)

// MockTranscriber is a testify mock of api.Transcriber that also records
// what the temporary file held at the moment Transcribe was called.
type MockTranscriber struct {
	mock.Mock
	mu sync.RWMutex

	// ConfigErr is returned by ValidateConfiguration
	ConfigErr error

	calls []TranscriptionCall
}

// TranscriptionCall represents a single transcription call for tracking
type TranscriptionCall struct {
	InputFilePath string
	Language      string
	Data          []byte
	FileExisted   bool
	Timestamp     time.Time
}

// NewMockTranscriber creates a MockTranscriber with a valid configuration
func NewMockTranscriber() *MockTranscriber {
	return &MockTranscriber{}
}

// Transcribe implements api.Transcriber
func (m *MockTranscriber) Transcribe(ctx context.Context, inputFilePath string, language string) (string, error) {
	data, err := os.ReadFile(inputFilePath)

	m.mu.Lock()
	m.calls = append(m.calls, TranscriptionCall{
		InputFilePath: inputFilePath,
		Language:      language,
		Data:          data,
		FileExisted:   err == nil,
		Timestamp:     time.Now(),
	})
	m.mu.Unlock()

	args := m.Called(ctx, inputFilePath, language)
	return args.String(0), args.Error(1)
}

// ValidateConfiguration implements api.Transcriber
func (m *MockTranscriber) ValidateConfiguration() error {
	return m.ConfigErr
}

// ExpectTranscribe sets up a response for any path and the given language.
// An empty language matches any.
func (m *MockTranscriber) ExpectTranscribe(language, text string, err error) *mock.Call {
	lang := interface{}(language)
	if language == "" {
		lang = mock.Anything
	}
	return m.On("Transcribe", mock.Anything, mock.Anything, lang).Return(text, err)
}

// Recorded returns a copy of the recorded calls
func (m *MockTranscriber) Recorded() []TranscriptionCall {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]TranscriptionCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns the number of Transcribe calls
func (m *MockTranscriber) CallCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.calls)
}
