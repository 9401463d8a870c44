package whisper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	apperrors "whisper-relay/internal/app/errors"
	"whisper-relay/internal/config"
)

// Config represents configuration specific to the OpenAI Whisper provider
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// ConfigFrom extracts the provider settings from the relay configuration
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		APIKey:  cfg.OpenAI.APIKey,
		BaseURL: cfg.OpenAI.BaseURL,
		Model:   cfg.OpenAI.Model,
		Timeout: cfg.OpenAI.Timeout,
	}
}

// RemoteTranscriber implements remote transcription using the OpenAI API.
// Each call makes exactly one request; nothing is retried or cached.
type RemoteTranscriber struct {
	client *openai.Client
	config Config
	logger *zap.Logger
}

// NewRemoteTranscriber creates a new RemoteTranscriber instance.
func NewRemoteTranscriber(cfg Config, logger *zap.Logger) *RemoteTranscriber {
	if cfg.Model == "" {
		cfg.Model = openai.Whisper1
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = config.DefaultOpenAITimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	clientConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &RemoteTranscriber{
		client: openai.NewClientWithConfig(clientConfig),
		config: cfg,
		logger: logger,
	}
}

// ValidateConfiguration validates the provider configuration
func (rt *RemoteTranscriber) ValidateConfiguration() error {
	if rt.config.APIKey == "" {
		return apperrors.ErrMissingAPIKey
	}
	return nil
}

// Transcribe uses the OpenAI API for remote transcription.
func (rt *RemoteTranscriber) Transcribe(ctx context.Context, inputFilePath string, language string) (string, error) {
	if err := rt.ValidateConfiguration(); err != nil {
		return "", err
	}

	info, err := os.Stat(inputFilePath)
	if err != nil {
		if os.IsNotExist(err) {
			rt.logger.Warn("Audio file missing", zap.String("path", inputFilePath))
			return "", apperrors.Wrap(apperrors.KindValidation, apperrors.ErrFileNotFound, "audio file does not exist")
		}
		return "", apperrors.Wrap(apperrors.KindStorage, err, "failed to stat audio file")
	}

	rt.logger.Info("Sending file to Whisper",
		zap.String("path", inputFilePath),
		zap.Int64("bytes", info.Size()),
		zap.String("language", language),
	)

	req := openai.AudioRequest{
		Model:    rt.config.Model,
		FilePath: inputFilePath,
		Language: language,
		Format:   openai.AudioResponseFormatJSON,
	}
	resp, err := rt.client.CreateTranscription(ctx, req)
	if err != nil {
		rt.logger.Error("OpenAI Whisper API error", zap.Error(err))
		return "", rt.handleAPIError(err)
	}

	rt.logger.Debug("Transcription successful", zap.Int("chars", len(resp.Text)))
	return resp.Text, nil
}

// handleAPIError converts OpenAI client errors into the relay's error kinds
func (rt *RemoteTranscriber) handleAPIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.HTTPStatusCode, apiErr.Message)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return classifyStatus(reqErr.HTTPStatusCode, reqErr.Error())
	}

	return apperrors.Wrap(apperrors.KindProvider, err, "failed to transcribe audio")
}

func classifyStatus(status int, message string) error {
	switch status {
	case http.StatusUnauthorized:
		return apperrors.ErrUnauthorized
	case http.StatusTooManyRequests:
		return apperrors.ErrRateLimited
	}
	if message == "" {
		message = fmt.Sprintf("OpenAI API returned status %d", status)
	}
	return apperrors.Provider(message)
}
