// Package relay turns audio submissions from any front end into exactly one
// provider call, staging the audio in a temporary file for the duration.
package relay

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"whisper-relay/internal/app/api"
	apperrors "whisper-relay/internal/app/errors"
	"whisper-relay/internal/app/model"
	"whisper-relay/internal/app/storage/transient"
	"whisper-relay/internal/config"
)

// Options holds the relay behavior switches
type Options struct {
	// DefaultLanguage is sent when a submission carries no language
	DefaultLanguage string
	// StrictBufferMIME rejects encoded buffers whose content sniffs as non-media
	StrictBufferMIME bool
}

// OptionsFrom extracts the relay options from the loaded configuration
func OptionsFrom(cfg *config.Config) Options {
	return Options{
		DefaultLanguage:  cfg.Relay.DefaultLanguage,
		StrictBufferMIME: cfg.Relay.StrictBufferMIME,
	}
}

// FileSubmission is raw audio with a declared content type, as received by
// multipart uploads and file picker bridges.
type FileSubmission struct {
	Data       []byte
	MimeType   string
	OriginName string
	Language   string
	Channel    model.Channel
}

// BufferSubmission is base64 encoded audio, as recorded by a microphone
type BufferSubmission struct {
	Encoded    string
	OriginName string
	Language   string
	Channel    model.Channel
}

// Submitter is the relay surface used by the transport front ends
type Submitter interface {
	SubmitFile(ctx context.Context, in FileSubmission) model.TranscriptionResult
	SubmitEncodedBuffer(ctx context.Context, in BufferSubmission) model.TranscriptionResult
}

// Stager holds audio in a temporary file while fn runs and removes it afterwards
type Stager interface {
	With(ctx context.Context, data []byte, preferredName string, fn func(path string) error) error
}

// Relay validates submissions and forwards them to the transcriber
type Relay struct {
	transcriber api.Transcriber
	store       Stager
	metrics     *Metrics
	logger      *zap.Logger
	opts        Options
}

// New creates a relay. metrics and logger may be nil.
func New(transcriber api.Transcriber, store Stager, metrics *Metrics, logger *zap.Logger, opts Options) *Relay {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.DefaultLanguage == "" {
		opts.DefaultLanguage = config.DefaultLanguage
	}
	return &Relay{
		transcriber: transcriber,
		store:       store,
		metrics:     metrics,
		logger:      logger,
		opts:        opts,
	}
}

// SubmitFile transcribes raw audio whose declared MIME type must be on the
// allow-list. Input is validated before the provider configuration is
// checked. The result is never partially successful.
func (r *Relay) SubmitFile(ctx context.Context, in FileSubmission) model.TranscriptionResult {
	sub := model.AudioSubmission{
		Data:       in.Data,
		MimeType:   NormalizeMIME(in.MimeType),
		Language:   r.language(in.Language),
		OriginName: in.OriginName,
		Channel:    channelOr(in.Channel, model.ChannelHTTPFile),
	}

	text, err := r.submitFile(ctx, &sub)
	return r.finish(&sub, text, err)
}

// SubmitEncodedBuffer decodes base64 audio and transcribes it. When
// OriginName is set it becomes the temporary file's base name.
func (r *Relay) SubmitEncodedBuffer(ctx context.Context, in BufferSubmission) model.TranscriptionResult {
	sub := model.AudioSubmission{
		Language:   r.language(in.Language),
		OriginName: in.OriginName,
		Channel:    channelOr(in.Channel, model.ChannelHTTPMicrophone),
	}

	text, err := r.submitBuffer(ctx, &sub, in.Encoded)
	return r.finish(&sub, text, err)
}

func (r *Relay) submitFile(ctx context.Context, sub *model.AudioSubmission) (string, error) {
	if len(sub.Data) == 0 {
		return "", apperrors.ErrEmptyAudio
	}
	if !IsAllowedMIME(sub.MimeType) {
		return "", apperrors.Wrapf(apperrors.KindValidation, apperrors.ErrUnsupportedMedia,
			"invalid file type %q, please upload an audio or video file (MP3, WAV, WebM, OGG, MP4, AVI, MOV)", sub.MimeType)
	}
	if err := r.transcriber.ValidateConfiguration(); err != nil {
		return "", err
	}
	return r.transcribe(ctx, sub, "")
}

func (r *Relay) submitBuffer(ctx context.Context, sub *model.AudioSubmission, encoded string) (string, error) {
	if strings.TrimSpace(encoded) == "" {
		return "", apperrors.ErrEmptyAudio
	}

	data, declared, err := DecodeAudio(encoded)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", apperrors.ErrEmptyAudio
	}
	sub.Data = data
	sub.MimeType = declared

	if r.opts.StrictBufferMIME {
		sniffed, ok := acceptSniffed(data)
		if !ok {
			return "", apperrors.Wrapf(apperrors.KindValidation, apperrors.ErrUnsupportedMedia,
				"recorded audio looks like %s", sniffed)
		}
		if sub.MimeType == "" {
			sub.MimeType = sniffed
		}
	}
	if sub.OriginName != "" {
		if err := transient.ValidateName(sub.OriginName); err != nil {
			return "", err
		}
	}
	if err := r.transcriber.ValidateConfiguration(); err != nil {
		return "", err
	}

	return r.transcribe(ctx, sub, sub.OriginName)
}

// transcribe stages the audio and makes the single provider call. The
// temporary file is gone by the time it returns.
func (r *Relay) transcribe(ctx context.Context, sub *model.AudioSubmission, preferredName string) (string, error) {
	var text string
	err := r.store.With(ctx, sub.Data, preferredName, func(path string) error {
		start := time.Now()
		var terr error
		text, terr = r.transcriber.Transcribe(ctx, path, sub.Language)
		r.metrics.observeProvider(time.Since(start), terr != nil)
		return terr
	})
	return text, err
}

func (r *Relay) finish(sub *model.AudioSubmission, text string, err error) model.TranscriptionResult {
	var result model.TranscriptionResult
	if err != nil {
		result = model.Failure(err)
		log := r.logger.Warn
		if result.ErrorKind != apperrors.KindValidation {
			log = r.logger.Error
		}
		log("transcription failed",
			zap.String("channel", string(sub.Channel)),
			zap.String("kind", string(result.ErrorKind)),
			zap.String("origin", sub.OriginName),
			zap.Error(err),
		)
	} else {
		result = model.Success(text)
		r.logger.Info("transcription completed",
			zap.String("channel", string(sub.Channel)),
			zap.String("language", sub.Language),
			zap.Int("bytes", len(sub.Data)),
			zap.Int("chars", len(text)),
		)
	}
	r.metrics.recordSubmission(sub.Channel, result)
	return result
}

func (r *Relay) language(lang string) string {
	if lang = strings.TrimSpace(lang); lang != "" {
		return lang
	}
	return r.opts.DefaultLanguage
}

var (
	_ Submitter = (*Relay)(nil)
	_ Stager    = (*transient.Store)(nil)
)

func channelOr(c, fallback model.Channel) model.Channel {
	if c == "" {
		return fallback
	}
	return c
}
