// Package ipc exposes the desktop shell channel operations over a
// websocket request/response bridge.
package ipc

import (
	"context"
	"encoding/json"
	"sort"

	"go.uber.org/zap"
	apperrors "whisper-relay/internal/app/errors"
	"whisper-relay/internal/app/model"
	"whisper-relay/internal/app/relay"
)

const (
	// ChannelMicrophone takes (base64Audio, language) and always resolves to a string
	ChannelMicrophone = "process-microphone-audio"
	// ChannelFile takes ({buffer, fileName, language}) and rejects on failure
	ChannelFile = "process-audio-file"

	// errorPrefix marks failures on the microphone channel, whose contract is string only
	errorPrefix = "Error: "
)

// ErrInvalidFileData is returned when process-audio-file gets a malformed argument
var ErrInvalidFileData = apperrors.New(apperrors.KindValidation, "Invalid file data")

// FileData is the argument of process-audio-file
type FileData struct {
	Buffer   string `json:"buffer"`
	FileName string `json:"fileName"`
	Language string `json:"language"`
}

// HandlerFunc serves one channel
type HandlerFunc func(ctx context.Context, args []json.RawMessage) (interface{}, error)

// Dispatcher routes channel invocations to the relay
type Dispatcher struct {
	relay    relay.Submitter
	handlers map[string]HandlerFunc
	logger   *zap.Logger
}

// NewDispatcher creates a dispatcher with both audio channels registered
func NewDispatcher(submitter relay.Submitter, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Dispatcher{
		relay:  submitter,
		logger: logger,
	}
	d.handlers = map[string]HandlerFunc{
		ChannelMicrophone: d.processMicrophoneAudio,
		ChannelFile:       d.processAudioFile,
	}
	return d
}

// Channels lists the registered channel names
func (d *Dispatcher) Channels() []string {
	names := make([]string, 0, len(d.handlers))
	for name := range d.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invoke runs the handler registered for channel
func (d *Dispatcher) Invoke(ctx context.Context, channel string, args []json.RawMessage) (interface{}, error) {
	handler, ok := d.handlers[channel]
	if !ok {
		return nil, apperrors.Validationf("no handler registered for '%s'", channel)
	}
	return handler(ctx, args)
}

func (d *Dispatcher) processMicrophoneAudio(ctx context.Context, args []json.RawMessage) (interface{}, error) {
	result := d.relay.SubmitEncodedBuffer(ctx, relay.BufferSubmission{
		Encoded:  stringArg(args, 0),
		Language: stringArg(args, 1),
		Channel:  model.ChannelIPCMicrophone,
	})
	if result.Failed() {
		return errorPrefix + result.Message, nil
	}
	return result.Text, nil
}

func (d *Dispatcher) processAudioFile(ctx context.Context, args []json.RawMessage) (interface{}, error) {
	var data *FileData
	if len(args) > 0 {
		if err := json.Unmarshal(args[0], &data); err != nil {
			d.logger.Debug("malformed file data", zap.Error(err))
			data = nil
		}
	}
	if data == nil || data.Buffer == "" || data.FileName == "" {
		return nil, ErrInvalidFileData
	}

	result := d.relay.SubmitEncodedBuffer(ctx, relay.BufferSubmission{
		Encoded:    data.Buffer,
		OriginName: data.FileName,
		Language:   data.Language,
		Channel:    model.ChannelIPCFile,
	})
	if result.Failed() {
		return nil, result.Err()
	}
	return result.Text, nil
}

// stringArg returns args[i] as a string, or "" when missing or not a string
func stringArg(args []json.RawMessage, i int) string {
	if i >= len(args) {
		return ""
	}
	var s string
	if err := json.Unmarshal(args[i], &s); err != nil {
		return ""
	}
	return s
}
