package model

import (
	stderrors "errors"

	apperrors "whisper-relay/internal/app/errors"
)

// Channel identifies the entry point a submission arrived through
type Channel string

const (
	ChannelHTTPFile       Channel = "http_file"
	ChannelHTTPMicrophone Channel = "http_microphone"
	ChannelIPCFile        Channel = "ipc_file"
	ChannelIPCMicrophone  Channel = "ipc_microphone"
	ChannelCLI            Channel = "cli"
)

// AudioSubmission is the normalized unit of work, owned by the relay for
// the duration of one request.
type AudioSubmission struct {
	Data       []byte
	MimeType   string
	Language   string
	OriginName string
	Channel    Channel
}

// TranscriptionResult is either a transcript or a classified failure
type TranscriptionResult struct {
	Text      string         `json:"text,omitempty"`
	ErrorKind apperrors.Kind `json:"error_kind,omitempty"`
	Message   string         `json:"message,omitempty"`
}

// Success builds a successful result
func Success(text string) TranscriptionResult {
	return TranscriptionResult{Text: text}
}

// Failure builds a failed result from err. Storage failures keep only their
// own message since the cause names paths on the relay host.
func Failure(err error) TranscriptionResult {
	kind := apperrors.KindOf(err)
	message := err.Error()
	var appErr *apperrors.Error
	if kind == apperrors.KindStorage && stderrors.As(err, &appErr) {
		message = appErr.Message()
	}
	return TranscriptionResult{
		ErrorKind: kind,
		Message:   message,
	}
}

// Failed reports whether the result carries an error
func (r TranscriptionResult) Failed() bool {
	return r.ErrorKind != ""
}

// Err rebuilds the typed error of a failed result, nil on success
func (r TranscriptionResult) Err() error {
	if !r.Failed() {
		return nil
	}
	return apperrors.New(r.ErrorKind, r.Message)
}
