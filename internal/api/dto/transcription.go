package dto

import "mime/multipart"

// MicrophoneRequest is the body of POST /api/microphone
type MicrophoneRequest struct {
	// Audio is base64 encoded, optionally as a data URL
	Audio    string `json:"audio"`
	// Language is forwarded to the provider as is
	Language string `json:"language"`
}

// FileForm is the multipart form of POST /api/file
type FileForm struct {
	File     *multipart.FileHeader `form:"file"`
	Language string                `form:"language"`
}

// TranscriptionResponse is returned on success by both endpoints
type TranscriptionResponse struct {
	Transcription string `json:"transcription"`
}

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status           string `json:"status"`
	Timestamp        int64  `json:"timestamp"`
	APIKeyConfigured bool   `json:"api_key_configured"`
}
