package api

import "context"

// Transcriber defines a transcription interface for converting audio files to text.
type Transcriber interface {
	// Transcribe sends the file at inputFilePath to the provider with a language hint.
	Transcribe(ctx context.Context, inputFilePath string, language string) (string, error)

	// ValidateConfiguration reports configuration problems without side effects.
	ValidateConfiguration() error
}
