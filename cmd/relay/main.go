package main

import (
	"whisper-relay/cmd/relay/cmd"
)

// @title Whisper Relay API
// @version 0.1.0
// @description Relays recorded or uploaded audio to OpenAI Whisper and returns the transcript.
// @host localhost:5000
// @BasePath /
func main() {
	// Execute the CLI command
	cmd.Execute()
}
