//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
	"go.uber.org/zap"
	"whisper-relay/internal/api/server"
	"whisper-relay/internal/app/batch"
	"whisper-relay/internal/config"
)

// InitializeServer wires the HTTP and IPC front ends onto one relay
func InitializeServer(cfg *config.Config) (*server.Server, func(), error) {
	wire.Build(relaySet, provideServerLogger, provideBridge, provideServer)
	return nil, nil, nil
}

// InitializeBatchRunner wires the CLI batch runner with the caller's logger
func InitializeBatchRunner(cfg *config.Config, logger *zap.Logger) (*batch.Runner, error) {
	wire.Build(relaySet, provideBatchRunner)
	return nil, nil
}
