package app

import (
	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"whisper-relay/internal/api/server"
	"whisper-relay/internal/app/api"
	"whisper-relay/internal/app/api/openai/whisper"
	"whisper-relay/internal/app/batch"
	"whisper-relay/internal/app/logging"
	"whisper-relay/internal/app/relay"
	"whisper-relay/internal/app/storage/transient"
	"whisper-relay/internal/config"
	"whisper-relay/internal/ipc"
)

// relaySet builds the submission path shared by the server and the CLI
var relaySet = wire.NewSet(
	provideTranscriber,
	provideStore,
	provideRegistry,
	relay.NewMetrics,
	provideRelay,
	wire.Bind(new(prometheus.Registerer), new(*prometheus.Registry)),
	wire.Bind(new(relay.Submitter), new(*relay.Relay)),
)

// provideServerLogger builds the long-running service logger
func provideServerLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	logger, err := logging.NewLogger(!cfg.IsProduction())
	if err != nil {
		return nil, nil, err
	}
	return logger, func() { _ = logger.Sync() }, nil
}

// provideTranscriber with openai's remote service, the API key comes from cfg only
func provideTranscriber(cfg *config.Config, logger *zap.Logger) api.Transcriber {
	return whisper.NewRemoteTranscriber(whisper.ConfigFrom(cfg), logger)
}

func provideStore(cfg *config.Config, logger *zap.Logger) (*transient.Store, error) {
	return transient.NewStore(cfg.Relay.UploadsDir, logger)
}

func provideRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return registry
}

func provideRelay(cfg *config.Config, transcriber api.Transcriber, store *transient.Store, metrics *relay.Metrics, logger *zap.Logger) *relay.Relay {
	return relay.New(transcriber, store, metrics, logger, relay.OptionsFrom(cfg))
}

// provideBridge sizes inbound IPC messages for a base64 encoded upload
func provideBridge(cfg *config.Config, submitter relay.Submitter, logger *zap.Logger) *ipc.Bridge {
	maxMessage := int64(cfg.Server.MaxUploadMB) << 20 * 4 / 3
	return ipc.NewBridge(ipc.NewDispatcher(submitter, logger), maxMessage+64*1024, logger)
}

func provideServer(cfg *config.Config, submitter relay.Submitter, transcriber api.Transcriber, bridge *ipc.Bridge, registry *prometheus.Registry, logger *zap.Logger) *server.Server {
	return server.NewServer(server.ConfigFrom(cfg), submitter, transcriber, bridge, registry, logger)
}

func provideBatchRunner(submitter relay.Submitter, logger *zap.Logger) *batch.Runner {
	return batch.NewRunner(submitter, logger)
}
