//go:build wireinject
// +build wireinject

package di

import (
	"TradePulse/pkg/config"
	"TradePulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideRedisClient,

		// Repositories
		ProvideTickStorage,
		ProvideTickPublisher,
		ProvideBarStore,
		ProvideDecisionStore,
		ProvideDecisionPublisher,
		ProvideWeightStore,
		ProvidePendingStore,

		// Services
		ProvideMarketStream,
		ProvideVoteProviders,
		ProvideConsensusEngine,

		// Use cases
		ProvideTickProcessor,
		ProvideTickCollector,
		ProvideKafkaTicksHandler,
		ProvideAnalyzer,
		ProvideQueries,
		ProvideOutcomeTracker,
		ProvideRecalibrator,
		ProvideOutcomeQueue,

		// HTTP
		ProvideHTTPHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
