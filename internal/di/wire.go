//go:build wireinject
// +build wireinject

package di

import (
	"SwingDesk/pkg/config"
	"SwingDesk/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,
		ProvideCache,
		ProvideLimiter,
		ProvideTradingCalendar,

		// Market data
		ProvideCandleChain,
		ProvideSnapshotSource,

		// Engine and use cases
		ProvideAnalyzer,
		ProvideScanner,
		ProvideDecisionSink,
		ProvideAccounts,
		ProvideHub,
		ProvideBoardService,
		ProvideRefresher,

		// Transport
		ProvideBoardHandler,
		ProvideHTTPServer,
		ProvideKafkaConsumer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
