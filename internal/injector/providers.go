package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/crowdnav/internal/config"
	"github.com/zeusync/crowdnav/internal/core/events/bus"
	"github.com/zeusync/crowdnav/internal/core/navigation"
	"github.com/zeusync/crowdnav/internal/core/navigation/reference"
	"github.com/zeusync/crowdnav/internal/core/observability/log"
	"github.com/zeusync/crowdnav/internal/navigator"
)

// NavmeshSet wires a Navmesh over the reference engine.
var NavmeshSet = wire.NewSet(
	ProvideLogger,
	ProvideEvents,
	ProvideEngine,
	wire.Bind(new(navigation.Engine), new(*reference.Engine)),
	ProvideOptions,
	ProvideNavmesh,
)

func ProvideLogger(cfg config.Config) (log.Log, error) {
	if cfg.LogLevel() == log.LevelSilent {
		return log.Nop(), nil
	}
	return log.Build(cfg.LoggerOptions())
}

func ProvideEvents() bus.EventBus {
	return bus.New()
}

func ProvideEngine(logger log.Log) *reference.Engine {
	return reference.New(logger)
}

func ProvideOptions(cfg config.Config, logger log.Log, events bus.EventBus) navigator.Options {
	return navigator.Options{
		Settings:    cfg.BuildSettings(),
		PathWorkers: cfg.Paths.Workers,
		Logger:      logger,
		Events:      events,
	}
}

func ProvideNavmesh(engine navigation.Engine, opts navigator.Options, cfg config.Config) *navigator.Navmesh {
	nm := navigator.New(engine, opts)
	nm.Journal().SetLevel(cfg.JournalLevel())
	return nm
}
