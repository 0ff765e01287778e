//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/crowdnav/internal/config"
	"github.com/zeusync/crowdnav/internal/navigator"
)

func InitializeNavmesh(cfg config.Config) (*navigator.Navmesh, error) {
	wire.Build(NavmeshSet)
	return nil, nil
}
