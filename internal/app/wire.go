//go:build wireinject

package app

import (
	"context"

	"keel/internal/config"

	"github.com/google/wire"
)

func buildAppWithWire(ctx context.Context, cfg *config.Config) (*App, error) {
	panic(wire.Build(
		provideAppBuilder,
		provideAppFromBuilder,
	))
}
