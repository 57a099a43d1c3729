package app

// Providers live outside the wireinject/!wireinject split so the wire
// tool can resolve them when regenerating wire_gen.go.

import (
	"context"

	"keel/internal/config"
)

func provideAppBuilder(cfg *config.Config) *AppBuilder {
	return NewAppBuilder(cfg)
}

func provideAppFromBuilder(b *AppBuilder, ctx context.Context) (*App, error) {
	return b.Build(ctx)
}
