//go:build wireinject
// +build wireinject

package wire

import (
	"context"

	"github.com/google/wire"

	"github.com/sevigo/constraint-warden/internal/app"
)

// InitializeApp builds the application from configuration at configPath.
func InitializeApp(ctx context.Context, configPath string) (*app.App, func(), error) {
	wire.Build(AppSet)
	return &app.App{}, nil, nil
}
