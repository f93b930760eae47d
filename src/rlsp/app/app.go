// Package app assembles the recette language server.
package app

import (
	"context"
	"time"

	"github.com/madbrain/recette-lsp/src/rlsp/gateway"
	"github.com/madbrain/recette-lsp/src/rlsp/handler"
	"github.com/madbrain/recette-lsp/src/rlsp/internal/core"
	"github.com/madbrain/recette-lsp/src/rlsp/internal/fs"
	"github.com/madbrain/recette-lsp/src/rlsp/internal/jsonrpcfx"
	"github.com/madbrain/recette-lsp/src/rlsp/internal/serverinfofile"
	"github.com/uber-go/tally"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// Module defines the recette-lsp application module.
var Module = fx.Options(
	gateway.Module, // outbounds
	handler.Module, // inbounds
	jsonrpcfx.Module,
	fs.Module,
	serverinfofile.Module,
	core.ConfigModule,
	core.LoggerModule,
	fx.Provide(func(lc fx.Lifecycle) tally.Scope {
		rs, closer := tally.NewRootScope(tally.ScopeOptions{
			Tags: map[string]string{
				"service": "recette-lsp",
			},
		}, 1*time.Second)

		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return closer.Close()
			},
		})

		return rs
	}),
	fx.Decorate(decorateConfigProvider),
	fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
		return &fxevent.ZapLogger{Logger: logger}
	}),
)
