package handler

import (
	controller "github.com/madbrain/recette-lsp/src/rlsp/controller"
	rlspdaemon "github.com/madbrain/recette-lsp/src/rlsp/controller/rlsp-daemon"
	handler "github.com/madbrain/recette-lsp/src/rlsp/handler/rlsp-daemon"
	"github.com/madbrain/recette-lsp/src/rlsp/repository/session"
	"go.uber.org/fx"
)

// Module provides the rlsp-daemon server into an Fx application.
var Module = fx.Options(
	controller.Module,
	fx.Provide(session.New),
	fx.Provide(handler.New),
	fx.Invoke(func(m handler.Handler) {}),
	fx.Invoke(func(m rlspdaemon.Controller) {}),
)
