package controller

import (
	"github.com/madbrain/recette-lsp/src/rlsp/controller/diagnostics"
	docsync "github.com/madbrain/recette-lsp/src/rlsp/controller/doc-sync"
	rlspdaemon "github.com/madbrain/recette-lsp/src/rlsp/controller/rlsp-daemon"
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(rlspdaemon.New),
	fx.Provide(diagnostics.New),
	fx.Provide(docsync.New),
)
