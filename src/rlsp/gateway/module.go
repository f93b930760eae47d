package gateway

import (
	ideclient "github.com/madbrain/recette-lsp/src/rlsp/gateway/ide-client"
	"go.uber.org/fx"
)

// Module provides the outbound gateways.
var Module = fx.Options(
	fx.Provide(ideclient.New),
)
