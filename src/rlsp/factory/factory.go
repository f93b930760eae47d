package factory

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid"
	rlspplugin "github.com/madbrain/recette-lsp/src/rlsp/entity/rlsp-plugin"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
)

// UUID is a user-defined factory for a random uuid.UUID.
func UUID() uuid.UUID {
	return uuid.Must(uuid.NewV4())
}

// JSONRPCRequest is a user-defined factory for a JSON-RPC call containing the specified method and parameters.
func JSONRPCRequest(method string, params interface{}) jsonrpc2.Request {
	req, _ := jsonrpc2.NewCall(jsonrpc2.NewNumberID(5), method, params)
	return req
}

// JSONRPCNotification builds a notification for the given method and parameters.
func JSONRPCNotification(method string, params interface{}) jsonrpc2.Request {
	req, _ := jsonrpc2.NewNotification(method, params)
	return req
}

// PluginInfoValid is a factory for PluginInfo that passes validation.
func PluginInfoValid(id int) rlspplugin.PluginInfo {
	sampleDidOpenFunc := func(ctx context.Context, params *protocol.DidOpenTextDocumentParams) error {
		return nil
	}
	return rlspplugin.PluginInfo{
		Priorities: map[string]rlspplugin.Priority{
			protocol.MethodTextDocumentDidOpen: rlspplugin.PriorityHigh,
		},
		Methods: &rlspplugin.Methods{
			PluginNameKey: fmt.Sprintf("test-plugin-%v", id),
			DidOpen:       sampleDidOpenFunc,
		},
		NameKey: fmt.Sprintf("test-plugin-%v", id),
	}
}

// PluginInfoInvalid is a factory for PluginInfo that fails validation.
func PluginInfoInvalid(id int) rlspplugin.PluginInfo {
	return rlspplugin.PluginInfo{
		Priorities: map[string]rlspplugin.Priority{
			protocol.MethodTextDocumentDidOpen: rlspplugin.PriorityHigh,
		},
		Methods: &rlspplugin.Methods{},
		NameKey: fmt.Sprintf("test-plugin-%v", id),
	}
}
