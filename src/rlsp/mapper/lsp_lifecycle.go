package mapper

import (
	stderr "errors"

	"github.com/madbrain/recette-lsp/src/rlsp/entity"
	"github.com/madbrain/recette-lsp/src/rlsp/internal/errors"
	"go.lsp.dev/jsonrpc2"
)

// ErrorToResponseError maps an error returned by the controller into the JSON-RPC error sent back to the client.
// Errors that already carry a JSON-RPC code are returned unchanged.
func ErrorToResponseError(err error) error {
	if err == nil {
		return nil
	}

	var rpcErr *jsonrpc2.Error
	if stderr.As(err, &rpcErr) {
		return err
	}

	var stateErr *errors.SessionStateError
	if stderr.As(err, &stateErr) {
		if stateErr.State == entity.SessionStateUninitialized.String() {
			return jsonrpc2.NewError(jsonrpc2.ServerNotInitialized, err.Error())
		}
		return jsonrpc2.NewError(jsonrpc2.InvalidRequest, err.Error())
	}

	if errors.IsBadRequest(err) {
		return jsonrpc2.NewError(jsonrpc2.InvalidParams, err.Error())
	}

	return jsonrpc2.NewError(jsonrpc2.InternalError, err.Error())
}
