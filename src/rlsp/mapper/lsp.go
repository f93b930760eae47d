package mapper

import (
	"encoding/json"
	"fmt"

	"github.com/madbrain/recette-lsp/src/rlsp/internal/errors"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
)

// RequestToInitializeParams maps the parameters from a jsconrpc2.Request into protocol.InitializeParams.
func RequestToInitializeParams(req jsonrpc2.Request) (*protocol.InitializeParams, error) {
	params := protocol.InitializeParams{}
	if err := unmarshalParams(req, &params); err != nil {
		return nil, err
	}
	return &params, nil
}

// RequestToInitializedParams maps the parameters from a jsconrpc2.Request into protocol.InitializedParams.
func RequestToInitializedParams(req jsonrpc2.Request) (*protocol.InitializedParams, error) {
	params := protocol.InitializedParams{}
	if err := unmarshalParams(req, &params); err != nil {
		return nil, err
	}
	return &params, nil
}

// RequestToDidOpenTextDocumentParams maps the parameters from a jsconrpc2.Request into protocol.DidOpenTextDocumentParams.
func RequestToDidOpenTextDocumentParams(req jsonrpc2.Request) (*protocol.DidOpenTextDocumentParams, error) {
	params := protocol.DidOpenTextDocumentParams{}
	if err := unmarshalParams(req, &params); err != nil {
		return nil, err
	}
	return &params, nil
}

// RequestToDidChangeTextDocumentParams maps the parameters from a jsconrpc2.Request into protocol.DidChangeTextDocumentParams.
// Content changes that carry a range are rejected, since only full document sync is advertised.
func RequestToDidChangeTextDocumentParams(req jsonrpc2.Request) (*protocol.DidChangeTextDocumentParams, error) {
	params := protocol.DidChangeTextDocumentParams{}
	if err := unmarshalParams(req, &params); err != nil {
		return nil, err
	}

	for _, change := range params.ContentChanges {
		if change.Range != nil || change.RangeLength != 0 {
			return nil, &errors.DocumentChangeRangedError{Document: params.TextDocument}
		}
	}
	return &params, nil
}

// RequestToDidCloseTextDocumentParams maps the parameters from a jsconrpc2.Request into protocol.DidCloseTextDocumentParams.
func RequestToDidCloseTextDocumentParams(req jsonrpc2.Request) (*protocol.DidCloseTextDocumentParams, error) {
	params := protocol.DidCloseTextDocumentParams{}
	if err := unmarshalParams(req, &params); err != nil {
		return nil, err
	}
	return &params, nil
}

// RequestToDidSaveTextDocumentParams maps the parameters from a jsconrpc2.Request into protocol.DidSaveTextDocumentParams.
func RequestToDidSaveTextDocumentParams(req jsonrpc2.Request) (*protocol.DidSaveTextDocumentParams, error) {
	params := protocol.DidSaveTextDocumentParams{}
	if err := unmarshalParams(req, &params); err != nil {
		return nil, err
	}
	return &params, nil
}

// unmarshalParams decodes request parameters, treating absent parameters as an empty object.
func unmarshalParams(req jsonrpc2.Request, v interface{}) error {
	raw := req.Params()
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return wrapErrParse(err)
	}
	return nil
}

func wrapErrParse(err error) error {
	return fmt.Errorf("%w: %w", jsonrpc2.ErrParse, err)
}
