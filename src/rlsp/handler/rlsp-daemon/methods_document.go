package rlspdaemon

import (
	"context"

	"github.com/madbrain/recette-lsp/src/rlsp/mapper"
	"go.lsp.dev/jsonrpc2"
)

// DidOpen is sent from the client to the server when a document is opened in the editor.
func (r *jsonRPCRouter) DidOpen(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	params, err := mapper.RequestToDidOpenTextDocumentParams(req)
	if err != nil {
		return reply(ctx, nil, err)
	}

	err = r.rlspdaemon.DidOpen(ctx, params)
	return reply(ctx, nil, err)
}

// DidChange carries the full new content of a document after each edit.
func (r *jsonRPCRouter) DidChange(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	params, err := mapper.RequestToDidChangeTextDocumentParams(req)
	if err != nil {
		return reply(ctx, nil, err)
	}

	err = r.rlspdaemon.DidChange(ctx, params)
	return reply(ctx, nil, err)
}

// DidClose is sent from the client to the server when the document got closed in the client.
func (r *jsonRPCRouter) DidClose(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	params, err := mapper.RequestToDidCloseTextDocumentParams(req)
	if err != nil {
		return reply(ctx, nil, err)
	}

	err = r.rlspdaemon.DidClose(ctx, params)
	return reply(ctx, nil, err)
}

func (r *jsonRPCRouter) DidSave(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	params, err := mapper.RequestToDidSaveTextDocumentParams(req)
	if err != nil {
		return reply(ctx, nil, err)
	}

	err = r.rlspdaemon.DidSave(ctx, params)
	return reply(ctx, nil, err)
}
