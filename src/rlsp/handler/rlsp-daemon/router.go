package rlspdaemon

import (
	"context"

	"github.com/gofrs/uuid"
	controller "github.com/madbrain/recette-lsp/src/rlsp/controller/rlsp-daemon"
	"github.com/madbrain/recette-lsp/src/rlsp/entity"
	"github.com/madbrain/recette-lsp/src/rlsp/mapper"
	"github.com/uber-go/tally"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/zap"
)

type jsonRPCRouter struct {
	rlspdaemon controller.Controller
	uuid       uuid.UUID
	stats      tally.Scope
	logger     *zap.SugaredLogger
}

// HandleReq handles routing for a single request.
func (r *jsonRPCRouter) HandleReq(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	ctx = context.WithValue(ctx, entity.SessionContextKey, r.uuid)

	// Replies carry protocol errors, whatever the controller returned.
	reply = responseErrorReplier(reply)

	switch req.Method() {
	// Lifecycle related methods.
	case protocol.MethodInitialize:
		return r.Initialize(ctx, reply, req)

	case protocol.MethodInitialized:
		return r.Initialized(ctx, reply, req)

	case protocol.MethodShutdown:
		return r.Shutdown(ctx, reply, req)

	case protocol.MethodExit:
		return r.Exit(ctx, reply, req)

	// Document related methods.
	case protocol.MethodTextDocumentDidOpen:
		return r.DidOpen(ctx, reply, req)

	case protocol.MethodTextDocumentDidChange:
		return r.DidChange(ctx, reply, req)

	case protocol.MethodTextDocumentDidClose:
		return r.DidClose(ctx, reply, req)

	case protocol.MethodTextDocumentDidSave:
		return r.DidSave(ctx, reply, req)

	default:
		return jsonrpc2.MethodNotFoundHandler(ctx, reply, req)
	}
}

func (r *jsonRPCRouter) UUID() uuid.UUID {
	return r.uuid
}

func responseErrorReplier(reply jsonrpc2.Replier) jsonrpc2.Replier {
	return func(ctx context.Context, result interface{}, err error) error {
		return reply(ctx, result, mapper.ErrorToResponseError(err))
	}
}
