// Package rlspdaemon implements the JSON-RPC handlers of the recette language server.
package rlspdaemon

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid"
	controller "github.com/madbrain/recette-lsp/src/rlsp/controller/rlsp-daemon"
	"github.com/madbrain/recette-lsp/src/rlsp/entity"
	"github.com/madbrain/recette-lsp/src/rlsp/internal/jsonrpcfx"
	"github.com/uber-go/tally"
	"go.lsp.dev/jsonrpc2"
	"go.uber.org/zap"
)

// Handler is the inbound surface of the server, tracking each editor connection.
type Handler = jsonrpcfx.ConnectionManager

type jsonRPCConnectionManager struct {
	ctrl   controller.Controller
	stats  tally.Scope
	logger *zap.SugaredLogger
}

// New constructs a new Handler and registers it with the JSON-RPC server.
func New(ctrl controller.Controller, jsonrpcmod jsonrpcfx.JSONRPCModule, stats tally.Scope, logger *zap.SugaredLogger) (Handler, error) {
	c := jsonRPCConnectionManager{
		ctrl:   ctrl,
		stats:  stats.SubScope("json_rpc"),
		logger: logger,
	}
	if err := jsonrpcmod.RegisterConnectionManager(&c); err != nil {
		return nil, fmt.Errorf("registering connection manager: %w", err)
	}

	return &c, nil
}

// NewConnection will store a new connection and return a router that includes its UUID.
func (c *jsonRPCConnectionManager) NewConnection(ctx context.Context, conn *jsonrpc2.Conn) (router jsonrpcfx.Router, err error) {
	id, err := c.ctrl.InitSession(ctx, conn)
	if err != nil {
		return nil, fmt.Errorf("error while creating new connection: %w", err)
	}
	c.stats.Counter("connections").Inc(1)

	r := jsonRPCRouter{
		rlspdaemon: c.ctrl,
		uuid:       id,
		stats:      c.stats,
		logger:     c.logger,
	}

	return &r, nil
}

// RemoveConnection cleans up a closed connection.
func (c *jsonRPCConnectionManager) RemoveConnection(ctx context.Context, id uuid.UUID) {
	// Ensure session is removed even if no Exit call has been received.
	ctx = context.WithValue(ctx, entity.SessionContextKey, id)
	if err := c.ctrl.EndSession(ctx, id); err != nil {
		c.logger.Errorf("ending session %s: %s", id, err)
	}
}
