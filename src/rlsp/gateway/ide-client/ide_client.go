package ideclient

//go:generate mockgen -destination=ideclientmock/ide_client_mock.go -package=ideclientmock . Gateway

import (
	"context"
	"fmt"
	"sync"

	"github.com/gofrs/uuid"
	"github.com/madbrain/recette-lsp/src/rlsp/mapper"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/zap"
)

const _errSendToClient = "sending notification to IDE: %w"

// Gateway sends outbound notifications to the editor.
// The context of every call must carry a session UUID, which selects the connection to write to.
type Gateway interface {
	// RegisterClient starts routing notifications for the session to conn.
	RegisterClient(ctx context.Context, id uuid.UUID, conn *jsonrpc2.Conn) error
	// DeregisterClient stops routing notifications for the session.
	DeregisterClient(ctx context.Context, id uuid.UUID) error

	LogMessage(ctx context.Context, params *protocol.LogMessageParams) (err error)
	PublishDiagnostics(ctx context.Context, params *protocol.PublishDiagnosticsParams) (err error)
	ShowMessage(ctx context.Context, params *protocol.ShowMessageParams) (err error)
}

type client struct {
	protocol.Client
	conn jsonrpc2.Conn
}

// publishDiagnosticsParams is the wire form of protocol.PublishDiagnosticsParams.
// Version is always sent, so documents at version 0 are published as such.
type publishDiagnosticsParams struct {
	URI         protocol.DocumentURI  `json:"uri"`
	Version     uint32                `json:"version"`
	Diagnostics []protocol.Diagnostic `json:"diagnostics"`
}

type gateway struct {
	clients   map[uuid.UUID]*client
	clientsMu sync.Mutex
	logger    *zap.Logger
}

// New returns a Gateway for sending IDE notifications.
func New(logger *zap.Logger) Gateway {
	return &gateway{
		clients: make(map[uuid.UUID]*client),
		logger:  logger,
	}
}

func (g *gateway) RegisterClient(ctx context.Context, id uuid.UUID, conn *jsonrpc2.Conn) error {
	if conn == nil || *conn == nil {
		return fmt.Errorf("registering client %q: nil connection", id)
	}

	g.clientsMu.Lock()
	defer g.clientsMu.Unlock()

	g.clients[id] = &client{
		Client: protocol.ClientDispatcher(*conn, g.logger),
		conn:   *conn,
	}
	return nil
}

func (g *gateway) DeregisterClient(ctx context.Context, id uuid.UUID) error {
	g.clientsMu.Lock()
	defer g.clientsMu.Unlock()

	delete(g.clients, id)
	return nil
}

func (g *gateway) LogMessage(ctx context.Context, params *protocol.LogMessageParams) (err error) {
	c, err := g.getClient(ctx)
	if err != nil {
		return fmt.Errorf(_errSendToClient, err)
	}
	return c.LogMessage(ctx, params)
}

func (g *gateway) PublishDiagnostics(ctx context.Context, params *protocol.PublishDiagnosticsParams) (err error) {
	c, err := g.getClient(ctx)
	if err != nil {
		return fmt.Errorf(_errSendToClient, err)
	}

	diagnostics := params.Diagnostics
	if diagnostics == nil {
		diagnostics = []protocol.Diagnostic{}
	}
	return c.conn.Notify(ctx, protocol.MethodTextDocumentPublishDiagnostics, &publishDiagnosticsParams{
		URI:         params.URI,
		Version:     params.Version,
		Diagnostics: diagnostics,
	})
}

func (g *gateway) ShowMessage(ctx context.Context, params *protocol.ShowMessageParams) (err error) {
	c, err := g.getClient(ctx)
	if err != nil {
		return fmt.Errorf(_errSendToClient, err)
	}
	return c.ShowMessage(ctx, params)
}

func (g *gateway) getClient(ctx context.Context) (*client, error) {
	id, err := mapper.ContextToSessionUUID(ctx)
	if err != nil {
		return nil, err
	}

	g.clientsMu.Lock()
	defer g.clientsMu.Unlock()

	c, ok := g.clients[id]
	if !ok {
		return nil, fmt.Errorf("client with id %q not found", id)
	}
	return c, nil
}
