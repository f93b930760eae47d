package jsonrpcfx

//go:generate mockgen -destination=jsonrpcfxmock/json_rpc_mock.go -package=jsonrpcfxmock . JSONRPCModule,Router,ConnectionManager

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"

	"github.com/gofrs/uuid"
	"github.com/madbrain/recette-lsp/src/rlsp/internal/serverinfofile"
	"go.lsp.dev/jsonrpc2"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	// ConfigKeyTransport selects how editors reach the server.
	ConfigKeyTransport = "jsonrpc.transport"

	// TransportStdio serves a single editor over the process standard streams.
	TransportStdio = "stdio"
	// TransportTCP serves any number of editors on a TCP address.
	TransportTCP = "tcp"

	_configKeyAddress = "jsonrpc.address"
	_outputKey        = "lsp-address"
)

// Module is an fx module to handle JSON-RPC requests.
var Module = fx.Provide(New)

// JSONRPCModule represents a module to manage JSON-RPC requests.
type JSONRPCModule interface {
	OnStart(ctx context.Context) error
	OnStop(ctx context.Context) error
	ServeStream(ctx context.Context, conn jsonrpc2.Conn) error
	RegisterConnectionManager(connectionManager ConnectionManager) error
}

// Router serves as the interface through which handling of requests will be implemented.
type Router interface {
	HandleReq(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error
	UUID() uuid.UUID
}

// ConnectionManager will manage each active connection and its corresponding Router throughout the lifecycle of a connection.
type ConnectionManager interface {
	NewConnection(ctx context.Context, conn *jsonrpc2.Conn) (router Router, err error)
	RemoveConnection(ctx context.Context, id uuid.UUID)
}

type module struct {
	Transport string `json:"transport"`
	Address   string `json:"address"`

	connectionMgr  ConnectionManager
	ln             net.Listener
	logger         *zap.SugaredLogger
	serverInfoFile serverinfofile.ServerInfoFile
	shutdowner     fx.Shutdowner

	stdin  io.ReadCloser
	stdout io.WriteCloser

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Params define values to be used by JsonRpcHandler.
type Params struct {
	fx.In

	Config         config.Provider
	Lifecycle      fx.Lifecycle
	Logger         *zap.SugaredLogger
	ServerInfoFile serverinfofile.ServerInfoFile
	Shutdowner     fx.Shutdowner
}

// New creates a new server to handle JSON-RPC requests, either on stdio or on the configured TCP address.
func New(p Params) (JSONRPCModule, error) {
	if p.Lifecycle == nil || p.Config == nil {
		return nil, errors.New("required parameters are missing")
	}

	m := module{
		logger:         p.Logger,
		serverInfoFile: p.ServerInfoFile,
		shutdowner:     p.Shutdowner,
		stdin:          os.Stdin,
		stdout:         os.Stdout,
	}

	if err := m.processConfig(p.Config); err != nil {
		return nil, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStart: m.OnStart,
		OnStop:  m.OnStop,
	})

	return &m, nil
}

// OnStart will initialize a JSON-RPC handler and then begin handling incoming connections.
func (m *module) OnStart(ctx context.Context) error {
	serveCtx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel

	if m.Transport == TransportStdio {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			m.startStdio(serveCtx)
		}()
		return nil
	}

	if err := m.setup(); err != nil {
		cancel()
		return err
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.startTCP(serveCtx)
	}()
	return nil
}

// OnStop stops accepting connections and waits for the serving loop to return.
func (m *module) OnStop(ctx context.Context) error {
	if m.cancel != nil {
		m.cancel()
	}

	var err error
	if m.ln != nil {
		if closeErr := m.ln.Close(); closeErr != nil && !errors.Is(closeErr, net.ErrClosed) {
			err = closeErr
		}
	}
	if m.Transport == TransportStdio && m.stdin != nil {
		// Unblocks the pending read of the stdio stream.
		m.stdin.Close()
	}

	m.wg.Wait()
	return err
}

// ServeStream is called when a new connection is initiated. Requests received via the connection will be routed to the handler, and answered via the connection's replier.
func (m *module) ServeStream(ctx context.Context, conn jsonrpc2.Conn) error {
	if m.connectionMgr == nil {
		m.logger.Errorf("cannot serve connection, no connection manager set")
		return errors.New("cannot serve connection, no connection manager set")
	}

	// Start handling the connection.
	handler, err := m.connectionMgr.NewConnection(ctx, &conn)
	if err != nil {
		return err
	}
	m.logger.Infow("client connected", zap.Stringer("uuid", handler.UUID()))
	conn.Go(ctx, handler.HandleReq)

	// Block until the connection is closed by either side.
	<-conn.Done()

	// Cleanup after connection.
	m.connectionMgr.RemoveConnection(ctx, handler.UUID())
	m.logger.Infow("client disconnected", zap.Stringer("uuid", handler.UUID()))

	return conn.Err()
}

// RegisterConnectionManager sets the connection manager, which keeps track of current active connections and provides a Router implementation.
func (m *module) RegisterConnectionManager(connectionMgr ConnectionManager) error {
	if m.connectionMgr != nil {
		return errors.New("cannot register a duplicate connection manager")
	}
	m.connectionMgr = connectionMgr
	return nil
}

// setup should be called after creation of a new handler to set initial values.
func (m *module) setup() error {
	if m.Address == "" {
		return errors.New("setup called before address is set")
	}

	ln, err := net.Listen("tcp", m.Address)
	if err != nil {
		return err
	}
	m.ln = ln
	return nil
}

// startTCP serves connections until the listener is closed.
func (m *module) startTCP(ctx context.Context) {
	address := m.ln.Addr().String()
	if err := m.serverInfoFile.UpdateField(_outputKey, address); err != nil {
		m.logger.Errorf("saving server info: %s", err)
	}

	m.logger.Infow("started JSON-RPC inbound", zap.String("transport", TransportTCP), zap.String("address", address))
	if err := jsonrpc2.Serve(ctx, m.ln, m, 0); err != nil && ctx.Err() == nil {
		m.logger.Errorw("JSON-RPC inbound stopped", zap.Error(err))
		m.requestShutdown()
	}
}

// startStdio serves the single editor connected to the process and stops the process once it is gone.
func (m *module) startStdio(ctx context.Context) {
	m.logger.Infow("started JSON-RPC inbound", zap.String("transport", TransportStdio))

	conn := jsonrpc2.NewConn(jsonrpc2.NewStream(&stdioReadWriteCloser{in: m.stdin, out: m.stdout}))
	if err := m.ServeStream(ctx, conn); err != nil && !errors.Is(err, io.EOF) && ctx.Err() == nil {
		m.logger.Errorw("stdio connection closed with error", zap.Error(err))
	}

	if ctx.Err() == nil {
		m.requestShutdown()
	}
}

func (m *module) requestShutdown() {
	if m.shutdowner == nil {
		return
	}
	if err := m.shutdowner.Shutdown(); err != nil {
		m.logger.Errorf("requesting shutdown: %s", err)
	}
}

// processConfig will parse the configuration for any values required by this module.
func (m *module) processConfig(cfg config.Provider) error {
	if err := cfg.Get(ConfigKeyTransport).Populate(&m.Transport); err != nil {
		return fmt.Errorf("getting config field %q: %w", ConfigKeyTransport, err)
	}

	switch m.Transport {
	case "":
		m.Transport = TransportStdio
		return nil
	case TransportStdio:
		return nil
	case TransportTCP:
	default:
		return fmt.Errorf("unsupported value %q for config field %q", m.Transport, ConfigKeyTransport)
	}

	val := cfg.Get(_configKeyAddress)
	if err := val.Populate(&m.Address); err != nil {
		// incorrectly formatted config
		return fmt.Errorf("getting config field %q: %w", _configKeyAddress, err)
	}

	if m.Address == "" {
		// yaml is missing either the key or value
		return fmt.Errorf("missing field %q in config", _configKeyAddress)
	}

	return nil
}

// stdioReadWriteCloser joins the standard streams into the single stream expected by jsonrpc2.
type stdioReadWriteCloser struct {
	in  io.ReadCloser
	out io.WriteCloser
}

func (s *stdioReadWriteCloser) Read(p []byte) (int, error) {
	return s.in.Read(p)
}

func (s *stdioReadWriteCloser) Write(p []byte) (int, error) {
	return s.out.Write(p)
}

func (s *stdioReadWriteCloser) Close() error {
	return multierr.Append(s.in.Close(), s.out.Close())
}
