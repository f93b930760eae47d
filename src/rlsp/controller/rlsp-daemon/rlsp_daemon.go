// Package rlspdaemon implements the session lifecycle of the recette language server.
package rlspdaemon

//go:generate mockgen -destination=rlspdaemonmock/rlsp_daemon_mock.go -package=rlspdaemonmock . Controller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/madbrain/recette-lsp/src/rlsp/controller/diagnostics"
	docsync "github.com/madbrain/recette-lsp/src/rlsp/controller/doc-sync"
	"github.com/madbrain/recette-lsp/src/rlsp/entity"
	rlspplugin "github.com/madbrain/recette-lsp/src/rlsp/entity/rlsp-plugin"
	ideclient "github.com/madbrain/recette-lsp/src/rlsp/gateway/ide-client"
	rlsperrors "github.com/madbrain/recette-lsp/src/rlsp/internal/errors"
	"github.com/madbrain/recette-lsp/src/rlsp/internal/jsonrpcfx"
	"github.com/madbrain/recette-lsp/src/rlsp/mapper"
	"github.com/madbrain/recette-lsp/src/rlsp/repository/session"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	// Error templates
	_errBadPluginCall       = "calling plugin: %s"
	_errPluginReturnedError = "plugin %q returned error: %s"

	// Configuration keys
	_idleTimeoutMinutesKey = "idleTimeoutMinutes"
	_pluginsKey            = "rlspPlugins"

	_timeoutAsync = 30 * time.Second
)

// Controller orchestrates the business logic for each request.
type Controller interface {
	Initialize(ctx context.Context, params *protocol.InitializeParams) (*protocol.InitializeResult, error)
	Initialized(ctx context.Context, params *protocol.InitializedParams) error
	Shutdown(ctx context.Context) error
	Exit(ctx context.Context) error

	DidOpen(ctx context.Context, params *protocol.DidOpenTextDocumentParams) error
	DidChange(ctx context.Context, params *protocol.DidChangeTextDocumentParams) error
	DidClose(ctx context.Context, params *protocol.DidCloseTextDocumentParams) error
	DidSave(ctx context.Context, params *protocol.DidSaveTextDocumentParams) error

	// InitSession registers a new connection and returns the id of its session.
	InitSession(ctx context.Context, conn *jsonrpc2.Conn) (uuid.UUID, error)
	// EndSession releases everything held for a session, during or after its last request.
	EndSession(ctx context.Context, id uuid.UUID) error
}

// Params are inbound parameters to initialize a new controller.
type Params struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	Sessions   session.Repository
	IdeGateway ideclient.Gateway
	Logger     *zap.SugaredLogger
	Config     config.Provider

	PluginDocSync     docsync.Controller
	PluginDiagnostics diagnostics.Controller
}

type controller struct {
	sessions   session.Repository
	shutdowner fx.Shutdowner
	logger     *zap.SugaredLogger
	ideGateway ideclient.Gateway

	// stateMu serializes session state transitions.
	stateMu sync.Mutex

	idleTimer   *time.Timer
	idleTimerMu sync.Mutex
	idleTimeout time.Duration

	pluginMethods   map[uuid.UUID]rlspplugin.RuntimePrioritizedMethods
	pluginMethodsMu sync.RWMutex
	pluginConfig    map[string]bool
	pluginsAll      []rlspplugin.Plugin
	wg              sync.WaitGroup
}

// New constructs a new top-level controller for the service.
func New(p Params) (Controller, error) {
	var pluginConfig map[string]bool
	if err := p.Config.Get(_pluginsKey).Populate(&pluginConfig); err != nil {
		return nil, fmt.Errorf("unable to get plugin keys from config: %w", err)
	}

	var transport string
	if err := p.Config.Get(jsonrpcfx.ConfigKeyTransport).Populate(&transport); err != nil {
		return nil, fmt.Errorf("unable to get transport from config: %w", err)
	}

	var idleTimeout time.Duration
	if transport == jsonrpcfx.TransportTCP {
		var timeoutMinutesRaw int64
		if err := p.Config.Get(_idleTimeoutMinutesKey).Populate(&timeoutMinutesRaw); err != nil {
			return nil, fmt.Errorf("unable to get idle timeout from config: %w", err)
		}
		if timeoutMinutesRaw <= 0 {
			return nil, fmt.Errorf("%q must be positive for the %s transport", _idleTimeoutMinutesKey, jsonrpcfx.TransportTCP)
		}
		idleTimeout = time.Duration(timeoutMinutesRaw) * time.Minute
	}

	// Order matters: for the same priority, doc-sync runs before diagnostics.
	availablePlugins := []rlspplugin.Plugin{p.PluginDocSync, p.PluginDiagnostics}

	c := &controller{
		sessions:   p.Sessions,
		shutdowner: p.Shutdowner,
		logger:     p.Logger,
		ideGateway: p.IdeGateway,

		idleTimeout:   idleTimeout,
		pluginMethods: map[uuid.UUID]rlspplugin.RuntimePrioritizedMethods{},
		pluginConfig:  pluginConfig,
		pluginsAll:    availablePlugins,
	}
	c.startIdleTimer()

	if p.Lifecycle != nil {
		p.Lifecycle.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				c.stopIdleTimer()
				c.wg.Wait()
				return nil
			},
		})
	}

	return c, nil
}

func (c *controller) registerSessionPlugins(ctx context.Context, id uuid.UUID) error {
	enabledPlugins := []rlspplugin.PluginInfo{}
	for _, plugin := range c.pluginsAll {
		if plugin == nil {
			continue
		}
		info, err := plugin.StartupInfo(ctx)
		if err != nil {
			return fmt.Errorf("getting plugin startup info: %w", err)
		}

		if isEnabled := c.pluginConfig[info.NameKey]; isEnabled {
			c.logger.Infow("plugin registration", "plugin", info.NameKey, "status", "enabled")
			enabledPlugins = append(enabledPlugins, info)
		} else {
			c.logger.Infow("plugin registration", "plugin", info.NameKey, "status", "disabled")
		}
	}

	methods, err := mapper.PluginInfoToRuntimePrioritizedMethods(enabledPlugins)
	if err != nil {
		return fmt.Errorf("prioritizing plugin methods: %w", err)
	}

	c.pluginMethodsMu.Lock()
	defer c.pluginMethodsMu.Unlock()
	c.pluginMethods[id] = methods
	return nil
}

// executePluginMethods runs the plugins registered for method, in priority order.
// Sync plugins run before returning. Async plugins run in the background with their own timeout
// and are responsible for respecting the cancellation of their context.
func (c *controller) executePluginMethods(ctx context.Context, method string, handlerSync func(ctx context.Context, m *rlspplugin.Methods), handlerAsync func(ctx context.Context, m *rlspplugin.Methods)) error {
	if handlerSync == nil || handlerAsync == nil {
		return fmt.Errorf("handlers cannot be nil")
	}

	id, err := mapper.ContextToSessionUUID(ctx)
	if err != nil {
		return fmt.Errorf("getting session from context: %w", err)
	}

	c.pluginMethodsMu.RLock()
	methodLists, ok := c.pluginMethods[id][method]
	c.pluginMethodsMu.RUnlock()
	if !ok {
		// No need to execute if this method has no registered plugins.
		return nil
	}

	for _, current := range methodLists.Sync {
		handlerSync(ctx, current)
	}

	if len(methodLists.Async) == 0 {
		return nil
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		asyncCtx := context.WithValue(context.Background(), entity.SessionContextKey, id)
		asyncCtx, cancel := context.WithTimeout(asyncCtx, _timeoutAsync)
		defer cancel()

		var innerWg sync.WaitGroup
		for _, current := range methodLists.Async {
			innerWg.Add(1)
			go func(m *rlspplugin.Methods) {
				defer innerWg.Done()
				handlerAsync(asyncCtx, m)
			}(current)
		}
		innerWg.Wait()
	}()

	return nil
}

// transition moves the session to next if it currently is in one of the allowed states.
func (c *controller) transition(ctx context.Context, method string, next entity.SessionState, allowed ...entity.SessionState) (*entity.Session, error) {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()

	s, err := c.sessions.GetFromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting session from context: %w", err)
	}

	if !isOneOf(s.State, allowed) {
		return nil, &rlsperrors.SessionStateError{Method: method, State: s.State.String()}
	}

	s.State = next
	if err := c.sessions.Set(ctx, s); err != nil {
		return nil, fmt.Errorf("setting updated session state: %w", err)
	}
	return s, nil
}

// requireDocumentEvents rejects document events outside of the initialized state.
func (c *controller) requireDocumentEvents(ctx context.Context, method string) error {
	s, err := c.sessions.GetFromContext(ctx)
	if err != nil {
		return fmt.Errorf("getting session from context: %w", err)
	}

	if !s.State.AcceptsDocumentEvents() {
		c.logger.Warnw("ignoring document event", "method", method, "state", s.State.String(), "session", s.UUID.String())
		return &rlsperrors.SessionStateError{Method: method, State: s.State.String()}
	}
	return nil
}

func isOneOf(state entity.SessionState, allowed []entity.SessionState) bool {
	for _, a := range allowed {
		if state == a {
			return true
		}
	}
	return false
}
