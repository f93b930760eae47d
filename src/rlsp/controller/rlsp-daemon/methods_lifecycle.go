package rlspdaemon

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/madbrain/recette-lsp/src/rlsp/entity"
	rlspplugin "github.com/madbrain/recette-lsp/src/rlsp/entity/rlsp-plugin"
	"github.com/madbrain/recette-lsp/src/rlsp/internal/core"
	"github.com/madbrain/recette-lsp/src/rlsp/mapper"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/multierr"
)

const (
	_serverName         = "recette language server"
	_messageInitialized = "server initialized!"
)

// Initialize declares the server capabilities and registers the enabled plugins for the session.
func (c *controller) Initialize(ctx context.Context, params *protocol.InitializeParams) (*protocol.InitializeResult, error) {
	s, err := c.transition(ctx, protocol.MethodInitialize, entity.SessionStateInitializing, entity.SessionStateUninitialized)
	if err != nil {
		return nil, err
	}

	result := &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: protocol.TextDocumentSyncOptions{
				OpenClose: true,
				Change:    protocol.TextDocumentSyncKindFull,
				Save: &protocol.SaveOptions{
					IncludeText: true,
				},
			},
		},
		ServerInfo: &protocol.ServerInfo{
			Name:    _serverName,
			Version: core.Version,
		},
	}

	if err := c.registerSessionPlugins(ctx, s.UUID); err != nil {
		if _, resetErr := c.transition(ctx, protocol.MethodInitialize, entity.SessionStateUninitialized, entity.SessionStateInitializing); resetErr != nil {
			c.logger.Errorf("resetting session state: %s", resetErr)
		}
		return nil, fmt.Errorf("registering session plugins: %w", err)
	}

	s.InitializeParams = params
	if err := c.sessions.Set(ctx, s); err != nil {
		return nil, fmt.Errorf("setting updated session state: %w", err)
	}

	callSync := func(ctx context.Context, m *rlspplugin.Methods) {
		if err := m.Initialize(ctx, params, result); err != nil {
			c.logger.Errorf(_errPluginReturnedError, m.PluginNameKey, err)
		}
	}
	callAsync := func(ctx context.Context, m *rlspplugin.Methods) {
		if err := m.Initialize(ctx, params, nil); err != nil {
			c.logger.Errorf(_errPluginReturnedError, m.PluginNameKey, err)
		}
	}
	if err := c.executePluginMethods(ctx, protocol.MethodInitialize, callSync, callAsync); err != nil {
		return nil, fmt.Errorf(_errBadPluginCall, err)
	}

	return result, nil
}

// Initialized marks the session ready for document events and greets the editor.
func (c *controller) Initialized(ctx context.Context, params *protocol.InitializedParams) error {
	if _, err := c.transition(ctx, protocol.MethodInitialized, entity.SessionStateInitialized, entity.SessionStateInitializing); err != nil {
		return err
	}

	call := func(ctx context.Context, m *rlspplugin.Methods) {
		if err := m.Initialized(ctx, params); err != nil {
			c.logger.Errorf(_errPluginReturnedError, m.PluginNameKey, err)
		}
	}
	if err := c.executePluginMethods(ctx, protocol.MethodInitialized, call, call); err != nil {
		return fmt.Errorf(_errBadPluginCall, err)
	}

	if err := c.ideGateway.LogMessage(ctx, &protocol.LogMessageParams{
		Type:    protocol.MessageTypeInfo,
		Message: _messageInitialized,
	}); err != nil {
		c.logger.Errorf("sending initialized message: %s", err)
	}
	return nil
}

// Shutdown moves the session to its terminal state. Plugins drop what they hold for the session.
func (c *controller) Shutdown(ctx context.Context) error {
	if _, err := c.transition(ctx, protocol.MethodShutdown, entity.SessionStateShutDown, entity.SessionStateInitialized, entity.SessionStateInitializing); err != nil {
		return err
	}

	call := func(ctx context.Context, m *rlspplugin.Methods) {
		if err := m.Shutdown(ctx); err != nil {
			c.logger.Errorf(_errPluginReturnedError, m.PluginNameKey, err)
		}
	}
	if err := c.executePluginMethods(ctx, protocol.MethodShutdown, call, call); err != nil {
		return fmt.Errorf(_errBadPluginCall, err)
	}
	return nil
}

// Exit ends the session and closes its connection. It is accepted in any state.
func (c *controller) Exit(ctx context.Context) error {
	call := func(ctx context.Context, m *rlspplugin.Methods) {
		if err := m.Exit(ctx); err != nil {
			c.logger.Errorf(_errPluginReturnedError, m.PluginNameKey, err)
		}
	}
	if err := c.executePluginMethods(ctx, protocol.MethodExit, call, call); err != nil {
		c.logger.Errorf(_errBadPluginCall, err)
	}

	s, err := c.sessions.GetFromContext(ctx)
	if err != nil {
		return fmt.Errorf("error during session exit: %w", err)
	}

	err = c.EndSession(ctx, s.UUID)
	if s.Conn != nil && *s.Conn != nil {
		err = multierr.Append(err, (*s.Conn).Close())
	}
	return err
}

// InitSession creates a new empty session and returns its UUID.
func (c *controller) InitSession(ctx context.Context, conn *jsonrpc2.Conn) (uuid.UUID, error) {
	defer c.refreshIdleTimerOrLog(ctx)

	id, err := uuid.NewV4()
	if err != nil {
		return uuid.Nil, err
	}

	if err := c.ideGateway.RegisterClient(ctx, id, conn); err != nil {
		return uuid.Nil, err
	}

	if err := c.sessions.Set(ctx, mapper.UUIDToSession(id, conn)); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// EndSession runs the end_session hook of every plugin, then forgets the session.
// It is safe to call more than once for the same session.
func (c *controller) EndSession(ctx context.Context, id uuid.UUID) error {
	defer c.refreshIdleTimerOrLog(ctx)

	c.pluginMethodsMu.RLock()
	_, registered := c.pluginMethods[id]
	c.pluginMethodsMu.RUnlock()

	if registered {
		call := func(ctx context.Context, m *rlspplugin.Methods) {
			if err := m.EndSession(ctx, id); err != nil {
				c.logger.Errorf(_errPluginReturnedError, m.PluginNameKey, err)
			}
		}
		if err := c.executePluginMethods(context.WithValue(ctx, entity.SessionContextKey, id), rlspplugin.MethodEndSession, call, call); err != nil {
			c.logger.Errorf(_errBadPluginCall, err)
		}
	}

	c.pluginMethodsMu.Lock()
	delete(c.pluginMethods, id)
	c.pluginMethodsMu.Unlock()

	return multierr.Combine(
		c.ideGateway.DeregisterClient(ctx, id),
		c.sessions.Delete(ctx, id),
	)
}
