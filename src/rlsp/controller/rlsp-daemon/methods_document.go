package rlspdaemon

import (
	"context"
	"fmt"

	rlspplugin "github.com/madbrain/recette-lsp/src/rlsp/entity/rlsp-plugin"
	rlsperrors "github.com/madbrain/recette-lsp/src/rlsp/internal/errors"
	"go.lsp.dev/protocol"
)

func (c *controller) DidOpen(ctx context.Context, params *protocol.DidOpenTextDocumentParams) error {
	if err := c.requireDocumentEvents(ctx, protocol.MethodTextDocumentDidOpen); err != nil {
		return err
	}

	call := func(ctx context.Context, m *rlspplugin.Methods) {
		if err := m.DidOpen(ctx, params); err != nil {
			c.logger.Errorf(_errPluginReturnedError, m.PluginNameKey, err)
		}
	}
	return c.executePluginMethods(ctx, protocol.MethodTextDocumentDidOpen, call, call)
}

func (c *controller) DidChange(ctx context.Context, params *protocol.DidChangeTextDocumentParams) error {
	if err := c.requireDocumentEvents(ctx, protocol.MethodTextDocumentDidChange); err != nil {
		return err
	}

	if len(params.ContentChanges) == 0 {
		err := &rlsperrors.DocumentChangeEmptyError{Document: params.TextDocument}
		c.logger.Warn(err)
		return err
	}

	call := func(ctx context.Context, m *rlspplugin.Methods) {
		if err := m.DidChange(ctx, params); err != nil {
			c.logger.Errorf(_errPluginReturnedError, m.PluginNameKey, err)
		}
	}
	return c.executePluginMethods(ctx, protocol.MethodTextDocumentDidChange, call, call)
}

func (c *controller) DidClose(ctx context.Context, params *protocol.DidCloseTextDocumentParams) error {
	if err := c.requireDocumentEvents(ctx, protocol.MethodTextDocumentDidClose); err != nil {
		return err
	}

	call := func(ctx context.Context, m *rlspplugin.Methods) {
		if err := m.DidClose(ctx, params); err != nil {
			c.logger.Errorf(_errPluginReturnedError, m.PluginNameKey, err)
		}
	}
	return c.executePluginMethods(ctx, protocol.MethodTextDocumentDidClose, call, call)
}

func (c *controller) DidSave(ctx context.Context, params *protocol.DidSaveTextDocumentParams) error {
	if err := c.requireDocumentEvents(ctx, protocol.MethodTextDocumentDidSave); err != nil {
		return err
	}

	call := func(ctx context.Context, m *rlspplugin.Methods) {
		if err := m.DidSave(ctx, params); err != nil {
			c.logger.Errorf(_errPluginReturnedError, m.PluginNameKey, err)
		}
	}
	if err := c.executePluginMethods(ctx, protocol.MethodTextDocumentDidSave, call, call); err != nil {
		return fmt.Errorf(_errBadPluginCall, err)
	}
	return nil
}
