package rlspplugin

//go:generate mockgen -destination=pluginmock/plugin_mock.go -package=pluginmock . Plugin

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid"
	"go.lsp.dev/protocol"
)

const (
	_errorUnrecognizedMethod = "%q included in priority config, but is not a recognized method. Method name must be a valid LSP method handled by the recette server."
	_errorMissingMethod      = "%q is included in the priority configuration, but is nil in Methods"
	_errorMissingField       = "missing %q field for this plugin"

	// MethodEndSession is called once the JSON-RPC connection has been closed, whether or not the client sent 'shutdown' and 'exit'.
	MethodEndSession = "end_session"
)

// RuntimePrioritizedMethods represents ordered list of modules to run for a given method.
type RuntimePrioritizedMethods map[string]MethodLists

// MethodLists maintains ordered list of modules to run, segmented by sync and async.
type MethodLists struct {
	Sync  []*Methods
	Async []*Methods
}

// Priority represents the ranked priority in which a plugin method will be run for a given method.
type Priority int64

const (
	// PriorityHigh for plugin methods that should be run in the highest priority group.
	PriorityHigh Priority = iota
	// PriorityRegular for plugins methods that should be run with regular priority.
	PriorityRegular
	// PriorityAsync for plugin methods should be run asynchronously and won't be included in the response.
	PriorityAsync
)

// Plugin contributes a portion of the language server functionality.
type Plugin interface {
	StartupInfo(ctx context.Context) (PluginInfo, error)
}

// Methods are the optional hooks a plugin may implement.
type Methods struct {
	// PluginNameKey identifies the plugin providing these hooks.
	PluginNameKey string

	Initialize  func(ctx context.Context, params *protocol.InitializeParams, result *protocol.InitializeResult) error
	Initialized func(ctx context.Context, params *protocol.InitializedParams) error
	Shutdown    func(ctx context.Context) error
	Exit        func(ctx context.Context) error

	DidOpen   func(ctx context.Context, params *protocol.DidOpenTextDocumentParams) error
	DidChange func(ctx context.Context, params *protocol.DidChangeTextDocumentParams) error
	DidClose  func(ctx context.Context, params *protocol.DidCloseTextDocumentParams) error
	DidSave   func(ctx context.Context, params *protocol.DidSaveTextDocumentParams) error

	EndSession func(ctx context.Context, uuid uuid.UUID) error
}

// PluginInfo provides both prioritization for each method, as well as access to call each method implemented by this plugin.
type PluginInfo struct {
	Priorities map[string]Priority
	Methods    *Methods
	NameKey    string
}

// Validate checks that every prioritized method has a matching hook.
func (m *PluginInfo) Validate() error {
	if len(m.Priorities) == 0 {
		return fmt.Errorf(_errorMissingField, "Priorities")
	} else if m.Methods == nil {
		return fmt.Errorf(_errorMissingField, "Methods")
	} else if m.NameKey == "" {
		return fmt.Errorf(_errorMissingField, "NameKey")
	} else if m.Methods.PluginNameKey != m.NameKey {
		return fmt.Errorf(_errorMissingField, "Methods.PluginNameKey")
	}

	for key, priority := range m.Priorities {
		if priority < PriorityHigh || priority > PriorityAsync {
			return fmt.Errorf("invalid priority %d for %q", priority, key)
		}

		var present bool
		switch key {
		case protocol.MethodInitialize:
			present = m.Methods.Initialize != nil
		case protocol.MethodInitialized:
			present = m.Methods.Initialized != nil
		case protocol.MethodShutdown:
			present = m.Methods.Shutdown != nil
		case protocol.MethodExit:
			present = m.Methods.Exit != nil
		case protocol.MethodTextDocumentDidOpen:
			present = m.Methods.DidOpen != nil
		case protocol.MethodTextDocumentDidChange:
			present = m.Methods.DidChange != nil
		case protocol.MethodTextDocumentDidClose:
			present = m.Methods.DidClose != nil
		case protocol.MethodTextDocumentDidSave:
			present = m.Methods.DidSave != nil
		case MethodEndSession:
			present = m.Methods.EndSession != nil
		default:
			return fmt.Errorf(_errorUnrecognizedMethod, key)
		}

		if !present {
			return fmt.Errorf(_errorMissingMethod, key)
		}
	}

	return nil
}
