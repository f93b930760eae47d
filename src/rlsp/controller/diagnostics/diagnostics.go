// Package diagnostics publishes the analysis of open documents to the editor.
package diagnostics

import (
	"context"
	stderr "errors"
	"fmt"
	"sync"

	"github.com/gofrs/uuid"
	docsync "github.com/madbrain/recette-lsp/src/rlsp/controller/doc-sync"
	rlspplugin "github.com/madbrain/recette-lsp/src/rlsp/entity/rlsp-plugin"
	ideclient "github.com/madbrain/recette-lsp/src/rlsp/gateway/ide-client"
	"github.com/madbrain/recette-lsp/src/rlsp/internal/analyzer"
	rlsperrors "github.com/madbrain/recette-lsp/src/rlsp/internal/errors"
	"github.com/madbrain/recette-lsp/src/rlsp/mapper"
	"github.com/uber-go/tally"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	_nameKey = "diagnostics"

	_bannerMessage = "Zenika rulez!"
)

// Controller analyzes open documents and publishes their diagnostics to the editor.
type Controller interface {
	StartupInfo(ctx context.Context) (rlspplugin.PluginInfo, error)
	// Publish sends diagnostics for one version of a document, followed by the banner.
	// The published set replaces whatever was previously published for docURI.
	Publish(ctx context.Context, docURI uri.URI, version int32, diagnostics []protocol.Diagnostic) error
}

// Params are inbound parameters to initialize a new plugin.
type Params struct {
	fx.In

	IdeGateway ideclient.Gateway
	DocSync    docsync.Controller
	Logger     *zap.SugaredLogger
	Stats      tally.Scope
}

type publishedSet struct {
	version     int32
	diagnostics []protocol.Diagnostic
}

type diagnosticStore map[uuid.UUID]map[uri.URI]publishedSet

type controller struct {
	ideGateway    ideclient.Gateway
	docSync       docsync.Controller
	logger        *zap.SugaredLogger
	diagnostics   diagnosticStore
	diagnosticsMu sync.Mutex
	stats         tally.Scope
}

// New creates a new diagnostics controller.
func New(p Params) Controller {
	return &controller{
		ideGateway:  p.IdeGateway,
		docSync:     p.DocSync,
		logger:      p.Logger.With("plugin", _nameKey),
		diagnostics: make(diagnosticStore),
		stats:       p.Stats.SubScope(_nameKey),
	}
}

// StartupInfo returns PluginInfo for this controller.
func (c *controller) StartupInfo(ctx context.Context) (rlspplugin.PluginInfo, error) {
	// Document events run after doc-sync so that the stored text is current.
	priorities := map[string]rlspplugin.Priority{
		protocol.MethodInitialize: rlspplugin.PriorityHigh,
		protocol.MethodShutdown:   rlspplugin.PriorityRegular,

		protocol.MethodTextDocumentDidOpen:   rlspplugin.PriorityRegular,
		protocol.MethodTextDocumentDidChange: rlspplugin.PriorityRegular,
		protocol.MethodTextDocumentDidClose:  rlspplugin.PriorityRegular,

		rlspplugin.MethodEndSession: rlspplugin.PriorityRegular,
	}

	methods := &rlspplugin.Methods{
		PluginNameKey: _nameKey,

		Initialize: c.initialize,
		Shutdown:   c.shutdown,

		DidOpen:   c.didOpen,
		DidChange: c.didChange,
		DidClose:  c.didClose,

		EndSession: c.endSession,
	}

	return rlspplugin.PluginInfo{
		Priorities: priorities,
		Methods:    methods,
		NameKey:    _nameKey,
	}, nil
}

func (c *controller) Publish(ctx context.Context, docURI uri.URI, version int32, diagnostics []protocol.Diagnostic) error {
	id, err := mapper.ContextToSessionUUID(ctx)
	if err != nil {
		return err
	}
	if version < 0 {
		return &rlsperrors.DocumentVersionInvalidError{URI: docURI, Version: version}
	}

	c.diagnosticsMu.Lock()
	defer c.diagnosticsMu.Unlock()
	return c.publishLocked(ctx, id, docURI, version, withBanner(diagnostics))
}

func (c *controller) initialize(ctx context.Context, params *protocol.InitializeParams, result *protocol.InitializeResult) error {
	id, err := mapper.ContextToSessionUUID(ctx)
	if err != nil {
		return err
	}

	c.diagnosticsMu.Lock()
	defer c.diagnosticsMu.Unlock()
	c.diagnostics[id] = make(map[uri.URI]publishedSet)
	return nil
}

func (c *controller) shutdown(ctx context.Context) error {
	id, err := mapper.ContextToSessionUUID(ctx)
	if err != nil {
		return err
	}
	c.disposeSession(id)
	return nil
}

// endSession forgets this session's diagnostics in the event that no shutdown request is received.
func (c *controller) endSession(ctx context.Context, id uuid.UUID) error {
	c.disposeSession(id)
	return nil
}

func (c *controller) didOpen(ctx context.Context, params *protocol.DidOpenTextDocumentParams) error {
	return c.analyze(ctx, params.TextDocument.URI, params.TextDocument.Version, true)
}

func (c *controller) didChange(ctx context.Context, params *protocol.DidChangeTextDocumentParams) error {
	return c.analyze(ctx, params.TextDocument.URI, params.TextDocument.Version, false)
}

// didClose clears the editor's diagnostics for the document.
func (c *controller) didClose(ctx context.Context, params *protocol.DidCloseTextDocumentParams) error {
	id, err := mapper.ContextToSessionUUID(ctx)
	if err != nil {
		return err
	}

	c.diagnosticsMu.Lock()
	defer c.diagnosticsMu.Unlock()
	c.clearLocked(ctx, id, params.TextDocument.URI)
	return nil
}

// analyze publishes diagnostics for the stored document, as long as it is still at the given version.
// Changes that do not advance past the last published version are not published again.
func (c *controller) analyze(ctx context.Context, docURI uri.URI, version int32, opened bool) error {
	id, err := mapper.ContextToSessionUUID(ctx)
	if err != nil {
		return err
	}

	doc, err := c.docSync.GetTextDocument(ctx, protocol.TextDocumentIdentifier{URI: docURI})
	if err != nil {
		var notFound *rlsperrors.DocumentNotFoundError
		if stderr.As(err, &notFound) {
			c.logger.Debugw("document is not tracked, skipping analysis", "uri", docURI)
			if opened {
				// Whatever was published belongs to text the store no longer holds.
				c.diagnosticsMu.Lock()
				defer c.diagnosticsMu.Unlock()
				if _, ok := c.diagnostics[id][docURI]; ok {
					c.clearLocked(ctx, id, docURI)
				}
			}
			return nil
		}
		return fmt.Errorf("getting document %q: %w", docURI, err)
	}

	if doc.Version != version {
		c.logger.Debugw("stored document does not match event, skipping analysis",
			"uri", docURI,
			"storedVersion", doc.Version,
			"eventVersion", version,
		)
		return nil
	}

	c.diagnosticsMu.Lock()
	defer c.diagnosticsMu.Unlock()

	if last, ok := c.diagnostics[id][docURI]; ok && !opened && last.version >= version {
		return nil
	}

	result := analyzer.Analyze(doc.Text)
	return c.publishLocked(ctx, id, docURI, version, withBanner(result.Diagnostics))
}

func (c *controller) publishLocked(ctx context.Context, id uuid.UUID, docURI uri.URI, version int32, diagnostics []protocol.Diagnostic) error {
	c.logger.Debugw("publishing diagnostics", "uri", docURI, "version", version, "count", len(diagnostics))
	if err := c.ideGateway.PublishDiagnostics(ctx, &protocol.PublishDiagnosticsParams{
		URI:         docURI,
		Version:     uint32(version),
		Diagnostics: diagnostics,
	}); err != nil {
		c.logger.Errorf("publishing diagnostics for %q: %v", docURI, err)
		return fmt.Errorf("publishing diagnostics for %q: %w", docURI, err)
	}

	if _, ok := c.diagnostics[id]; !ok {
		c.diagnostics[id] = make(map[uri.URI]publishedSet)
	}
	c.diagnostics[id][docURI] = publishedSet{version: version, diagnostics: diagnostics}

	c.stats.Counter("published").Inc(1)
	c.stats.Counter("reported").Inc(int64(len(diagnostics)))
	return nil
}

// clearLocked publishes an empty set for docURI, tagged with the last published version, and forgets it.
func (c *controller) clearLocked(ctx context.Context, id uuid.UUID, docURI uri.URI) {
	last := c.diagnostics[id][docURI]
	if err := c.ideGateway.PublishDiagnostics(ctx, &protocol.PublishDiagnosticsParams{
		URI:         docURI,
		Version:     uint32(last.version),
		Diagnostics: []protocol.Diagnostic{},
	}); err != nil {
		c.logger.Errorf("clearing diagnostics for %q: %v", docURI, err)
	}
	delete(c.diagnostics[id], docURI)
}

func (c *controller) disposeSession(id uuid.UUID) {
	c.diagnosticsMu.Lock()
	defer c.diagnosticsMu.Unlock()
	delete(c.diagnostics, id)
}

// withBanner returns a copy of diagnostics with the banner appended.
func withBanner(diagnostics []protocol.Diagnostic) []protocol.Diagnostic {
	result := make([]protocol.Diagnostic, 0, len(diagnostics)+1)
	result = append(result, diagnostics...)
	return append(result, banner())
}

func banner() protocol.Diagnostic {
	return protocol.Diagnostic{
		Range: protocol.Range{
			Start: protocol.Position{Line: 0, Character: 0},
			End:   protocol.Position{Line: 0, Character: 10},
		},
		Severity: protocol.DiagnosticSeverityInformation,
		Message:  _bannerMessage,
	}
}
