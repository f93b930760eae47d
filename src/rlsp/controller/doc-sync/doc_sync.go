// Package docsync keeps the latest text of every open document, per session.
package docsync

//go:generate mockgen -destination=docsyncmock/doc_sync_mock.go -package=docsyncmock . Controller

import (
	"context"
	"fmt"
	"path"
	"sync"

	"github.com/gofrs/uuid"
	rlspplugin "github.com/madbrain/recette-lsp/src/rlsp/entity/rlsp-plugin"
	ideclient "github.com/madbrain/recette-lsp/src/rlsp/gateway/ide-client"
	rlsperrors "github.com/madbrain/recette-lsp/src/rlsp/internal/errors"
	"github.com/madbrain/recette-lsp/src/rlsp/repository/session"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/uber-go/tally"
	"go.lsp.dev/protocol"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	_nameKey        = "doc-sync"
	_maxFileSizeKey = "maxFileSizeBytes"
)

// Controller defines the interface for a document sync controller.
type Controller interface {
	StartupInfo(ctx context.Context) (rlspplugin.PluginInfo, error)

	// GetTextDocument returns the document as of the last accepted open, change or save event.
	GetTextDocument(ctx context.Context, doc protocol.TextDocumentIdentifier) (protocol.TextDocumentItem, error)
}

// Params are inbound parameters to initialize a new plugin.
type Params struct {
	fx.In

	Sessions   session.Repository
	IdeGateway ideclient.Gateway
	Logger     *zap.SugaredLogger
	Stats      tally.Scope
	Config     config.Provider
}

type documentStoreEntry struct {
	mu       sync.Mutex
	document protocol.TextDocumentItem
}

type documentStore map[uuid.UUID]map[protocol.TextDocumentIdentifier]*documentStoreEntry

type controller struct {
	sessions         session.Repository
	ideGateway       ideclient.Gateway
	logger           *zap.SugaredLogger
	documents        documentStore
	documentsMu      sync.RWMutex
	stats            tally.Scope
	maxFileSizeBytes int64
}

// New creates a new controller for document sync.
func New(p Params) (Controller, error) {
	var maxFileSizeBytes int64
	if err := p.Config.Get(_maxFileSizeKey).Populate(&maxFileSizeBytes); err != nil {
		return nil, fmt.Errorf("unable to get maximum file size from config: %w", err)
	}
	if maxFileSizeBytes <= 0 {
		return nil, fmt.Errorf("%q must be a positive number of bytes", _maxFileSizeKey)
	}

	c := &controller{
		sessions:         p.Sessions,
		ideGateway:       p.IdeGateway,
		logger:           p.Logger.With("plugin", _nameKey),
		documents:        make(documentStore),
		stats:            p.Stats.SubScope("doc_sync"),
		maxFileSizeBytes: maxFileSizeBytes,
	}
	c.updateMetrics()
	return c, nil
}

// StartupInfo returns PluginInfo for this controller.
func (c *controller) StartupInfo(ctx context.Context) (rlspplugin.PluginInfo, error) {
	priorities := map[string]rlspplugin.Priority{
		protocol.MethodInitialize: rlspplugin.PriorityHigh,
		protocol.MethodShutdown:   rlspplugin.PriorityRegular,

		protocol.MethodTextDocumentDidOpen:   rlspplugin.PriorityHigh,
		protocol.MethodTextDocumentDidChange: rlspplugin.PriorityHigh,
		protocol.MethodTextDocumentDidClose:  rlspplugin.PriorityHigh,
		protocol.MethodTextDocumentDidSave:   rlspplugin.PriorityHigh,
		rlspplugin.MethodEndSession:          rlspplugin.PriorityRegular,
	}

	methods := &rlspplugin.Methods{
		PluginNameKey: _nameKey,

		Initialize: c.initialize,
		Shutdown:   c.shutdown,

		DidOpen:   c.didOpen,
		DidChange: c.didChange,
		DidClose:  c.didClose,
		DidSave:   c.didSave,

		EndSession: c.endSession,
	}

	return rlspplugin.PluginInfo{
		Priorities: priorities,
		Methods:    methods,
		NameKey:    _nameKey,
	}, nil
}

func (c *controller) GetTextDocument(ctx context.Context, doc protocol.TextDocumentIdentifier) (protocol.TextDocumentItem, error) {
	entry, err := c.getDocumentStoreEntry(ctx, doc)
	if err != nil {
		return protocol.TextDocumentItem{}, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.document, nil
}

// initialize adds an entry to keep track of this session's documents.
func (c *controller) initialize(ctx context.Context, params *protocol.InitializeParams, result *protocol.InitializeResult) error {
	s, err := c.sessions.GetFromContext(ctx)
	if err != nil {
		return err
	}

	c.documentsMu.Lock()
	defer c.documentsMu.Unlock()
	c.documents[s.UUID] = make(map[protocol.TextDocumentIdentifier]*documentStoreEntry)
	return nil
}

// shutdown drops every document of the session.
func (c *controller) shutdown(ctx context.Context) error {
	defer c.updateMetrics()
	s, err := c.sessions.GetFromContext(ctx)
	if err != nil {
		return err
	}

	c.disposeSession(s.UUID)
	return nil
}

// endSession removes this session's documents in the event that no shutdown request is received.
func (c *controller) endSession(ctx context.Context, id uuid.UUID) error {
	defer c.updateMetrics()
	c.disposeSession(id)
	return nil
}

// didOpen stores the initial contents of a document. Opening an already open document replaces it.
// A document that cannot be tracked is dropped from the store, so no stale text outlives the open event.
func (c *controller) didOpen(ctx context.Context, params *protocol.DidOpenTextDocumentParams) error {
	defer c.updateMetrics()
	s, err := c.sessions.GetFromContext(ctx)
	if err != nil {
		return err
	}

	key := protocol.TextDocumentIdentifier{URI: params.TextDocument.URI}
	if params.TextDocument.Version < 0 {
		c.untrack(s.UUID, key)
		return &rlsperrors.DocumentVersionInvalidError{URI: params.TextDocument.URI, Version: params.TextDocument.Version}
	}

	if err := c.validateSize(params.TextDocument.Text); err != nil {
		// Oversized documents are expected occasionally. Any later access to them fails with DocumentNotFoundError.
		c.logger.Warnf("unable to track open document %q: %v", params.TextDocument.URI, err)
		c.untrack(s.UUID, key)
		if showErr := c.ideGateway.ShowMessage(ctx, &protocol.ShowMessageParams{
			Type:    protocol.MessageTypeWarning,
			Message: fmt.Sprintf("%s is too large to be analyzed.", path.Base(string(params.TextDocument.URI))),
		}); showErr != nil {
			c.logger.Errorf("unable to notify about oversized document: %v", showErr)
		}
		return nil
	}

	c.documentsMu.Lock()
	defer c.documentsMu.Unlock()
	if c.documents[s.UUID] == nil {
		return &rlsperrors.UUIDNotFoundError{UUID: s.UUID}
	}

	c.documents[s.UUID][key] = &documentStoreEntry{document: params.TextDocument}
	return nil
}

// didChange replaces the stored text with the first content change.
// Events without content changes are rejected by the daemon and ranged changes by the request mapper.
func (c *controller) didChange(ctx context.Context, params *protocol.DidChangeTextDocumentParams) error {
	defer c.updateMetrics()

	if ignored := len(params.ContentChanges) - 1; ignored > 0 {
		c.logger.Warnw("ignoring extra content changes",
			"uri", params.TextDocument.URI,
			"version", params.TextDocument.Version,
			"ignored", ignored,
		)
	}

	entry, err := c.getDocumentStoreEntry(ctx, params.TextDocument.TextDocumentIdentifier)
	if err != nil {
		return fmt.Errorf("adding changes to document: %w", err)
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if params.TextDocument.Version <= entry.document.Version {
		return &rlsperrors.DocumentOutdatedError{
			URI:             params.TextDocument.URI,
			CurrentVersion:  entry.document.Version,
			OutdatedVersion: params.TextDocument.Version,
		}
	}

	text := params.ContentChanges[0].Text
	if err := c.validateSize(text); err != nil {
		return fmt.Errorf("unable to add changes to document %q: %w", params.TextDocument.URI, err)
	}

	entry.document.Text = text
	entry.document.Version = params.TextDocument.Version
	return nil
}

// didClose deletes the entry for a closed document.
func (c *controller) didClose(ctx context.Context, params *protocol.DidCloseTextDocumentParams) error {
	defer c.updateMetrics()
	s, err := c.sessions.GetFromContext(ctx)
	if err != nil {
		return err
	}

	c.documentsMu.Lock()
	defer c.documentsMu.Unlock()
	delete(c.documents[s.UUID], params.TextDocument)
	return nil
}

// didSave reconciles the stored text with the saved one when the editor includes it.
func (c *controller) didSave(ctx context.Context, params *protocol.DidSaveTextDocumentParams) error {
	defer c.updateMetrics()
	// An omitted text and an empty one decode the same way, so both leave the store as is.
	// A document emptied by the user was already stored empty by its full-sync change event.
	if params.Text == "" {
		return nil
	}

	entry, err := c.getDocumentStoreEntry(ctx, params.TextDocument)
	if err != nil {
		return err
	}
	if err := c.validateSize(params.Text); err != nil {
		return fmt.Errorf("unable to reconcile saved document %q: %w", params.TextDocument.URI, err)
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.document.Text != params.Text {
		dmp := diffmatchpatch.New()
		distance := dmp.DiffLevenshtein(dmp.DiffMain(entry.document.Text, params.Text, false))
		c.logger.Infow("stored text differs from saved text",
			"uri", params.TextDocument.URI,
			"version", entry.document.Version,
			"distance", distance,
		)
		c.stats.Counter("save_divergence").Inc(1)
		entry.document.Text = params.Text
	}
	return nil
}

func (c *controller) getDocumentStoreEntry(ctx context.Context, doc protocol.TextDocumentIdentifier) (*documentStoreEntry, error) {
	s, err := c.sessions.GetFromContext(ctx)
	if err != nil {
		return nil, err
	}

	c.documentsMu.RLock()
	defer c.documentsMu.RUnlock()

	if _, ok := c.documents[s.UUID]; !ok {
		return nil, &rlsperrors.UUIDNotFoundError{UUID: s.UUID}
	}

	entry, ok := c.documents[s.UUID][doc]
	if !ok {
		return nil, &rlsperrors.DocumentNotFoundError{Document: doc}
	}
	return entry, nil
}

func (c *controller) untrack(id uuid.UUID, key protocol.TextDocumentIdentifier) {
	c.documentsMu.Lock()
	defer c.documentsMu.Unlock()
	delete(c.documents[id], key)
}

func (c *controller) disposeSession(id uuid.UUID) {
	c.documentsMu.Lock()
	defer c.documentsMu.Unlock()
	delete(c.documents, id)
}

func (c *controller) validateSize(text string) error {
	size := int64(len(text))
	if size > c.maxFileSizeBytes {
		return &rlsperrors.DocumentSizeLimitError{Size: size}
	}
	return nil
}

func (c *controller) updateMetrics() {
	c.documentsMu.RLock()
	defer c.documentsMu.RUnlock()

	openDocs := 0
	openBytes := 0
	for _, sessionDocs := range c.documents {
		openDocs += len(sessionDocs)
		for _, entry := range sessionDocs {
			entry.mu.Lock()
			openBytes += len(entry.document.Text)
			entry.mu.Unlock()
		}
	}
	c.stats.Gauge("open_docs").Update(float64(openDocs))
	c.stats.Gauge("open_bytes").Update(float64(openBytes))
}
