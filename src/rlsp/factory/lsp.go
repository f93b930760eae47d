package factory

import (
	"go.lsp.dev/protocol"
)

// TextDocumentItem returns an opened recette document with the given version and text.
func TextDocumentItem(uri protocol.DocumentURI, version int32, text string) protocol.TextDocumentItem {
	return protocol.TextDocumentItem{
		URI:        uri,
		LanguageID: "recette",
		Version:    version,
		Text:       text,
	}
}

// DidChangeFull returns a change notification replacing the whole document text.
func DidChangeFull(uri protocol.DocumentURI, version int32, text string) *protocol.DidChangeTextDocumentParams {
	return &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: uri},
			Version:                version,
		},
		ContentChanges: []protocol.TextDocumentContentChangeEvent{{Text: text}},
	}
}
