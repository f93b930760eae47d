package errors

import (
	"fmt"

	"go.lsp.dev/protocol"
)

// DocumentNotFoundError indicates that a document is not found.
type DocumentNotFoundError struct {
	Document protocol.TextDocumentIdentifier
}

// Error is an implementation of the error interface.
func (n *DocumentNotFoundError) Error() string {
	return fmt.Sprintf("document %q not found", n.Document.URI)
}

// DocumentSizeLimitError indicates that has exceeded the specified size limit
type DocumentSizeLimitError struct {
	Size int64
}

// Error is an implementation of the error interface.
func (n *DocumentSizeLimitError) Error() string {
	return fmt.Sprintf("size of %d bytes exceeds permitted limit", n.Size)
}

// DocumentOutdatedError indicates that a change event did not advance the stored document version.
type DocumentOutdatedError struct {
	URI             protocol.DocumentURI
	CurrentVersion  int32
	OutdatedVersion int32
}

// Error is an implementation of the error interface.
func (n *DocumentOutdatedError) Error() string {
	return fmt.Sprintf("document %q version is outdated. Current version: %d, received version: %d", n.URI, n.CurrentVersion, n.OutdatedVersion)
}

// DocumentVersionInvalidError indicates a negative document version.
type DocumentVersionInvalidError struct {
	URI     protocol.DocumentURI
	Version int32
}

// Error is an implementation of the error interface.
func (n *DocumentVersionInvalidError) Error() string {
	return fmt.Sprintf("document %q has invalid version %d, versions must not be negative", n.URI, n.Version)
}

// DocumentChangeEmptyError indicates that a change event carried no content change entry.
type DocumentChangeEmptyError struct {
	Document protocol.VersionedTextDocumentIdentifier
}

// Error is an implementation of the error interface.
func (n *DocumentChangeEmptyError) Error() string {
	return fmt.Sprintf("change event for %q (version %d) has no content changes", n.Document.URI, n.Document.Version)
}

// DocumentChangeRangedError indicates that an incremental change was received while full document sync is in use.
type DocumentChangeRangedError struct {
	Document protocol.VersionedTextDocumentIdentifier
}

// Error is an implementation of the error interface.
func (n *DocumentChangeRangedError) Error() string {
	return fmt.Sprintf("change event for %q (version %d) carries a range, only full document changes are supported", n.Document.URI, n.Document.Version)
}
