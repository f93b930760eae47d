// Package entity contains the domain logic for the recette language server.
package entity

import (
	"github.com/gofrs/uuid"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
)

type keyType string

// SessionContextKey indicates the key to be used to identify the session UUID in the context.
const SessionContextKey keyType = "SessionUUID"

// SessionState tracks where a session is in the LSP lifecycle.
type SessionState int

const (
	// SessionStateUninitialized is the state of a connection before the initialize request.
	SessionStateUninitialized SessionState = iota
	// SessionStateInitializing indicates that capabilities were returned but not yet acknowledged by the client.
	SessionStateInitializing
	// SessionStateInitialized indicates that the client acknowledged the capabilities and document events are accepted.
	SessionStateInitialized
	// SessionStateShutDown is terminal. Only exit is accepted.
	SessionStateShutDown
)

// String implements fmt.Stringer.
func (s SessionState) String() string {
	switch s {
	case SessionStateUninitialized:
		return "uninitialized"
	case SessionStateInitializing:
		return "initializing"
	case SessionStateInitialized:
		return "initialized"
	case SessionStateShutDown:
		return "shut down"
	default:
		return "unknown"
	}
}

// AcceptsDocumentEvents reports whether document synchronization events may be processed.
func (s SessionState) AcceptsDocumentEvents() bool {
	return s == SessionStateInitialized
}

// Session entity representing a single IDE session.
type Session struct {
	UUID             uuid.UUID                  `json:"uuid" zap:"uuid"`
	State            SessionState               `json:"state" zap:"state"`
	InitializeParams *protocol.InitializeParams `json:"-" zap:"-"`
	Conn             *jsonrpc2.Conn             `json:"-" zap:"-"`
}
