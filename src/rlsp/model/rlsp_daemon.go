package model

import (
	"github.com/gofrs/uuid"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
)

// Session is the repository layer model for an individual IDE session.
type Session struct {
	UUID             uuid.UUID
	State            int
	InitializeParams *protocol.InitializeParams
	Conn             *jsonrpc2.Conn
}
