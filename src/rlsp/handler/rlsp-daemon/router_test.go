package rlspdaemon

import (
	"context"
	"errors"
	"testing"

	"github.com/madbrain/recette-lsp/src/rlsp/controller/rlsp-daemon/rlspdaemonmock"
	"github.com/madbrain/recette-lsp/src/rlsp/factory"
	rlsperrors "github.com/madbrain/recette-lsp/src/rlsp/internal/errors"
	"github.com/madbrain/recette-lsp/src/rlsp/mapper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/mock/gomock"
)

func TestHandleReq(t *testing.T) {
	ctx := context.Background()
	m := jsonRPCRouter{}

	request, _ := jsonrpc2.NewCall(jsonrpc2.NewNumberID(5), "sampleMethod", []string{"val1", "val2"})
	replier := &recordingReplier{}
	require.NoError(t, m.HandleReq(ctx, replier.reply, request))

	var rpcErr *jsonrpc2.Error
	require.ErrorAs(t, replier.err, &rpcErr)
	assert.Equal(t, jsonrpc2.MethodNotFound, rpcErr.Code)
}

func TestHandleReqSessionContext(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := rlspdaemonmock.NewMockController(ctrl)
	id := factory.UUID()

	c.EXPECT().Shutdown(gomock.Any()).DoAndReturn(func(ctx context.Context) error {
		resultID, err := mapper.ContextToSessionUUID(ctx)
		assert.NoError(t, err)
		assert.Equal(t, id, resultID)
		return nil
	})

	r := jsonRPCRouter{rlspdaemon: c, uuid: id}
	req, _ := jsonrpc2.NewCall(jsonrpc2.NewNumberID(1), protocol.MethodShutdown, nil)
	assert.NoError(t, r.HandleReq(context.Background(), newMockReplier(), req))
}

func TestHandleReqErrorCodes(t *testing.T) {
	tests := []struct {
		name     string
		ctrlErr  error
		wantCode jsonrpc2.Code
	}{
		{
			name:     "request before initialize",
			ctrlErr:  &rlsperrors.SessionStateError{Method: protocol.MethodShutdown, State: "uninitialized"},
			wantCode: jsonrpc2.ServerNotInitialized,
		},
		{
			name:     "request in the wrong state",
			ctrlErr:  &rlsperrors.SessionStateError{Method: protocol.MethodShutdown, State: "shut down"},
			wantCode: jsonrpc2.InvalidRequest,
		},
		{
			name:     "unexpected failure",
			ctrlErr:  errors.New("unexpected"),
			wantCode: jsonrpc2.InternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			c := rlspdaemonmock.NewMockController(ctrl)
			c.EXPECT().Shutdown(gomock.Any()).Return(tt.ctrlErr)

			r := jsonRPCRouter{rlspdaemon: c, uuid: factory.UUID()}
			req, _ := jsonrpc2.NewCall(jsonrpc2.NewNumberID(1), protocol.MethodShutdown, nil)
			replier := &recordingReplier{}
			require.NoError(t, r.HandleReq(context.Background(), replier.reply, req))

			var rpcErr *jsonrpc2.Error
			require.ErrorAs(t, replier.err, &rpcErr)
			assert.Equal(t, tt.wantCode, rpcErr.Code)
		})
	}
}

func TestUUID(t *testing.T) {
	sampleUUID := factory.UUID()
	m := jsonRPCRouter{uuid: sampleUUID}
	assert.Equal(t, sampleUUID, m.UUID())
}
