package rlspdaemon

import (
	"context"
	"errors"
	"testing"

	"github.com/madbrain/recette-lsp/src/rlsp/controller/rlsp-daemon/rlspdaemonmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitialize(t *testing.T) {
	tests := []struct {
		name             string
		params           interface{}
		callsController  bool
		controllerResult *protocol.InitializeResult
		controllerError  error
		wantErr          bool
	}{
		{
			name:             "error from controller",
			params:           protocol.InitializeParams{},
			callsController:  true,
			controllerResult: nil,
			controllerError:  errors.New("controller error"),
			wantErr:          true,
		},
		{
			name:             "no error from controller",
			params:           protocol.InitializeParams{},
			callsController:  true,
			controllerResult: &protocol.InitializeResult{},
			controllerError:  nil,
			wantErr:          false,
		},
		{
			name:    "malformed params",
			params:  []string{"not", "an", "object"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			ctx := context.Background()
			replier := newMockReplier()

			c := rlspdaemonmock.NewMockController(ctrl)
			if tt.callsController {
				c.EXPECT().Initialize(gomock.Any(), gomock.Any()).Return(tt.controllerResult, tt.controllerError)
			}

			r := jsonRPCRouter{rlspdaemon: c}
			req, _ := jsonrpc2.NewCall(jsonrpc2.NewNumberID(5), protocol.MethodInitialize, tt.params)
			err := r.HandleReq(ctx, replier, req)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestInitializeResult(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := rlspdaemonmock.NewMockController(ctrl)
	expected := &protocol.InitializeResult{ServerInfo: &protocol.ServerInfo{Name: "recette language server"}}
	c.EXPECT().Initialize(gomock.Any(), gomock.Any()).Return(expected, nil)

	r := jsonRPCRouter{rlspdaemon: c}
	req, _ := jsonrpc2.NewCall(jsonrpc2.NewNumberID(5), protocol.MethodInitialize, protocol.InitializeParams{})
	replier := &recordingReplier{}
	require.NoError(t, r.HandleReq(context.Background(), replier.reply, req))

	assert.Equal(t, expected, replier.result)
	assert.NoError(t, replier.err)
}

func TestInitialized(t *testing.T) {
	tests := []struct {
		name           string
		params         interface{}
		initializedErr error
		wantErr        bool
	}{
		{
			name:           "error from controller",
			params:         protocol.InitializedParams{},
			initializedErr: errors.New("initialized error"),
			wantErr:        true,
		},
		{
			name:           "no error from controller",
			params:         protocol.InitializedParams{},
			initializedErr: nil,
			wantErr:        false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			ctx := context.Background()
			replier := newMockReplier()

			c := rlspdaemonmock.NewMockController(ctrl)
			c.EXPECT().Initialized(gomock.Any(), gomock.Any()).Return(tt.initializedErr)

			r := jsonRPCRouter{rlspdaemon: c}
			req, _ := jsonrpc2.NewNotification(protocol.MethodInitialized, tt.params)
			err := r.HandleReq(ctx, replier, req)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestShutdown(t *testing.T) {
	tests := []struct {
		name            string
		controllerError error
		wantErr         bool
	}{
		{
			name:            "error from controller",
			controllerError: errors.New("controller error"),
			wantErr:         true,
		},
		{
			name:            "no error from controller",
			controllerError: nil,
			wantErr:         false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			ctx := context.Background()
			replier := newMockReplier()

			c := rlspdaemonmock.NewMockController(ctrl)
			c.EXPECT().Shutdown(gomock.Any()).Return(tt.controllerError)

			r := jsonRPCRouter{rlspdaemon: c}
			req, _ := jsonrpc2.NewCall(jsonrpc2.NewNumberID(5), protocol.MethodShutdown, nil)
			err := r.HandleReq(ctx, replier, req)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestExit(t *testing.T) {
	tests := []struct {
		name            string
		controllerError error
		wantErr         bool
	}{
		{
			name:            "error from controller",
			controllerError: errors.New("controller error"),
			wantErr:         true,
		},
		{
			name:            "no error from controller",
			controllerError: nil,
			wantErr:         false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			ctx := context.Background()

			c := rlspdaemonmock.NewMockController(ctrl)
			replier := &recordingReplier{}
			c.EXPECT().Exit(gomock.Any()).DoAndReturn(func(ctx context.Context) error {
				// The reply goes out before the connection is closed.
				assert.Equal(t, 1, replier.calls)
				return tt.controllerError
			})

			r := jsonRPCRouter{rlspdaemon: c, logger: zap.NewNop().Sugar()}
			req, _ := jsonrpc2.NewNotification(protocol.MethodExit, nil)
			err := r.HandleReq(ctx, replier.reply, req)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestExitLogsReplyError(t *testing.T) {
	ctrl := gomock.NewController(t)
	core, logs := observer.New(zap.WarnLevel)

	c := rlspdaemonmock.NewMockController(ctrl)
	c.EXPECT().Exit(gomock.Any()).Return(nil)

	r := jsonRPCRouter{rlspdaemon: c, logger: zap.New(core).Sugar()}
	req, _ := jsonrpc2.NewNotification(protocol.MethodExit, nil)
	failingReply := func(ctx context.Context, result interface{}, err error) error {
		return errors.New("connection reset")
	}

	// The session still ends when the reply cannot be written.
	require.NoError(t, r.HandleReq(context.Background(), failingReply, req))

	entries := logs.FilterMessageSnippet("replying to exit").All()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Message, "connection reset")
}
