package jsonrpcfx

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/madbrain/recette-lsp/idl/mock/configmock"
	"github.com/madbrain/recette-lsp/idl/mock/fxmock"
	"github.com/madbrain/recette-lsp/idl/mock/jsonrpc2mock"
	"github.com/madbrain/recette-lsp/src/rlsp/internal/serverinfofile/serverinfofilemock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/config"
	"go.uber.org/fx/fxtest"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

func TestNew(t *testing.T) {
	ctrl := gomock.NewController(t)
	lifecycleMock := fxtest.NewLifecycle(t)

	tests := []struct {
		name          string
		params        Params
		wantErr       bool
		wantTransport string
	}{
		{
			name:    "missing required params",
			params:  Params{},
			wantErr: true,
		},
		{
			name: "tcp transport",
			params: Params{
				Lifecycle: lifecycleMock,
				Config:    newMockConfigProvider(ctrl, "valid"),
			},
			wantTransport: TransportTCP,
		},
		{
			name: "stdio by default",
			params: Params{
				Lifecycle: lifecycleMock,
				Config:    newMockConfigProvider(ctrl, "empty"),
			},
			wantTransport: TransportStdio,
		},
		{
			name: "unsupported transport",
			params: Params{
				Lifecycle: lifecycleMock,
				Config:    newMockConfigProvider(ctrl, "badTransport"),
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := New(tt.params)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantTransport, m.(*module).Transport)
			}
		})
	}
}

func TestRegisterConnectionManager(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := module{}

	mockConnectionManager := NewMockConnectionManager(ctrl)

	// first call should return no error
	err := m.RegisterConnectionManager(mockConnectionManager)
	assert.NoError(t, err)

	// duplicate call should return error
	err = m.RegisterConnectionManager(mockConnectionManager)
	assert.Error(t, err)
}

func TestServeStream(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx := context.Background()

	mockServer := module{
		logger: zap.NewNop().Sugar(),
	}

	mockUUID, _ := uuid.NewV4()
	mockRouter := NewMockRouter(ctrl)
	mockRouter.EXPECT().UUID().Return(mockUUID).AnyTimes()

	mockConnectionManager := NewMockConnectionManager(ctrl)
	mockConnectionManager.EXPECT().RemoveConnection(ctx, mockUUID)

	conn := jsonrpc2mock.NewMockConn(ctrl)
	conn.EXPECT().Go(gomock.Any(), gomock.Any())

	// Return a channel and immediately close it.
	c := make(chan struct{})
	conn.EXPECT().Done().Return(c)
	close(c)

	conn.EXPECT().Err()

	tests := []struct {
		name                        string
		connectionManagerRegistered bool
		wantErr                     bool

		// Return values from NewConnection
		routerReturnVal Router
		errReturnVal    error
	}{
		{
			name:    "no connection manager registered",
			wantErr: true,
		},
		{
			name:    "failed NewConnection",
			wantErr: true,

			connectionManagerRegistered: true,
			errReturnVal:                errors.New("sample error"),
		},
		{
			name:    "successful NewConnection",
			wantErr: false,

			connectionManagerRegistered: true,
			routerReturnVal:             mockRouter,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.connectionManagerRegistered && mockServer.connectionMgr == nil {
				mockServer.RegisterConnectionManager(mockConnectionManager)
			}

			if tt.routerReturnVal != nil || tt.errReturnVal != nil {
				mockConnectionManager.EXPECT().NewConnection(gomock.Any(), gomock.Any()).Return(tt.routerReturnVal, tt.errReturnVal)
			}

			err := mockServer.ServeStream(ctx, conn)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSetup(t *testing.T) {
	m := module{
		logger: zap.NewNop().Sugar(),
	}
	err := m.setup()
	assert.Error(t, err)

	m = module{Address: "127.0.0.1:0"}
	err = m.setup()
	require.NoError(t, err)
	assert.NoError(t, m.ln.Close())
}

func TestProcessConfig(t *testing.T) {
	tests := []struct {
		name        string
		configKey   string
		wantErr     bool
		errorString string
	}{
		{
			name:      "valid configuration",
			configKey: "valid",
			wantErr:   false,
		},
		{
			name:      "stdio needs no address",
			configKey: "stdio",
			wantErr:   false,
		},
		{
			name:        "missing address key",
			configKey:   "missingKey",
			wantErr:     true,
			errorString: "missing field \"jsonrpc.address\" in config",
		},
		{
			name:        "missing address value",
			configKey:   "missingValue",
			wantErr:     true,
			errorString: "missing field \"jsonrpc.address\" in config",
		},
		{
			name:        "incorrectly formatted entry",
			configKey:   "formatProblem",
			wantErr:     true,
			errorString: "getting config field \"jsonrpc.address\": yaml: unmarshal errors:\n  line 1: cannot unmarshal !!map into string",
		},
		{
			name:        "unsupported transport",
			configKey:   "badTransport",
			wantErr:     true,
			errorString: "unsupported value \"pigeon\" for config field \"jsonrpc.transport\"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gomockCtrl := gomock.NewController(t)
			cfg := newMockConfigProvider(gomockCtrl, tt.configKey)

			m := module{
				logger: zap.NewNop().Sugar(),
			}
			err := m.processConfig(cfg)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, tt.errorString, err.Error())
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestOnStartTCP(t *testing.T) {
	t.Run("invalid address", func(t *testing.T) {
		m := module{
			Transport: TransportTCP,
			logger:    zap.NewNop().Sugar(),
		}
		assert.Error(t, m.OnStart(context.Background()))
	})

	t.Run("serves until stopped", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		infoFileMock := serverinfofilemock.NewMockServerInfoFile(ctrl)

		m := module{
			Transport:      TransportTCP,
			Address:        "127.0.0.1:0",
			serverInfoFile: infoFileMock,
			logger:         zap.NewNop().Sugar(),
		}

		saved := make(chan string, 1)
		infoFileMock.EXPECT().UpdateField(_outputKey, gomock.Any()).DoAndReturn(func(key, value string) error {
			saved <- value
			return nil
		})

		require.NoError(t, m.OnStart(context.Background()))
		select {
		case address := <-saved:
			assert.Equal(t, m.ln.Addr().String(), address)
		case <-time.After(5 * time.Second):
			t.Fatal("address was not saved")
		}
		assert.NoError(t, m.OnStop(context.Background()))
	})
}

func TestOnStartStdio(t *testing.T) {
	ctrl := gomock.NewController(t)

	serverStdin, editorOut := io.Pipe()
	editorIn, serverStdout := io.Pipe()
	defer editorIn.Close()

	id, _ := uuid.NewV4()
	mockRouter := NewMockRouter(ctrl)
	mockRouter.EXPECT().UUID().Return(id).AnyTimes()

	mockConnectionManager := NewMockConnectionManager(ctrl)
	mockConnectionManager.EXPECT().NewConnection(gomock.Any(), gomock.Any()).Return(mockRouter, nil)
	mockConnectionManager.EXPECT().RemoveConnection(gomock.Any(), id)

	stopped := make(chan struct{})
	shutdowner := fxmock.NewMockShutdowner(ctrl)
	shutdowner.EXPECT().Shutdown().DoAndReturn(func(...interface{}) error {
		close(stopped)
		return nil
	})

	m := module{
		Transport:     TransportStdio,
		logger:        zap.NewNop().Sugar(),
		connectionMgr: mockConnectionManager,
		shutdowner:    shutdowner,
		stdin:         serverStdin,
		stdout:        serverStdout,
	}

	require.NoError(t, m.OnStart(context.Background()))

	// The editor going away closes the server input.
	require.NoError(t, editorOut.Close())

	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown was not requested")
	}
	assert.NoError(t, m.OnStop(context.Background()))
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newMockConfigProvider(ctrl *gomock.Controller, configKey string) config.Provider {
	configs := map[string]string{
		"valid": `
jsonrpc:
  transport: tcp
  address: :5859`,
		"stdio": `
jsonrpc:
  transport: stdio`,
		"empty": `
jsonrpc: {}`,
		"missingKey": `
jsonrpc:
  transport: tcp`,
		"missingValue": `
jsonrpc:
  transport: tcp
  address:`,
		"formatProblem": `
jsonrpc:
  transport: tcp
  address:
    key: val`,
		"badTransport": `
jsonrpc:
  transport: pigeon`,
	}

	yamlProv, _ := config.NewYAML(config.Source(strings.NewReader(configs[configKey])))
	configProviderMock := configmock.NewMockProvider(ctrl)
	configProviderMock.EXPECT().Get(ConfigKeyTransport).Return(yamlProv.Get(ConfigKeyTransport)).AnyTimes()
	configProviderMock.EXPECT().Get(_configKeyAddress).Return(yamlProv.Get(_configKeyAddress)).AnyTimes()
	return configProviderMock
}
