package main

import (
	"testing"

	"github.com/madbrain/recette-lsp/src/rlsp/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/goleak"
)

func TestDependenciesAreSatisfied(t *testing.T) {
	assert.NoError(t, fx.ValidateApp(opts(core.Flags{})))
}

func TestRootCmdFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
	}{
		{
			name: "config dir",
			args: []string{"--config-dir", "/etc/recette-lsp"},
		},
		{
			name:    "stdio and listen together",
			args:    []string{"--stdio", "--listen", "127.0.0.1:0"},
			wantErr: true,
		},
		{
			name:    "positional arguments",
			args:    []string{"extra"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newRootCmd()
			require.NoError(t, cmd.ParseFlags(tt.args))

			err := cmd.ValidateArgs(cmd.Flags().Args())
			if err == nil {
				err = cmd.ValidateFlagGroups()
			}
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
