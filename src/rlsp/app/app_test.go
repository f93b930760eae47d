package app

import (
	"testing"

	"github.com/madbrain/recette-lsp/src/rlsp/internal/core"
	"github.com/stretchr/testify/assert"
	"go.uber.org/fx"
	"go.uber.org/goleak"
)

func TestModule(t *testing.T) {
	assert.NoError(t, fx.ValidateApp(Module, fx.Supply(core.Flags{})))
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
