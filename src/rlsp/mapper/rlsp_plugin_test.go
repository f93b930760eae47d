package mapper

import (
	"context"
	"fmt"
	"testing"

	rlspplugin "github.com/madbrain/recette-lsp/src/rlsp/entity/rlsp-plugin"
	"github.com/madbrain/recette-lsp/src/rlsp/factory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lsp.dev/protocol"
)

func TestPluginInfoToRuntimePrioritizedMethods(t *testing.T) {
	methodExamples := make([]*rlspplugin.Methods, 4)
	for i := range methodExamples {
		methodExamples[i] = &rlspplugin.Methods{
			PluginNameKey: fmt.Sprintf("test-plugin-%v", i),
			DidOpen: func(ctx context.Context, params *protocol.DidOpenTextDocumentParams) error {
				return nil
			},
		}
	}
	info := func(i int, priority rlspplugin.Priority) rlspplugin.PluginInfo {
		return rlspplugin.PluginInfo{
			Priorities: map[string]rlspplugin.Priority{protocol.MethodTextDocumentDidOpen: priority},
			Methods:    methodExamples[i],
			NameKey:    methodExamples[i].PluginNameKey,
		}
	}

	t.Run("valid plugins", func(t *testing.T) {
		allPluginInfo := []rlspplugin.PluginInfo{
			info(0, rlspplugin.PriorityRegular),
			info(1, rlspplugin.PriorityAsync),
			info(2, rlspplugin.PriorityHigh),
			info(3, rlspplugin.PriorityRegular),
		}

		result, err := PluginInfoToRuntimePrioritizedMethods(allPluginInfo)
		require.NoError(t, err)

		lists := result[protocol.MethodTextDocumentDidOpen]
		assert.Equal(t, []*rlspplugin.Methods{methodExamples[2], methodExamples[0], methodExamples[3]}, lists.Sync)
		assert.Equal(t, []*rlspplugin.Methods{methodExamples[1]}, lists.Async)
	})

	t.Run("validation failure", func(t *testing.T) {
		_, err := PluginInfoToRuntimePrioritizedMethods([]rlspplugin.PluginInfo{factory.PluginInfoValid(0), factory.PluginInfoInvalid(1)})
		assert.ErrorContains(t, err, "error validating plugin configuration")
	})

	t.Run("duplicate plugin", func(t *testing.T) {
		_, err := PluginInfoToRuntimePrioritizedMethods([]rlspplugin.PluginInfo{factory.PluginInfoValid(0), factory.PluginInfoValid(0)})
		assert.ErrorContains(t, err, "registered more than once")
	})

	t.Run("no plugins", func(t *testing.T) {
		result, err := PluginInfoToRuntimePrioritizedMethods(nil)
		require.NoError(t, err)
		assert.Empty(t, result)
	})
}
