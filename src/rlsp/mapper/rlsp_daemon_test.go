package mapper

import (
	"context"
	"testing"

	"github.com/madbrain/recette-lsp/src/rlsp/entity"
	"github.com/madbrain/recette-lsp/src/rlsp/factory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lsp.dev/protocol"
)

func TestSessionModelRoundTrip(t *testing.T) {
	s := &entity.Session{
		UUID:             factory.UUID(),
		State:            entity.SessionStateInitialized,
		InitializeParams: &protocol.InitializeParams{},
	}

	m := SessionToModel(s)
	assert.Equal(t, int(entity.SessionStateInitialized), m.State)

	result, err := ModelToSession(m)
	require.NoError(t, err)
	assert.Equal(t, s, result)
}

func TestUUIDToSession(t *testing.T) {
	id := factory.UUID()
	s := UUIDToSession(id, nil)
	assert.Equal(t, id, s.UUID)
	assert.Equal(t, entity.SessionStateUninitialized, s.State)
}

func TestContextToSessionUUID(t *testing.T) {
	t.Run("uuid present", func(t *testing.T) {
		id := factory.UUID()
		ctx := context.WithValue(context.Background(), entity.SessionContextKey, id)
		result, err := ContextToSessionUUID(ctx)
		assert.NoError(t, err)
		assert.Equal(t, id, result)
	})

	t.Run("uuid missing", func(t *testing.T) {
		_, err := ContextToSessionUUID(context.Background())
		assert.Error(t, err)
	})
}
