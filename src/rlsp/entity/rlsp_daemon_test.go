package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionStateString(t *testing.T) {
	tests := []struct {
		state SessionState
		want  string
	}{
		{SessionStateUninitialized, "uninitialized"},
		{SessionStateInitializing, "initializing"},
		{SessionStateInitialized, "initialized"},
		{SessionStateShutDown, "shut down"},
		{SessionState(42), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.state.String())
		})
	}
}

func TestAcceptsDocumentEvents(t *testing.T) {
	assert.False(t, SessionStateUninitialized.AcceptsDocumentEvents())
	assert.False(t, SessionStateInitializing.AcceptsDocumentEvents())
	assert.True(t, SessionStateInitialized.AcceptsDocumentEvents())
	assert.False(t, SessionStateShutDown.AcceptsDocumentEvents())
}
