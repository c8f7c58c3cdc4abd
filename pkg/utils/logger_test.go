package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		debug     bool
		debugLogs bool
	}{
		{name: "debug", debug: true, debugLogs: true},
		{name: "production", debug: false, debugLogs: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.debug)
			require.NoError(t, err)
			require.NotNil(t, logger)
			assert.Equal(t, tt.debugLogs, logger.Core().Enabled(zap.DebugLevel))
			_ = logger.Sync()
		})
	}
}
