package insulation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	testCases := []struct {
		level    string
		expected zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{" WARN ", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
		{"verbose", zapcore.InfoLevel},
	}
	for _, tc := range testCases {
		logger, err := NewLogger(tc.level)
		require.NoError(t, err)
		assert.True(t, logger.Core().Enabled(tc.expected), tc.level)
		if tc.expected > zapcore.DebugLevel {
			assert.False(t, logger.Core().Enabled(tc.expected-1), tc.level)
		}
	}
}
