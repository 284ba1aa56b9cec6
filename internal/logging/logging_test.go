package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	cases := map[string]zapcore.Level{
		"":      zapcore.InfoLevel,
		"debug": zapcore.DebugLevel,
		"WARN":  zapcore.WarnLevel,
		"bogus": zapcore.InfoLevel,
	}
	for level, want := range cases {
		logger, err := New("test", level)
		require.NoError(t, err)
		assert.True(t, logger.Core().Enabled(want), level)
		assert.False(t, logger.Core().Enabled(want-1), level)
	}
}
