package observability

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewCLILogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewCLILogger(zapcore.AddSync(&buf), "fsdv", zapcore.InfoLevel)

	logger.Debug("hidden")
	logger.Info("validated", zap.String("source", "a.json"))
	require.NoError(t, logger.Sync())

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "INFO")
	assert.Contains(t, out, "fsdv")
	assert.Contains(t, out, "validated")
	assert.Contains(t, out, `"source": "a.json"`)
}

func TestInitCLILogger(t *testing.T) {
	orig := CLILogger
	defer func() { CLILogger = orig }()

	InitCLILogger("test", true)
	assert.Equal(t, zapcore.DebugLevel, Level())

	InitCLILogger("test", false)
	assert.Equal(t, zapcore.InfoLevel, Level())
	assert.NotNil(t, CLILogger)
}

func TestSetLevel(t *testing.T) {
	defer func() { _ = SetLevel("info") }()

	require.NoError(t, SetLevel("WARN"))
	assert.Equal(t, zapcore.WarnLevel, Level())

	assert.Error(t, SetLevel("loud"))
	assert.Equal(t, zapcore.WarnLevel, Level())
}
