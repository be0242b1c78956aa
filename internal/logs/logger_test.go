package logs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hookguard/hookguard-go/internal/config"
)

func TestSetupLogger_ConsoleOnly(t *testing.T) {
	logger, err := SetupLogger(&config.LogConfig{Level: "info", EnableConsole: true}, t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, logger)
	_ = logger.Sync()
}

func TestSetupLogger_NilConfigUsesDefaults(t *testing.T) {
	logger, err := SetupLogger(nil, t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, logger)
}

func TestSetupLogger_NoOutputsFails(t *testing.T) {
	_, err := SetupLogger(&config.LogConfig{EnableConsole: false, EnableFile: false}, t.TempDir())
	require.Error(t, err)
}

func TestSetupLogger_FileOutput(t *testing.T) {
	dataDir := t.TempDir()
	logger, err := SetupLogger(&config.LogConfig{
		Level:      "debug",
		EnableFile: true,
		Filename:   "test.log",
		MaxSize:    1,
	}, dataDir)
	require.NoError(t, err)

	logger.Info("file output probe")
	_ = logger.Sync()

	data, err := os.ReadFile(filepath.Join(dataDir, "logs", "test.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "file output probe")
}

func TestSetupCommandLogger_VerboseRaisesToDebug(t *testing.T) {
	logger, err := SetupCommandLogger(true, nil, t.TempDir())
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))

	quiet, err := SetupCommandLogger(false, nil, t.TempDir())
	require.NoError(t, err)
	assert.False(t, quiet.Core().Enabled(zap.InfoLevel))
	assert.True(t, quiet.Core().Enabled(zap.WarnLevel))
}

func TestParseLevel_UnknownFallsBackToWarn(t *testing.T) {
	assert.Equal(t, zap.WarnLevel, parseLevel("chatty"))
}
