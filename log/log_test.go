package log

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type fakeID struct {
	key string
}

func (id fakeID) Field() Field {
	return String("node_id", id.key)
}

func TestLogLevelFiltering(t *testing.T) {
	r := require.New(t)

	hooked := 0
	hookFn := func(entry zapcore.Entry) error {
		hooked++
		r.Equal(zapcore.InfoLevel, entry.Level, "got wrong log level")
		return nil
	}

	var buf bytes.Buffer
	original := logWriter
	logWriter = &buf
	defer func() { logWriter = original }()

	encoderCfg := zap.NewDevelopmentEncoderConfig()
	encoderCfg.TimeKey = ""
	encoder := zapcore.NewConsoleEncoder(encoderCfg)

	logger := NewWithLevel("test-logger", zap.NewAtomicLevelAt(zapcore.InfoLevel), encoder, hookFn).
		WithFields(fakeID{key: "abc123"})

	logger.Debug("should not appear")
	r.Zero(buf.Len())

	logger.Info("should appear")
	r.Contains(buf.String(), "should appear")
	r.Contains(buf.String(), "abc123")
	r.Equal(1, hooked)
}

func TestWithNameNamespaces(t *testing.T) {
	encoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	parent := NewWithLevel("parent", zap.NewAtomicLevelAt(zapcore.InfoLevel), encoder)
	child := parent.WithName("child")

	require.NotEqual(t, parent, child)
}

func TestSetupGlobalAndGetLogger(t *testing.T) {
	encoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	custom := NewWithLevel("custom", zap.NewAtomicLevelAt(zapcore.DebugLevel), encoder)
	SetupGlobal(custom)

	require.NotPanics(t, func() {
		GetLogger().Info("hello")
	})
}
