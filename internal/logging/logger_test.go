package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLevel(t *testing.T) {
	cases := map[string]logrus.Level{
		"debug":   logrus.DebugLevel,
		"DEBUG":   logrus.DebugLevel,
		" info ":  logrus.InfoLevel,
		"warn":    logrus.WarnLevel,
		"warning": logrus.WarnLevel,
		"error":   logrus.ErrorLevel,
		"fatal":   logrus.FatalLevel,
		"trace":   logrus.TraceLevel,
		"":        logrus.InfoLevel,
		"verbose": logrus.InfoLevel,
	}
	for in, want := range cases {
		assert.Equal(t, want, GetLevel(in), "level %q", in)
	}
}

func TestSetup_LogFile(t *testing.T) {
	origOut := logrus.StandardLogger().Out
	origLevel := logrus.GetLevel()
	origFormatter := logrus.StandardLogger().Formatter
	t.Cleanup(func() {
		logrus.SetOutput(origOut)
		logrus.SetLevel(origLevel)
		logrus.SetFormatter(origFormatter)
	})

	dir := t.TempDir()
	Setup(LoggerSetupParams{
		LogFileName:   filepath.Join(dir, "api"),
		LogLevel:      "warn",
		LogFormatJSON: true,
	})

	assert.Equal(t, logrus.WarnLevel, logrus.GetLevel())

	logrus.WithField("component", "test").Warn("disk almost full")

	data, err := os.ReadFile(filepath.Join(dir, "api.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"disk almost full"`)
	assert.Contains(t, string(data), `"component":"test"`)
}

func TestSentryHook_NoClient(t *testing.T) {
	hook := &SentryHook{
		levels: []logrus.Level{logrus.ErrorLevel},
		hub:    sentry.NewHub(nil, sentry.NewScope()),
	}

	assert.Equal(t, []logrus.Level{logrus.ErrorLevel}, hook.Levels())

	entry := logrus.NewEntry(logrus.New())
	entry.Message = "boom"
	entry.Level = logrus.ErrorLevel
	assert.NoError(t, hook.Fire(entry))
}

func TestSentryLevel(t *testing.T) {
	assert.Equal(t, sentry.LevelFatal, sentryLevel(logrus.PanicLevel))
	assert.Equal(t, sentry.LevelFatal, sentryLevel(logrus.FatalLevel))
	assert.Equal(t, sentry.LevelError, sentryLevel(logrus.ErrorLevel))
	assert.Equal(t, sentry.LevelWarning, sentryLevel(logrus.WarnLevel))
	assert.Equal(t, sentry.LevelDebug, sentryLevel(logrus.TraceLevel))
}
