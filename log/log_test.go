package log_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipelined/timeline/log"
)

func TestNew(t *testing.T) {
	file := filepath.Join(t.TempDir(), "logs", "timeline.log")
	l, err := log.New(log.Config{
		Level:   "WARN",
		JSON:    true,
		File:    file,
		MaxSize: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, logrus.WarnLevel, l.GetLevel())

	l.WithField("track", "drums").Warn("rotated output")
	content, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"track":"drums"`)
}

func TestNewUnknownLevel(t *testing.T) {
	l, err := log.New(log.Config{Level: "loud"})
	require.NoError(t, err)
	assert.Equal(t, log.GetLogger().GetLevel(), l.GetLevel())
}
