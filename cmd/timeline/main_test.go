package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipelined/timeline/signal"
	"github.com/pipelined/timeline/test"
	"github.com/pipelined/timeline/wav"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("TIMELINE_LOG_LEVEL", "error")
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(append(args, "--env", filepath.Join(t.TempDir(), "missing.env")))
	err := rootCmd.Execute()
	return out.String(), err
}

func writeManifest(t *testing.T) string {
	t.Helper()
	source := test.SineWav(t, "sine.wav", signal.DefaultFormat, time.Second)
	path := filepath.Join(t.TempDir(), "song.yaml")
	manifest := fmt.Sprintf("tracks:\n  - name: lead\n    clips:\n      - path: %s\n        start: 500ms\n", source)
	require.NoError(t, os.WriteFile(path, []byte(manifest), 0644))
	return path
}

func TestCommands(t *testing.T) {
	manifest := writeManifest(t)
	tests := []struct {
		description string
		args        []string
		contains    []string
		err         bool
	}{
		{
			description: "formats",
			args:        []string{"formats"},
			contains:    []string{"sources: .mp3 .wav", "export: wav flac mp3 ogg"},
		},
		{
			description: "info",
			args:        []string{"info", manifest},
			contains:    []string{"duration: 10s", "=== lead: 1 clips ===", "sine: 500ms - 1.5s (1s)"},
		},
		{
			description: "info dump",
			args:        []string{"info", manifest, "--dump"},
			contains:    []string{"ClipInfo", "Name: (string) (len=4) \"sine\""},
		},
		{
			description: "missing manifest",
			args:        []string{"info", filepath.Join(t.TempDir(), "missing.yaml")},
			err:         true,
		},
		{
			description: "render unsupported format",
			args:        []string{"render", manifest, "out.wav", "--format", "aac"},
			err:         true,
		},
		{
			description: "missing arguments",
			args:        []string{"render", manifest},
			err:         true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
		})
	}
}

func TestRender(t *testing.T) {
	manifest := writeManifest(t)
	path := filepath.Join(t.TempDir(), "mix.out")
	out, err := execute(t, "render", manifest, path, "--format", "wav")
	require.NoError(t, err)
	assert.Contains(t, out, " 10% rendering")
	assert.Contains(t, out, "100% exported to "+path)
	assert.Contains(t, out, "export.render ")
	assert.Contains(t, out, " frames=")

	a, err := wav.Decode(path)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, a.Duration())
}
