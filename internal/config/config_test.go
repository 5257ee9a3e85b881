package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "prevucam.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 7, cfg.PreEventSeconds)
	assert.Equal(t, 7, cfg.PostEventSeconds)
	assert.False(t, cfg.ExtendOnMotion)
	assert.Equal(t, 400.0, cfg.Motion.MinContourArea)
	assert.Equal(t, 20, cfg.Motion.WindowSize)
	assert.Equal(t, 5, cfg.Motion.Threshold)
	assert.Equal(t, 25, cfg.Motion.DiffThreshold)
	assert.Equal(t, 21, cfg.Motion.BlurKernel)
	assert.Equal(t, 30, cfg.Video.DefaultFps)

	assert.Equal(t, 210, cfg.PreEventFrames(30))
	assert.Equal(t, 175, cfg.PostEventFrames(25))
}

func TestLoad_MergesDefaults(t *testing.T) {
	path := writeConfig(t, `
pre_event_seconds: 3
extend_on_motion: true
motion:
  threshold: 8
encoder:
  enabled: false
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.PreEventSeconds)
	assert.Equal(t, 7, cfg.PostEventSeconds)
	assert.True(t, cfg.ExtendOnMotion)
	assert.Equal(t, 8, cfg.Motion.Threshold)
	assert.Equal(t, 20, cfg.Motion.WindowSize)
	assert.False(t, cfg.Encoder.Enabled)
	assert.Equal(t, "mp4v", cfg.Video.Codec)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		errMsg string
	}{
		{name: "syntax", body: "motion: [", errMsg: "failed to parse config"},
		{name: "threshold above window", body: "motion:\n  threshold: 30\n", errMsg: "motion.threshold"},
		{name: "even kernel", body: "motion:\n  blur_kernel: 20\n", errMsg: "motion.blur_kernel"},
		{name: "negative pre", body: "pre_event_seconds: -1\n", errMsg: "pre_event_seconds"},
		{name: "bad codec", body: "video:\n  codec: h264x\n", errMsg: "video.codec"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
