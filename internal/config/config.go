package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the tunables of a processing run.
type Config struct {
	PreEventSeconds  int  `yaml:"pre_event_seconds"`
	PostEventSeconds int  `yaml:"post_event_seconds"`
	ExtendOnMotion   bool `yaml:"extend_on_motion"` // re-arm the post-event countdown while motion continues

	Motion  MotionConfig  `yaml:"motion"`
	Video   VideoConfig   `yaml:"video"`
	Encoder EncoderConfig `yaml:"encoder"`
}

// MotionConfig controls the per-frame classifier and the sliding window.
type MotionConfig struct {
	MinContourArea   float64 `yaml:"min_contour_area"`  // px²
	WindowSize       int     `yaml:"window_size"`       // samples
	Threshold        int     `yaml:"threshold"`         // true samples out of window_size
	DiffThreshold    int     `yaml:"diff_threshold"`    // 0-255
	BlurKernel       int     `yaml:"blur_kernel"`       // odd
	DilateIterations int     `yaml:"dilate_iterations"`
}

type VideoConfig struct {
	DefaultFps int    `yaml:"default_fps"` // used when the source reports none
	Codec      string `yaml:"codec"`       // fourcc of the raw stream
}

type EncoderConfig struct {
	Enabled bool   `yaml:"enabled"`
	FFmpeg  string `yaml:"ffmpeg"`
	Preset  string `yaml:"preset"`
}

func Default() Config {
	return Config{
		PreEventSeconds:  7,
		PostEventSeconds: 7,
		Motion: MotionConfig{
			MinContourArea:   400,
			WindowSize:       20,
			Threshold:        5,
			DiffThreshold:    25,
			BlurKernel:       21,
			DilateIterations: 2,
		},
		Video: VideoConfig{
			DefaultFps: 30,
			Codec:      "mp4v",
		},
		Encoder: EncoderConfig{
			Enabled: true,
			FFmpeg:  "ffmpeg",
			Preset:  "fast",
		},
	}
}

// Load reads a YAML file over the defaults. Keys missing from the file keep
// their default value.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.PreEventSeconds < 0 {
		errs = append(errs, fmt.Errorf("pre_event_seconds must be >= 0, got %d", c.PreEventSeconds))
	}
	if c.PostEventSeconds < 0 {
		errs = append(errs, fmt.Errorf("post_event_seconds must be >= 0, got %d", c.PostEventSeconds))
	}
	if c.Motion.MinContourArea < 0 {
		errs = append(errs, fmt.Errorf("motion.min_contour_area must be >= 0, got %v", c.Motion.MinContourArea))
	}
	if c.Motion.WindowSize < 1 {
		errs = append(errs, fmt.Errorf("motion.window_size must be >= 1, got %d", c.Motion.WindowSize))
	}
	if c.Motion.Threshold < 1 || c.Motion.Threshold > c.Motion.WindowSize {
		errs = append(errs, fmt.Errorf("motion.threshold must be in [1, %d], got %d", c.Motion.WindowSize, c.Motion.Threshold))
	}
	if c.Motion.DiffThreshold < 0 || c.Motion.DiffThreshold > 255 {
		errs = append(errs, fmt.Errorf("motion.diff_threshold must be in [0, 255], got %d", c.Motion.DiffThreshold))
	}
	if c.Motion.BlurKernel < 1 || c.Motion.BlurKernel%2 == 0 {
		errs = append(errs, fmt.Errorf("motion.blur_kernel must be a positive odd number, got %d", c.Motion.BlurKernel))
	}
	if c.Motion.DilateIterations < 0 {
		errs = append(errs, fmt.Errorf("motion.dilate_iterations must be >= 0, got %d", c.Motion.DilateIterations))
	}
	if c.Video.DefaultFps < 1 {
		errs = append(errs, fmt.Errorf("video.default_fps must be >= 1, got %d", c.Video.DefaultFps))
	}
	if len(c.Video.Codec) != 4 {
		errs = append(errs, fmt.Errorf("video.codec must be a fourcc, got %q", c.Video.Codec))
	}
	if c.Encoder.Enabled && c.Encoder.FFmpeg == "" {
		errs = append(errs, errors.New("encoder.ffmpeg is required when the encoder is enabled"))
	}

	return errors.Join(errs...)
}

// PreEventFrames is the pre-roll capacity at the resolved frame rate.
func (c *Config) PreEventFrames(fps int) int {
	return fps * c.PreEventSeconds
}

// PostEventFrames is the post-event countdown at the resolved frame rate.
func (c *Config) PostEventFrames(fps int) int {
	return fps * c.PostEventSeconds
}
