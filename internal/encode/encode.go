package encode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

var ErrEncodeFailure = errors.New("encode failure")

// Encoder turns the raw stream written by the detector into the final
// artifact.
type Encoder interface {
	Name() string
	Normalize(ctx context.Context, raw, final string) error
}

// FFmpeg re-encodes to H.264/yuv420p with the moov atom up front so browsers
// can start playback before the download completes.
type FFmpeg struct {
	Binary string
	Preset string
}

func NewFFmpeg(binary, preset string) *FFmpeg {
	if binary == "" {
		binary = "ffmpeg"
	}
	if preset == "" {
		preset = "fast"
	}
	return &FFmpeg{Binary: binary, Preset: preset}
}

func (f *FFmpeg) Name() string {
	return "ffmpeg"
}

func (f *FFmpeg) Args(raw, final string) []string {
	return []string{
		"-y",
		"-i", raw,
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-preset", f.Preset,
		"-movflags", "+faststart",
		final,
	}
}

func (f *FFmpeg) Normalize(ctx context.Context, raw, final string) error {
	bin, err := exec.LookPath(f.Binary)
	if err != nil {
		return fmt.Errorf("%w: ffmpeg binary not found: %v", ErrEncodeFailure, err)
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, f.Args(raw, final)...)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: ffmpeg: %v (stderr: %s)", ErrEncodeFailure, err, lastLine(stderr.String()))
	}
	return nil
}

// Copy forwards the raw stream unchanged.
type Copy struct{}

func (Copy) Name() string {
	return "copy"
}

func (Copy) Normalize(_ context.Context, raw, final string) error {
	return copyFile(raw, final)
}

// Finalize runs enc and falls back to copying the raw stream when it fails.
// It returns the name of the encoder that produced final and whether the
// fallback was used. An error is returned if the fallback fails too, or if
// ctx ends while enc runs; no fallback is attempted in that case.
func Finalize(ctx context.Context, enc Encoder, raw, final string, logger *zap.SugaredLogger) (string, bool, error) {
	if enc == nil {
		enc = Copy{}
	}

	err := enc.Normalize(ctx, raw, final)
	if err == nil {
		return enc.Name(), false, nil
	}
	if cerr := ctx.Err(); cerr != nil {
		return enc.Name(), false, cerr
	}
	if _, isCopy := enc.(Copy); isCopy {
		return enc.Name(), false, fmt.Errorf("%w: %v", ErrEncodeFailure, err)
	}

	logger.Warnw("Encoder failed, falling back to raw copy",
		"encoder", enc.Name(),
		"raw", raw,
		"output", final,
		"error", err)

	if cerr := copyFile(raw, final); cerr != nil {
		return enc.Name(), true, fmt.Errorf("%w: %v; fallback copy: %v", ErrEncodeFailure, err, cerr)
	}
	return Copy{}.Name(), true, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
