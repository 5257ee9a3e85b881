package trim

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/kmmndr/prevucam/internal/config"
	"github.com/kmmndr/prevucam/internal/encode"
	"github.com/kmmndr/prevucam/internal/motion"
	"github.com/kmmndr/prevucam/internal/video"

	uuid "github.com/gofrs/uuid/v5"
	"go.uber.org/zap"
)

var (
	ErrInputNotFound    = errors.New("input not found")
	ErrSourceUnreadable = errors.New("source unreadable")
	ErrNoEventsDetected = errors.New("no motion events detected")
)

type Options struct {
	Config config.Config
	// Encoder overrides the one derived from Config.Encoder.
	Encoder encode.Encoder
	Logger  *zap.SugaredLogger
}

// Run extracts the motion events of input into output. The raw stream lives
// in a temporary directory private to the run. The returned report is
// populated as far as the run got, even on error.
func Run(ctx context.Context, input, output string, opts Options) (*motion.Report, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	cfg := opts.Config

	ref, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("failed to generate UUID: %w", err)
	}
	report := motion.NewReport(ref.String(), nil, 0)
	report.Input = input
	report.Output = output
	logger = logger.With("run_id", report.RunID)

	if err := checkInput(input); err != nil {
		return report, err
	}

	stream, err := video.NewFileStream(input)
	if err != nil {
		return report, fmt.Errorf("%w: %v", ErrSourceUnreadable, err)
	}
	defer stream.Close()

	fps, fallback := video.ResolveFps(stream.Fps(), cfg.Video.DefaultFps)
	width, height := stream.Size()
	report.Fps, report.FpsFallback = fps, fallback
	report.Width, report.Height = width, height
	if width <= 0 || height <= 0 {
		return report, fmt.Errorf("%w: %s reports %dx%d frames", ErrSourceUnreadable, input, width, height)
	}

	logger.Infow("Processing video",
		"input", input,
		"width", width,
		"height", height,
		"fps", fps,
		"fps_fallback", fallback)

	tmp, err := os.MkdirTemp("", "prevucam-")
	if err != nil {
		return report, err
	}
	defer os.RemoveAll(tmp)

	raw := filepath.Join(tmp, "raw"+rawExtension(cfg.Video.Codec))

	result, err := detect(ctx, cfg, stream, raw, fps, width, height, logger)
	if result != nil {
		report.FramesRead = result.FramesRead
		report.FramesWritten = result.FramesWritten
		for _, e := range result.Events {
			report.Events = append(report.Events, motion.NewEventReport(e, fps))
		}
	}
	if errors.Is(err, video.ErrShortRead) {
		return report, fmt.Errorf("%w: %v", ErrSourceUnreadable, err)
	}
	if err != nil {
		return report, err
	}

	logger.Infow("Detection finished",
		"frames", result.FramesRead,
		"written", result.FramesWritten,
		"events", len(result.Events))

	if result.FramesWritten == 0 {
		return report, ErrNoEventsDetected
	}

	enc := opts.Encoder
	if enc == nil {
		enc = encoderFor(cfg.Encoder)
	}
	name, fellBack, err := encode.Finalize(ctx, enc, raw, output, logger)
	report.Encoder, report.EncodeFallback = name, fellBack
	if err != nil {
		return report, err
	}

	info, err := os.Stat(output)
	if err != nil {
		return report, err
	}
	report.OutputBytes = info.Size()

	logger.Infow("Output written",
		"output", output,
		"encoder", name,
		"bytes", info.Size())

	return report, nil
}

func detect(ctx context.Context, cfg config.Config, stream *video.Stream, raw string, fps, width, height int, logger *zap.SugaredLogger) (*motion.Result, error) {
	writer, err := video.NewWriter(raw, cfg.Video.Codec, fps, width, height)
	if err != nil {
		return nil, err
	}

	classifier := motion.NewContourClassifier(motion.ClassifierConfig{
		BlurKernel:       cfg.Motion.BlurKernel,
		DiffThreshold:    float32(cfg.Motion.DiffThreshold),
		DilateIterations: cfg.Motion.DilateIterations,
		MinContourArea:   cfg.Motion.MinContourArea,
	})
	defer classifier.Close()

	detector := motion.NewDetector(motion.Config{
		PreEventFrames:  cfg.PreEventFrames(fps),
		PostEventFrames: cfg.PostEventFrames(fps),
		WindowSize:      cfg.Motion.WindowSize,
		Threshold:       cfg.Motion.Threshold,
		ExtendOnMotion:  cfg.ExtendOnMotion,
	}, classifier, logger)

	result, err := detector.Run(ctx, stream, writer)
	if cerr := writer.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("close %s: %w", raw, cerr)
	}
	return result, err
}

// rawExtension picks the container for the intermediate stream from the
// codec, independently of the output name.
func rawExtension(codec string) string {
	switch strings.ToUpper(codec) {
	case "MJPG", "XVID", "DIVX":
		return ".avi"
	default:
		return ".mp4"
	}
}

func checkInput(input string) error {
	info, err := os.Stat(input)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrInputNotFound, input)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSourceUnreadable, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrSourceUnreadable, input)
	}
	return nil
}

func encoderFor(cfg config.EncoderConfig) encode.Encoder {
	if !cfg.Enabled {
		return encode.Copy{}
	}
	return encode.NewFFmpeg(cfg.FFmpeg, cfg.Preset)
}
