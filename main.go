package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/kmmndr/prevucam/internal/config"
	"github.com/kmmndr/prevucam/internal/trim"

	"go.uber.org/zap"
)

const (
	exitOK       = 0
	exitFailure  = 1
	exitInput    = 2
	exitNoEvents = 3
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		inputPath  string
		outputPath string
		configPath string
		reportPath string
		debug      bool

		preSeconds  int
		postSeconds int
		minArea     float64
		window      int
		threshold   int
		extend      bool
	)

	flag.StringVar(&inputPath, "input", "", "Video file")
	flag.StringVar(&outputPath, "output", "motion_events.mp4", "Output video file")
	flag.StringVar(&configPath, "config", "", "YAML configuration file")
	flag.StringVar(&reportPath, "report", "", "Write a JSON run report to this file")
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")
	flag.IntVar(&preSeconds, "pre", 7, "Seconds of context kept before an event")
	flag.IntVar(&postSeconds, "post", 7, "Seconds recorded after an event starts")
	flag.Float64Var(&minArea, "min-area", 400, "Minimum contour area in px²")
	flag.IntVar(&window, "window", 20, "Motion window size in frames")
	flag.IntVar(&threshold, "threshold", 5, "Motion frames in the window needed to trigger")
	flag.BoolVar(&extend, "extend", false, "Extend the post-event countdown while motion continues")
	flag.Parse()

	if inputPath == "" && flag.NArg() > 0 {
		inputPath = flag.Arg(0)
	}
	if inputPath == "" {
		fmt.Fprintln(os.Stderr, "Error: missing video file option")
		flag.Usage()
		return exitInput
	}

	logger, err := newLogger(debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: unable to create logger: %v\n", err)
		return exitFailure
	}
	defer logger.Sync()

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			logger.Errorw("Unable to load configuration", "config", configPath, "error", err)
			return exitFailure
		}
		cfg = *loaded
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "pre":
			cfg.PreEventSeconds = preSeconds
		case "post":
			cfg.PostEventSeconds = postSeconds
		case "min-area":
			cfg.Motion.MinContourArea = minArea
		case "window":
			cfg.Motion.WindowSize = window
		case "threshold":
			cfg.Motion.Threshold = threshold
		case "extend":
			cfg.ExtendOnMotion = extend
		}
	})
	if err := cfg.Validate(); err != nil {
		logger.Errorw("Invalid configuration", "error", err)
		return exitFailure
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := trim.Run(ctx, inputPath, outputPath, trim.Options{Config: cfg, Logger: logger})
	if reportPath != "" && report != nil {
		if werr := writeReport(reportPath, report.WriteJSON); werr != nil {
			logger.Warnw("Unable to write report", "report", reportPath, "error", werr)
		}
	}

	code := exitCode(err)
	switch code {
	case exitOK:
		fmt.Printf("DONE: %s\n", outputPath)
		fmt.Printf("Output size: %.2f MB\n", float64(report.OutputBytes)/(1024*1024))
	case exitInput:
		logger.Errorw("Cannot read input", "input", inputPath, "error", err)
	case exitNoEvents:
		logger.Errorw("No motion detected", "input", inputPath, "frames", report.FramesRead)
	default:
		logger.Errorw("Processing failed", "input", inputPath, "error", err)
	}
	return code
}

// exitCode maps the outcome of a run to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, trim.ErrInputNotFound), errors.Is(err, trim.ErrSourceUnreadable):
		return exitInput
	case errors.Is(err, trim.ErrNoEventsDetected):
		return exitNoEvents
	default:
		return exitFailure
	}
}

func newLogger(debug bool) (*zap.SugaredLogger, error) {
	var (
		l   *zap.Logger
		err error
	)
	if debug {
		l, err = zap.NewDevelopment()
	} else {
		cfg := zap.NewProductionConfig()
		cfg.Encoding = "console"
		cfg.OutputPaths = []string{"stderr"}
		l, err = cfg.Build()
	}
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}

func writeReport(path string, write func(w io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
