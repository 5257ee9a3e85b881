package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/kmmndr/prevucam/internal/config"
	"github.com/kmmndr/prevucam/internal/frame"
	"github.com/kmmndr/prevucam/internal/motion"
	"github.com/kmmndr/prevucam/internal/video"

	"go.uber.org/zap"
)

// discard counts frames instead of writing them.
type discard struct {
	frames int
}

func (d *discard) Write(*frame.Frame) error {
	d.frames++
	return nil
}

func main() {
	var videoPath string
	var configPath string
	var extend bool

	flag.StringVar(&videoPath, "video", "", "Video filename")
	flag.StringVar(&configPath, "config", "", "YAML configuration file")
	flag.BoolVar(&extend, "extend", false, "Extend the post-event countdown while motion continues")
	flag.Parse()

	if videoPath == "" {
		fmt.Println("Error: missing video filename option")
		os.Exit(1)
	}

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			log.Fatalf("Error: %v\n", err)
		}
		cfg = *loaded
	}
	if extend {
		cfg.ExtendOnMotion = true
	}

	stream, err := video.NewFileStream(videoPath)
	if err != nil {
		log.Fatalf("Error: %v\n", err)
	}
	defer stream.Close()

	fps, fallback := video.ResolveFps(stream.Fps(), cfg.Video.DefaultFps)
	if fallback {
		fmt.Printf("Video frame rate unknown, assuming %d fps\n", fps)
	} else {
		fmt.Printf("Video frame rate: %d fps\n", fps)
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
	}, classifier, zap.NewNop().Sugar())

	detector.OnEventStart = func(e *motion.Event) {
		fmt.Printf("Motion started at: %.2f seconds.\n", video.TimeAtIndex(e.TriggerIndex, fps))
	}
	detector.OnEventEnd = func(e *motion.Event) {
		r := motion.NewEventReport(e, fps)
		fmt.Printf("Event %s: %s - %s seconds (%d frames, %d pre-roll).\n", e.ID, r.Start, r.End, e.Frames, e.PreRollFrames)
	}

	sink := &discard{}
	result, err := detector.Run(context.Background(), stream, sink)
	if err != nil {
		log.Fatalf("Error: %v\n", err)
	}

	if len(result.Events) == 0 {
		fmt.Println("Motion not detected")
		os.Exit(1)
	}
	fmt.Printf("%d events, %d of %d frames kept.\n", len(result.Events), sink.frames, result.FramesRead)
}
