package motion

import (
	"fmt"
	"image"

	"github.com/kmmndr/prevucam/internal/frame"

	"gocv.io/x/gocv"
)

// Sample is the classification of one frame against its predecessor.
type Sample struct {
	// Baseline is set for the first frame of a run; it carries no signal.
	Baseline bool
	Motion   bool
	Area     float64
	// Prepared is the frame's comparison form, handed back as prev on the
	// next call. The caller owns it.
	Prepared *frame.Frame
}

// Classifier turns a frame into a motion signal. prev is the Prepared frame
// of the previous Sample, nil for the first frame.
type Classifier interface {
	Classify(prev, cur *frame.Frame) (Sample, error)
}

type ClassifierConfig struct {
	BlurKernel       int
	DiffThreshold    float32
	DilateIterations int
	MinContourArea   float64
}

// ContourClassifier measures the area of changed regions between two blurred
// grayscale frames.
type ContourClassifier struct {
	cfg    ClassifierConfig
	kernel gocv.Mat
}

func NewContourClassifier(cfg ClassifierConfig) *ContourClassifier {
	if cfg.BlurKernel%2 == 0 {
		cfg.BlurKernel++
	}

	return &ContourClassifier{
		cfg:    cfg,
		kernel: gocv.GetStructuringElement(gocv.MorphRect, image.Pt(3, 3)),
	}
}

func (c *ContourClassifier) Close() {
	c.kernel.Close()
}

func (c *ContourClassifier) Classify(prev, cur *frame.Frame) (Sample, error) {
	gray, err := cur.Gray()
	if err != nil {
		return Sample{}, err
	}
	gocv.GaussianBlur(*gray.Mat(), gray.Mat(), image.Pt(c.cfg.BlurKernel, c.cfg.BlurKernel), 0, 0, gocv.BorderDefault)

	if prev == nil {
		return Sample{Baseline: true, Prepared: gray}, nil
	}

	if prev.Width() != gray.Width() || prev.Height() != gray.Height() {
		gray.Close()
		return Sample{}, fmt.Errorf("frame %d is %dx%d, previous frame was %dx%d",
			cur.Index(), gray.Width(), gray.Height(), prev.Width(), prev.Height())
	}

	area := c.changedArea(prev, gray)

	return Sample{
		Motion:   area > 0,
		Area:     area,
		Prepared: gray,
	}, nil
}

func (c *ContourClassifier) changedArea(prev, cur *frame.Frame) float64 {
	diff := gocv.NewMat()
	defer diff.Close()

	gocv.AbsDiff(*prev.Mat(), *cur.Mat(), &diff)
	gocv.Threshold(diff, &diff, c.cfg.DiffThreshold, 255, gocv.ThresholdBinary)
	for i := 0; i < c.cfg.DilateIterations; i++ {
		gocv.Dilate(diff, &diff, c.kernel)
	}

	contours := gocv.FindContours(diff, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	var area float64
	for i := 0; i < contours.Size(); i++ {
		a := gocv.ContourArea(contours.At(i))
		if a >= c.cfg.MinContourArea {
			area += a
		}
	}
	return area
}
