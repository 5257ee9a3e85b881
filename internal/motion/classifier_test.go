package motion

import (
	"context"
	"image"
	"image/color"
	"io"
	"testing"

	"github.com/kmmndr/prevucam/internal/frame"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

var testClassifierConfig = ClassifierConfig{
	BlurKernel:       21,
	DiffThreshold:    25,
	DilateIterations: 2,
	MinContourArea:   400,
}

// syntheticFrame is a black BGR picture with an optional white block.
func syntheticFrame(t *testing.T, index, width, height int, block image.Rectangle) *frame.Frame {
	t.Helper()

	mat := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), height, width, gocv.MatTypeCV8UC3)
	if !block.Empty() {
		gocv.Rectangle(&mat, block, color.RGBA{255, 255, 255, 0}, -1)
	}
	f, err := frame.NewFrame(index, &mat)
	require.NoError(t, err)
	return f
}

func classifyPair(t *testing.T, c *ContourClassifier, a, b *frame.Frame) Sample {
	t.Helper()

	first, err := c.Classify(nil, a)
	require.NoError(t, err)
	require.True(t, first.Baseline)
	require.NotNil(t, first.Prepared)
	defer first.Prepared.Close()

	second, err := c.Classify(first.Prepared, b)
	require.NoError(t, err)
	require.False(t, second.Baseline)
	second.Prepared.Close()
	return second
}

func TestContourClassifier(t *testing.T) {
	tests := []struct {
		name       string
		before     image.Rectangle
		after      image.Rectangle
		wantMotion bool
	}{
		{name: "static", wantMotion: false},
		{name: "static block", before: image.Rect(100, 100, 140, 140), after: image.Rect(100, 100, 140, 140), wantMotion: false},
		{name: "block appears", after: image.Rect(100, 100, 140, 140), wantMotion: true},
		{name: "block moves", before: image.Rect(60, 60, 100, 100), after: image.Rect(160, 120, 200, 160), wantMotion: true},
		{name: "speck below area", after: image.Rect(150, 150, 152, 152), wantMotion: false},
	}

	c := NewContourClassifier(testClassifierConfig)
	defer c.Close()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := syntheticFrame(t, 0, 320, 240, tt.before)
			defer a.Close()
			b := syntheticFrame(t, 1, 320, 240, tt.after)
			defer b.Close()

			s := classifyPair(t, c, a, b)
			assert.Equal(t, tt.wantMotion, s.Motion)
			if tt.wantMotion {
				assert.GreaterOrEqual(t, s.Area, testClassifierConfig.MinContourArea)
			} else {
				assert.Zero(t, s.Area)
			}
		})
	}
}

func TestContourClassifier_SizeMismatch(t *testing.T) {
	c := NewContourClassifier(testClassifierConfig)
	defer c.Close()

	a := syntheticFrame(t, 0, 320, 240, image.Rectangle{})
	defer a.Close()
	b := syntheticFrame(t, 1, 160, 120, image.Rectangle{})
	defer b.Close()

	first, err := c.Classify(nil, a)
	require.NoError(t, err)
	defer first.Prepared.Close()

	_, err = c.Classify(first.Prepared, b)
	assert.Error(t, err)
}

// blockSource renders a static scene with a moving block on frames [from, to].
type blockSource struct {
	t        *testing.T
	n        int
	from, to int
	next     int
}

func (s *blockSource) Read() (*frame.Frame, error) {
	if s.next >= s.n {
		return nil, io.EOF
	}
	i := s.next
	s.next++

	var block image.Rectangle
	if i >= s.from && i <= s.to {
		x := 20 + (i-s.from)*10
		block = image.Rect(x, 80, x+60, 140)
	}
	return syntheticFrame(s.t, i, 320, 240, block), nil
}

func TestScenario_StaticStream(t *testing.T) {
	c := NewContourClassifier(testClassifierConfig)
	defer c.Close()

	d := NewDetector(Config{PreEventFrames: 210, PostEventFrames: 210, WindowSize: 20, Threshold: 5}, c, nil)
	sink := &recordingSink{}

	res, err := d.Run(context.Background(), &blockSource{t: t, n: 300, from: -1, to: -1}, sink)
	require.NoError(t, err)
	assert.Equal(t, 300, res.FramesRead)
	assert.Zero(t, res.FramesWritten)
	assert.Empty(t, res.Events)
}

func TestScenario_MovingBlock(t *testing.T) {
	c := NewContourClassifier(testClassifierConfig)
	defer c.Close()

	cfg := Config{PreEventFrames: 210, PostEventFrames: 210, WindowSize: 20, Threshold: 5}
	run := func() (*Result, []int) {
		d := NewDetector(cfg, c, nil)
		sink := &recordingSink{}
		res, err := d.Run(context.Background(), &blockSource{t: t, n: 600, from: 150, to: 170}, sink)
		require.NoError(t, err)
		return res, sink.indices
	}

	res, written := run()
	require.Len(t, res.Events, 1)

	ev := res.Events[0]
	assert.GreaterOrEqual(t, ev.TriggerIndex, 150)
	assert.LessOrEqual(t, ev.TriggerIndex, 160)
	assert.Equal(t, 0, ev.StartIndex, "stream start is closer than the pre-roll")
	assert.Equal(t, ev.TriggerIndex, ev.PreRollFrames)
	assert.Equal(t, ev.TriggerIndex+209, ev.EndIndex)
	assert.Equal(t, span(0, ev.EndIndex), written)

	_, again := run()
	assert.Equal(t, written, again)
}
