package motion

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/kmmndr/prevucam/internal/frame"

	"go.uber.org/zap"
)

const progressEvery = 100

type Source interface {
	// Read returns frames in source order and io.EOF at the end.
	Read() (*frame.Frame, error)
}

type Sink interface {
	Write(f *frame.Frame) error
}

type State int

const (
	Idle State = iota
	Recording
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type Config struct {
	// PreEventFrames is the pre-roll buffer capacity.
	PreEventFrames int
	// PostEventFrames is the countdown armed when recording starts.
	PostEventFrames int
	WindowSize      int
	Threshold       int
	// ExtendOnMotion re-arms the countdown on every recorded frame whose
	// window is still triggered. When false the countdown is only armed on
	// the transition to Recording, so long motion is cut after
	// PostEventFrames.
	ExtendOnMotion bool
}

type Result struct {
	FramesRead    int
	FramesWritten int
	Events        []*Event
}

// Detector decides frame by frame what reaches the sink.
type Detector struct {
	cfg        Config
	classifier Classifier
	logger     *zap.SugaredLogger

	OnEventStart func(*Event)
	OnEventEnd   func(*Event)
}

func NewDetector(cfg Config, classifier Classifier, logger *zap.SugaredLogger) *Detector {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	return &Detector{
		cfg:        cfg,
		classifier: classifier,
		logger:     logger,
	}
}

// run holds the state of a single pass over a source.
type run struct {
	*Detector

	sink        Sink
	window      *Window
	buffer      *frame.FrameBuffer
	state       State
	remaining   int
	lastWritten int
	event       *Event
	result      *Result
}

// Run consumes src until io.EOF and writes the frames surrounding motion to
// sink in source order. Any read, classify or write error ends the run; the
// partial result is returned with it.
func (d *Detector) Run(ctx context.Context, src Source, sink Sink) (*Result, error) {
	r := &run{
		Detector:    d,
		sink:        sink,
		window:      NewWindow(d.cfg.WindowSize, d.cfg.Threshold),
		buffer:      frame.NewFrameBuffer(d.cfg.PreEventFrames),
		state:       Idle,
		lastWritten: -1,
		result:      &Result{},
	}
	defer r.buffer.Close()

	var prev *frame.Frame
	defer func() { prev.Close() }()

	for {
		if err := ctx.Err(); err != nil {
			return r.finish(), err
		}

		f, err := src.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return r.finish(), fmt.Errorf("read frame %d: %w", r.result.FramesRead, err)
		}
		r.result.FramesRead++

		sample, err := d.classifier.Classify(prev, f)
		if err != nil {
			f.Close()
			return r.finish(), fmt.Errorf("classify frame %d: %w", f.Index(), err)
		}
		prev.Close()
		prev = sample.Prepared

		if !sample.Baseline {
			r.window.Push(sample.Motion)
		}

		if err := r.step(f); err != nil {
			f.Close()
			return r.finish(), err
		}
		r.buffer.Push(f)

		if r.result.FramesRead%progressEvery == 0 {
			d.logger.Debugw("Processed frames",
				"frames", r.result.FramesRead,
				"written", r.result.FramesWritten,
				"state", r.state)
		}
	}

	return r.finish(), nil
}

func (r *run) step(f *frame.Frame) error {
	switch r.state {
	case Idle:
		if !r.window.Triggered() {
			return nil
		}
		if err := r.startEvent(f); err != nil {
			return err
		}
	case Recording:
		if r.cfg.ExtendOnMotion && r.window.Triggered() {
			r.remaining = r.cfg.PostEventFrames
			r.event.Extended++
		}
	}

	if err := r.write(f); err != nil {
		return err
	}

	r.remaining--
	if r.remaining <= 0 {
		r.endEvent()
		r.state = Idle
		r.window.Clear()
	}
	return nil
}

func (r *run) startEvent(f *frame.Frame) error {
	event, err := NewEvent(f.Index())
	if err != nil {
		return err
	}
	r.event = event
	r.state = Recording
	r.remaining = r.cfg.PostEventFrames

	for _, bf := range r.buffer.Frames() {
		// Frames already written by the previous event stay in the buffer.
		if bf.Index() <= r.lastWritten {
			continue
		}
		if r.event.PreRollFrames == 0 {
			r.event.StartIndex = bf.Index()
		}
		if err := r.write(bf); err != nil {
			return err
		}
		r.event.PreRollFrames++
	}

	r.logger.Infow("Motion detected",
		"event_id", event.ID,
		"frame", f.Index(),
		"pre_roll_frames", event.PreRollFrames,
		"motion_count", r.window.Count())

	if r.OnEventStart != nil {
		r.OnEventStart(event)
	}
	return nil
}

func (r *run) write(f *frame.Frame) error {
	if err := r.sink.Write(f); err != nil {
		return fmt.Errorf("write frame %d: %w", f.Index(), err)
	}
	r.lastWritten = f.Index()
	r.result.FramesWritten++
	r.event.EndIndex = f.Index()
	r.event.Frames++
	return nil
}

func (r *run) endEvent() {
	event := r.event
	r.event = nil
	r.result.Events = append(r.result.Events, event)

	r.logger.Infow("Motion event ended",
		"event_id", event.ID,
		"start", event.StartIndex,
		"trigger", event.TriggerIndex,
		"end", event.EndIndex,
		"frames", event.Frames,
		"extended", event.Extended)

	if r.OnEventEnd != nil {
		r.OnEventEnd(event)
	}
}

// finish closes an event left open by the end of the stream.
func (r *run) finish() *Result {
	if r.event != nil && r.event.Frames > 0 {
		r.endEvent()
	}
	r.event = nil
	r.state = Idle
	return r.result
}
