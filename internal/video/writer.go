package video

import (
	"fmt"

	"github.com/kmmndr/prevucam/internal/frame"

	"gocv.io/x/gocv"
)

const DefaultCodec = "mp4v"

// Writer appends frames to a video file in the order received.
type Writer struct {
	path   string
	writer *gocv.VideoWriter
	frames int
}

func NewWriter(path, codec string, fps, width, height int) (*Writer, error) {
	if codec == "" {
		codec = DefaultCodec
	}

	w, err := gocv.VideoWriterFile(path, codec, float64(fps), width, height, true)
	if err != nil {
		return nil, fmt.Errorf("unable to create video writer %s: %w", path, err)
	}
	if !w.IsOpened() {
		w.Close()
		return nil, fmt.Errorf("unable to open video writer %s with codec %s", path, codec)
	}

	return &Writer{path: path, writer: w}, nil
}

func (w *Writer) Write(f *frame.Frame) error {
	if err := w.writer.Write(*f.Mat()); err != nil {
		return fmt.Errorf("write frame %d to %s: %w", f.Index(), w.path, err)
	}
	w.frames++
	return nil
}

func (w *Writer) Frames() int {
	return w.frames
}

func (w *Writer) Close() error {
	return w.writer.Close()
}
