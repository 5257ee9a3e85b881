package video

import (
	"errors"
	"fmt"
	"io"

	"github.com/kmmndr/prevucam/internal/frame"

	"gocv.io/x/gocv"
)

var ErrShortRead = errors.New("video ended before its reported frame count")

// Stream reads decoded frames from a video file in source order, numbering
// them from zero.
type Stream struct {
	Video *gocv.VideoCapture

	next  int
	total int
}

func NewFileStream(videoPath string) (*Stream, error) {
	video, err := OpenVideo(videoPath)
	if err != nil {
		return nil, err
	}
	return &Stream{
		Video: video,
		total: int(video.Get(gocv.VideoCaptureFrameCount)),
	}, nil
}

// Read returns the next frame, or io.EOF once the stream is exhausted. A read
// failure well before the reported frame count is returned as ErrShortRead.
func (s *Stream) Read() (*frame.Frame, error) {
	mat := gocv.NewMat()
	if ok := s.Video.Read(&mat); !ok || mat.Empty() {
		mat.Close()
		fps, _ := ResolveFps(s.Fps(), DefaultFps)
		return nil, endOfStream(s.next, s.total, fps)
	}

	f, err := frame.NewFrame(s.next, &mat)
	if err != nil {
		mat.Close()
		return nil, err
	}
	s.next++

	return f, nil
}

// endOfStream decides whether a failed read after read frames is the end of
// the file. The container's frame count is often an estimate, so up to a
// second of missing frames is tolerated; an unknown count is never checked.
func endOfStream(read, total, fps int) error {
	if total <= 0 || read+fps >= total {
		return io.EOF
	}
	return fmt.Errorf("%w: read %d of %d frames", ErrShortRead, read, total)
}

func (s *Stream) Close() {
	s.Video.Close()
}

// Fps is the rate reported by the container, possibly zero.
func (s *Stream) Fps() float64 {
	return s.Video.Get(gocv.VideoCaptureFPS)
}

func (s *Stream) Size() (width, height int) {
	return int(s.Video.Get(gocv.VideoCaptureFrameWidth)), int(s.Video.Get(gocv.VideoCaptureFrameHeight))
}

func TimeAtIndex(index, fps int) float64 {
	if fps <= 0 {
		return 0
	}
	return float64(index) / float64(fps)
}
