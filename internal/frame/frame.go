package frame

import (
	"errors"

	"gocv.io/x/gocv"
)

var ErrEmptyFrame = errors.New("frame is empty")

// Frame is a decoded picture tagged with its position in the source stream.
// A Frame owns its Mat; callers release it with Close.
type Frame struct {
	index int
	mat   *gocv.Mat
}

func NewFrame(index int, mat *gocv.Mat) (*Frame, error) {
	if mat == nil || mat.Empty() {
		return nil, ErrEmptyFrame
	}

	return &Frame{index: index, mat: mat}, nil
}

func (f *Frame) Mat() *gocv.Mat {
	return f.mat
}

func (f *Frame) Index() int {
	return f.index
}

// Gray returns a single channel copy of the frame. Frames that already have
// one channel are cloned as is.
func (f *Frame) Gray() (*Frame, error) {
	gray := gocv.NewMat()
	if f.mat.Channels() == 1 {
		f.mat.CopyTo(&gray)
	} else {
		gocv.CvtColor(*f.mat, &gray, gocv.ColorBGRToGray)
	}

	g, err := NewFrame(f.index, &gray)
	if err != nil {
		gray.Close()
		return nil, err
	}
	return g, nil
}

func (f *Frame) Clone() (*Frame, error) {
	clone := f.mat.Clone()

	return NewFrame(f.index, &clone)
}

func (f *Frame) Height() int {
	return f.mat.Rows()
}

func (f *Frame) Width() int {
	return f.mat.Cols()
}

func (f *Frame) Close() {
	if f == nil || f.mat == nil {
		return
	}
	f.mat.Close()
}
