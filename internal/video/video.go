package video

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"
)

// DefaultFps is used when the container does not report a usable frame rate.
const DefaultFps = 30

var ErrUnreadable = errors.New("unable to open video")

func OpenVideo(videoPath string) (*gocv.VideoCapture, error) {
	video, err := gocv.VideoCaptureFile(videoPath)
	if err != nil {
		if video != nil {
			video.Close()
		}
		return nil, fmt.Errorf("%w %s: %v", ErrUnreadable, videoPath, err)
	}
	if !video.IsOpened() {
		video.Close()
		return nil, fmt.Errorf("%w %s", ErrUnreadable, videoPath)
	}
	return video, nil
}

// ResolveFps truncates the reported rate to whole frames per second and falls
// back when it is not positive. The second value reports the fallback.
func ResolveFps(reported float64, fallback int) (int, bool) {
	if fallback <= 0 {
		fallback = DefaultFps
	}

	fps := int(reported)
	if fps <= 0 {
		return fallback, true
	}
	return fps, false
}
