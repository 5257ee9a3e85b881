package motion

import (
	"fmt"

	uuid "github.com/gofrs/uuid/v5"
)

// Event is one contiguous span of emitted frames: the pre-roll, the frame
// that crossed the threshold and everything written until the countdown ran
// out.
type Event struct {
	ID            string `json:"id"`
	TriggerIndex  int    `json:"trigger_index"`
	StartIndex    int    `json:"start_index"`
	EndIndex      int    `json:"end_index"`
	PreRollFrames int    `json:"pre_roll_frames"`
	Frames        int    `json:"frames"`
	Extended      int    `json:"extended,omitempty"`
}

func NewEvent(triggerIndex int) (*Event, error) {
	ref, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("failed to generate UUID: %w", err)
	}

	return &Event{
		ID:           ref.String(),
		TriggerIndex: triggerIndex,
		StartIndex:   triggerIndex,
		EndIndex:     triggerIndex,
	}, nil
}

// FramesCount is the number of source frames spanned by the event.
func (e *Event) FramesCount() int {
	return e.EndIndex - e.StartIndex + 1
}
