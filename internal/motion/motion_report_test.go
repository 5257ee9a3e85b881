package motion

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReport(t *testing.T) {
	result := &Result{
		FramesRead:    600,
		FramesWritten: 364,
		Events: []*Event{
			{ID: "a", StartIndex: 0, TriggerIndex: 154, EndIndex: 363, PreRollFrames: 154, Frames: 364},
		},
	}

	r := NewReport("run", result, 30)
	require.Len(t, r.Events, 1)
	assert.Equal(t, "0.00", r.Events[0].Start)
	assert.Equal(t, "5.13", r.Events[0].Trigger)
	assert.Equal(t, "12.10", r.Events[0].End)
	assert.Equal(t, "12.13", r.Events[0].Duration)

	var buf bytes.Buffer
	require.NoError(t, r.WriteJSON(&buf))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "run", decoded["run_id"])
	assert.EqualValues(t, 364, decoded["frames_written"])

	events := decoded["events"].([]any)
	first := events[0].(map[string]any)
	assert.Equal(t, "a", first["id"])
	assert.EqualValues(t, 154, first["trigger_index"])
	assert.Equal(t, "5.13", first["trigger"])
}

func TestNewReport_NoResult(t *testing.T) {
	r := NewReport("run", nil, 25)

	var buf bytes.Buffer
	require.NoError(t, r.WriteJSON(&buf))
	assert.Contains(t, buf.String(), `"events": []`)
}
