package motion

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// EventReport is an Event with its positions expressed in seconds.
type EventReport struct {
	*Event

	Start    string `json:"start"`
	Trigger  string `json:"trigger"`
	End      string `json:"end"`
	Duration string `json:"duration"`
}

func NewEventReport(event *Event, fps int) EventReport {
	seconds := func(index int) float64 {
		if fps <= 0 {
			return 0
		}
		return float64(index) / float64(fps)
	}

	return EventReport{
		Event:    event,
		Start:    fmt.Sprintf("%.2f", seconds(event.StartIndex)),
		Trigger:  fmt.Sprintf("%.2f", seconds(event.TriggerIndex)),
		End:      fmt.Sprintf("%.2f", seconds(event.EndIndex)),
		Duration: fmt.Sprintf("%.2f", seconds(event.FramesCount())),
	}
}

// Report summarises one processing run.
type Report struct {
	RunID          string        `json:"run_id"`
	Date           string        `json:"date"`
	Input          string        `json:"input"`
	Output         string        `json:"output"`
	Fps            int           `json:"fps"`
	FpsFallback    bool          `json:"fps_fallback"`
	Width          int           `json:"width"`
	Height         int           `json:"height"`
	FramesRead     int           `json:"frames_read"`
	FramesWritten  int           `json:"frames_written"`
	Events         []EventReport `json:"events"`
	Encoder        string        `json:"encoder,omitempty"`
	EncodeFallback bool          `json:"encode_fallback"`
	OutputBytes    int64         `json:"output_bytes"`
}

func NewReport(runID string, result *Result, fps int) *Report {
	r := &Report{
		RunID:  runID,
		Date:   time.Now().Format(time.RFC3339),
		Fps:    fps,
		Events: make([]EventReport, 0),
	}
	if result == nil {
		return r
	}

	r.FramesRead = result.FramesRead
	r.FramesWritten = result.FramesWritten
	for _, e := range result.Events {
		r.Events = append(r.Events, NewEventReport(e, fps))
	}
	return r
}

func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
