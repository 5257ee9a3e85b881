package frame

// FrameBuffer keeps the most recent frames seen by the detector so they can be
// written retroactively once an event starts. It owns the frames pushed into
// it and closes them on eviction or Close.
type FrameBuffer struct {
	frames []*Frame
	start  int
	size   int
}

func NewFrameBuffer(capacity int) *FrameBuffer {
	if capacity < 0 {
		capacity = 0
	}

	return &FrameBuffer{
		frames: make([]*Frame, capacity),
	}
}

// Push appends f, evicting and closing the oldest frame when full. With a
// zero capacity f is closed immediately.
func (fb *FrameBuffer) Push(f *Frame) {
	if len(fb.frames) == 0 {
		f.Close()
		return
	}

	if fb.size < len(fb.frames) {
		fb.frames[(fb.start+fb.size)%len(fb.frames)] = f
		fb.size++
		return
	}

	fb.frames[fb.start].Close()
	fb.frames[fb.start] = f
	fb.start = (fb.start + 1) % len(fb.frames)
}

// Frames returns the buffered frames oldest first. The buffer keeps ownership.
func (fb *FrameBuffer) Frames() []*Frame {
	out := make([]*Frame, 0, fb.size)
	for i := 0; i < fb.size; i++ {
		out = append(out, fb.frames[(fb.start+i)%len(fb.frames)])
	}
	return out
}

func (fb *FrameBuffer) Len() int {
	return fb.size
}

func (fb *FrameBuffer) Cap() int {
	return len(fb.frames)
}

func (fb *FrameBuffer) Close() {
	for i := 0; i < fb.size; i++ {
		idx := (fb.start + i) % len(fb.frames)
		fb.frames[idx].Close()
		fb.frames[idx] = nil
	}
	fb.start = 0
	fb.size = 0
}
