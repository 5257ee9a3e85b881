package motion

// Window is the duty-cycle filter over the last per-frame motion samples.
type Window struct {
	samples   []bool
	start     int
	size      int
	count     int
	threshold int
}

func NewWindow(size, threshold int) *Window {
	if size < 1 {
		size = 1
	}

	return &Window{
		samples:   make([]bool, size),
		threshold: threshold,
	}
}

func (w *Window) Push(sample bool) {
	if w.size == len(w.samples) {
		if w.samples[w.start] {
			w.count--
		}
		w.samples[w.start] = sample
		w.start = (w.start + 1) % len(w.samples)
	} else {
		w.samples[(w.start+w.size)%len(w.samples)] = sample
		w.size++
	}

	if sample {
		w.count++
	}
}

// Triggered reports whether at least threshold of the held samples are true.
func (w *Window) Triggered() bool {
	return w.count >= w.threshold
}

func (w *Window) Clear() {
	w.start = 0
	w.size = 0
	w.count = 0
}

func (w *Window) Count() int {
	return w.count
}

func (w *Window) Len() int {
	return w.size
}
