package storage

import (
	"sync"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/massgrid/internal/dynamo"
)

// Recorder keeps a copy of every sampleRate-th frame it observes. Frames
// holding NaN or Inf are never kept.
type Recorder struct {
	mu         sync.Mutex
	sampleRate int
	frames     []dynamo.Frame
}

func NewRecorder(sampleRate int) *Recorder {
	if sampleRate < 1 {
		sampleRate = 1
	}
	return &Recorder{sampleRate: sampleRate}
}

func (r *Recorder) OnFrame(f dynamo.Frame) {
	if f.Step%r.sampleRate != 0 || !dynamo.IsValid(f.Positions) {
		return
	}
	cp := f
	cp.Positions = append([]r3.Vec(nil), f.Positions...)

	r.mu.Lock()
	r.frames = append(r.frames, cp)
	r.mu.Unlock()
}

func (r *Recorder) Frames() []dynamo.Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]dynamo.Frame(nil), r.frames...)
}

func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}
