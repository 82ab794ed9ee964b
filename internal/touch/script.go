package touch

// Script replays a fixed schedule of events keyed by frame number. Each
// Drain call advances one frame.
type Script struct {
	byFrame map[int][]Event
	frame   int
}

func NewScript() *Script {
	return &Script{byFrame: make(map[int][]Event)}
}

// At schedules e for the given zero-based frame.
func (s *Script) At(frame int, e Event) *Script {
	s.byFrame[frame] = append(s.byFrame[frame], e)
	return s
}

func (s *Script) Drain() []Event {
	events := s.byFrame[s.frame]
	s.frame++
	return events
}

// Frame is the index of the next frame Drain will return.
func (s *Script) Frame() int { return s.frame }
