package codec

// State is the position of a Stream within its record.
type State int

// Stream states.
const (
	ReadingHeader State = iota
	ReadingPayload
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case ReadingHeader:
		return "reading header"
	case ReadingPayload:
		return "reading payload"
	case Done:
		return "done"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Stream walks a sentinel-terminated sequence of headers of type H. Each call
// to Next reads one header; the caller then consumes that header's payload
// from the same Reader before calling Next again. A Stream is not
// restartable.
type Stream[H any] struct {
	r      *Reader
	header func(*Reader) (H, error)
	end    func(H) bool
	state  State
	cur    H
	err    error
}

// NewStream returns a Stream that reads headers from r with header and stops
// at the first header for which end returns true.
func NewStream[H any](r *Reader, header func(*Reader) (H, error), end func(H) bool) *Stream[H] {
	return &Stream[H]{
		r:      r,
		header: header,
		end:    end,
	}
}

// Next advances to the next header. It returns false once the sentinel has
// been read or the stream has failed.
func (s *Stream[H]) Next() bool {
	switch s.state {
	case Done, Failed:
		return false
	}
	s.state = ReadingHeader
	h, err := s.header(s.r)
	if err != nil {
		s.Fail(err)
		return false
	}
	if s.end(h) {
		s.state = Done
		return false
	}
	s.cur = h
	s.state = ReadingPayload
	return true
}

// Header returns the header read by the last successful call to Next.
func (s *Stream[H]) Header() H {
	return s.cur
}

// Fail stops the stream, recording err as the reason.
func (s *Stream[H]) Fail(err error) {
	s.state = Failed
	s.err = err
}

// State returns the current state.
func (s *Stream[H]) State() State {
	return s.state
}

// Err returns the error that stopped the stream, if any.
func (s *Stream[H]) Err() error {
	return s.err
}
