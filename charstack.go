package gpxtrack

// charStack holds one text buffer per open element, plus a base buffer for
// text outside any element. Buffers are reused once popped.
type charStack struct {
	bufs  [][]byte
	depth int
}

func newCharStack() *charStack {
	return &charStack{bufs: make([][]byte, 1, 8), depth: 1}
}

func (s *charStack) push() {
	if s.depth == len(s.bufs) {
		s.bufs = append(s.bufs, nil)
	}
	s.bufs[s.depth] = s.bufs[s.depth][:0]
	s.depth++
}

func (s *charStack) write(b []byte) {
	top := s.depth - 1
	s.bufs[top] = append(s.bufs[top], b...)
}

// pop returns the text of the innermost open element. ok is false when only
// the base buffer is left, the base is never popped.
func (s *charStack) pop() (text string, ok bool) {
	if s.depth == 1 {
		return "", false
	}
	s.depth--
	return string(s.bufs[s.depth]), true
}
