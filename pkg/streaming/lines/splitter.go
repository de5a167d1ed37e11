// Package lines turns asynchronous byte chunks into line records.
package lines

// delimiter and carriage return handled by the splitter. Encoding concerns
// belong to a later decoding stage; the splitter only looks at these bytes.
const (
	lf = '\n'
	cr = '\r'
)

// Splitter is a pull-driven state machine splitting byte chunks into lines.
// The only state carried between chunks is the pending partial line, so the
// emitted lines are identical for every partition of the same byte stream.
//
// The zero value is ready to use. A Splitter is not safe for concurrent use.
type Splitter struct {
	pending []byte
}

// Push scans chunk and returns the lines it completes, which form the
// chunk-sized batch handed downstream. Lines contained entirely in chunk are
// subslices of it (no copy); a line spanning chunks is assembled only when
// emitted. A trailing carriage return before the delimiter is stripped.
func (s *Splitter) Push(chunk []byte) [][]byte {
	var batch [][]byte
	start := 0
	for i, b := range chunk {
		if b != lf {
			continue
		}
		segment := chunk[start:i]
		if len(s.pending) > 0 {
			segment = append(s.pending, segment...)
			s.pending = nil
		}
		batch = append(batch, trimCR(segment))
		start = i + 1
	}
	if start < len(chunk) {
		// Leftover bytes must be copied: the chunk buffer may be reused by
		// the producer before the next Push.
		s.pending = append(s.pending, chunk[start:]...)
	}
	return batch
}

// Flush returns the trailing partial line once the byte stream is exhausted.
// An input ending without a delimiter still yields its final line as data; an
// empty trailing line is suppressed, so a stream ending in a delimiter does
// not produce a spurious empty record.
func (s *Splitter) Flush() ([]byte, bool) {
	if len(s.pending) == 0 {
		return nil, false
	}
	line := s.pending
	s.pending = nil
	return line, true
}

// Pending reports whether a partial line is buffered.
func (s *Splitter) Pending() bool {
	return len(s.pending) > 0
}

func trimCR(line []byte) []byte {
	if n := len(line); n > 0 && line[n-1] == cr {
		return line[:n-1]
	}
	return line
}
