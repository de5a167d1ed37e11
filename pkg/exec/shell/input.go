package shell

import (
	"context"
	"io"

	"github.com/vnykmshr/goshell/pkg/streaming/stream"
)

// InputKind enumerates the supported shapes of command input. A Cmd declares
// the shape it accepts when it is defined; the matching Input value is
// supplied per invocation.
type InputKind int

const (
	// InputNone declares that the command takes no standard input.
	InputNone InputKind = iota

	// InputText accepts a fixed string, written with a trailing newline.
	InputText

	// InputBytes accepts a fixed byte blob, written verbatim.
	InputBytes

	// InputLines accepts a stream of text lines, each written with a
	// trailing newline.
	InputLines

	// InputChunks accepts a stream of byte chunks, written verbatim.
	InputChunks
)

func (k InputKind) String() string {
	switch k {
	case InputNone:
		return "none"
	case InputText:
		return "text"
	case InputBytes:
		return "bytes"
	case InputLines:
		return "lines"
	case InputChunks:
		return "chunks"
	default:
		return "unknown"
	}
}

// Input carries one invocation's standard-input value in one of the closed
// set of supported shapes.
type Input struct {
	kind   InputKind
	text   string
	data   []byte
	lines  stream.Stream[string]
	chunks stream.Stream[[]byte]
}

// NoInput is the Input for commands that read nothing.
func NoInput() Input {
	return Input{kind: InputNone}
}

// Text supplies a fixed string as input.
func Text(s string) Input {
	return Input{kind: InputText, text: s}
}

// Bytes supplies a fixed byte blob as input.
func Bytes(b []byte) Input {
	return Input{kind: InputBytes, data: b}
}

// Lines supplies a stream of text lines as input.
func Lines(s stream.Stream[string]) Input {
	return Input{kind: InputLines, lines: s}
}

// Chunks supplies a stream of byte chunks as input.
func Chunks(s stream.Stream[[]byte]) Input {
	return Input{kind: InputChunks, chunks: s}
}

// Kind returns the shape of this input value.
func (in Input) Kind() InputKind {
	return in.kind
}

// present reports whether the input actually carries something to write.
func (in Input) present() bool {
	switch in.kind {
	case InputNone:
		return false
	case InputLines:
		return in.lines != nil
	case InputChunks:
		return in.chunks != nil
	default:
		return true
	}
}

var newline = []byte{'\n'}

// writeTo pumps the input value into w. Fixed values are written whole; text
// items carry a trailing line delimiter, byte items never do. The returned
// streamErr is a failure of the input stream itself (an upstream failure);
// write errors are returned separately so the caller can swallow them when
// the child simply stopped reading.
func (in Input) writeTo(ctx context.Context, w io.Writer) (streamErr, writeErr error) {
	switch in.kind {
	case InputText:
		if _, err := io.WriteString(w, in.text); err != nil {
			return nil, err
		}
		_, err := w.Write(newline)
		return nil, err

	case InputBytes:
		_, err := w.Write(in.data)
		return nil, err

	case InputLines:
		return drainInto(ctx, in.lines, w, func(w io.Writer, line string) error {
			if _, err := io.WriteString(w, line); err != nil {
				return err
			}
			_, err := w.Write(newline)
			return err
		})

	case InputChunks:
		return drainInto(ctx, in.chunks, w, func(w io.Writer, chunk []byte) error {
			_, err := w.Write(chunk)
			return err
		})
	}
	return nil, nil
}

// drainInto drives a stream into w one item at a time. The stream's own
// failure comes back as streamErr; a failure to write comes back as writeErr.
func drainInto[T any](ctx context.Context, s stream.Stream[T], w io.Writer, write func(io.Writer, T) error) (streamErr, writeErr error) {
	serr := s.ForEachUntil(ctx, func(v T) bool {
		if err := write(w, v); err != nil {
			writeErr = err
			return false
		}
		return true
	})
	if serr != nil && writeErr == nil {
		streamErr = serr
	}
	return streamErr, writeErr
}
