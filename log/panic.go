package log

import (
	"bytes"
	"fmt"
	"runtime/debug"

	"github.com/rs/zerolog"
)

// Panic records a recovered value along with the stack of the panicking goroutine,
// starting at the frame that panicked.
func Panic(thing any) func(e *zerolog.Event) {
	return func(e *zerolog.Event) {
		e.Dict(
			"panic",
			zerolog.
				Dict().
				Any("content", thing).
				Str("type_name", fmt.Sprintf("%T", thing)).
				Bytes("stack_traces", panickingFrames(debug.Stack())),
		)
	}
}

// panickingFrames drops everything up to and including the runtime's panic frame.
// Stacks taken outside a panic only lose the goroutine header.
func panickingFrames(stack []byte) []byte {
	lines := bytes.Split(bytes.TrimRight(stack, "\n"), []byte("\n"))
	for i, line := range lines {
		if bytes.HasPrefix(line, []byte("panic(")) && i+2 <= len(lines) {
			return bytes.Join(lines[i+2:], []byte("\n"))
		}
	}
	if len(lines) > 1 {
		lines = lines[1:]
	}
	return bytes.Join(lines, []byte("\n"))
}
