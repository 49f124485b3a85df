package log

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/xeptore/flaw/v8"
)

// Flaw expands err into the event. Flaw errors get their records, joined errors and
// stack traces. Other errors that describe themselves with FlawP, like the gateway and
// downloader errors, get their payload next to the message.
func Flaw(err error) func(e *zerolog.Event) {
	return func(e *zerolog.Event) {
		if flawErr := new(flaw.Flaw); errors.As(err, &flawErr) {
			e.Dict("error", errorDict(flawErr.Inner, flawErr.InnerType, flawErr.InnerSyntaxRepr))
			e.Array("records", recordsArr(flawErr.Records))
			e.Array("joined_errors", joinedArr(flawErr.JoinedErrors))
			e.Array("stack_traces", stackArr(flawErr.StackTrace))
			return
		}

		e.Err(err)
		var described interface {
			error
			FlawP() flaw.P
		}
		if errors.As(err, &described) {
			e.RawJSON("error_payload", marshalPayload(described.FlawP()))
		}
	}
}

func errorDict(message, typeName, syntaxRepr string) *zerolog.Event {
	return zerolog.
		Dict().
		Str("message", message).
		Str("type_name", typeName).
		Str("syntax_representation", syntaxRepr)
}

func marshalPayload(p flaw.P) []byte {
	b, err := json.MarshalWithOption(p, json.UnorderedMap(), json.DisableNormalizeUTF8(), json.DisableHTMLEscape())
	if nil != err {
		fallback, _ := json.Marshal(map[string]string{"error": err.Error(), "raw": fmt.Sprintf("%#+v", p)})
		return fallback
	}
	return b
}

func recordsArr(records []flaw.Record) *zerolog.Array {
	arr := zerolog.Arr()
	for _, v := range records {
		arr.Dict(zerolog.Dict().Str("function", v.Function).RawJSON("payload", marshalPayload(v.Payload)))
	}
	return arr
}

func joinedArr(joined []flaw.JoinedError) *zerolog.Array {
	arr := zerolog.Arr()
	for _, v := range joined {
		d := zerolog.Dict().Dict("error", errorDict(v.Message, v.TypeName, v.SyntaxRepr))
		if st := v.CallerStackTrace; nil != st {
			d.Dict("caller_stack_trace", frameDict(st.File, st.Line, st.Function))
		} else {
			d.Stringer("caller_stack_trace", nil)
		}
		arr.Dict(d)
	}
	return arr
}

func stackArr(frames []flaw.StackTrace) *zerolog.Array {
	arr := zerolog.Arr()
	for _, v := range frames {
		arr.Dict(frameDict(v.File, v.Line, v.Function))
	}
	return arr
}

func frameDict(file string, line int, function string) *zerolog.Event {
	return zerolog.Dict().Str("location", fmt.Sprintf("%s:%d", file, line)).Str("function", function)
}
