package errutil

import (
	"fmt"

	"github.com/xeptore/flaw/v8"
)

// ErrInfo is a serializable view of an error chain. Payload is filled for errors that
// describe themselves with FlawP, such as gateway status errors.
type ErrInfo struct {
	Message    string
	TypeName   string
	SyntaxRepr string
	Payload    flaw.P
	Children   []ErrInfo
}

func (e ErrInfo) FlawP() flaw.P {
	var ch []flaw.P
	if len(e.Children) > 0 {
		ch = make([]flaw.P, len(e.Children))
		for i, child := range e.Children {
			ch[i] = child.FlawP()
		}
	}

	p := flaw.P{
		"message":     e.Message,
		"type_name":   e.TypeName,
		"syntax_repr": e.SyntaxRepr,
		"children":    ch,
	}
	if nil != e.Payload {
		p["payload"] = e.Payload
	}
	return p
}

func Tree(err error) ErrInfo {
	if err == nil {
		panic("nil error")
	}

	info := ErrInfo{
		Message:    err.Error(),
		TypeName:   fmt.Sprintf("%T", err),
		SyntaxRepr: fmt.Sprintf("%+#v", err),
		Payload:    nil,
		Children:   nil,
	}
	//nolint:errorlint
	if p, ok := err.(interface{ FlawP() flaw.P }); ok {
		info.Payload = p.FlawP()
	}

	//nolint:errorlint
	switch x := err.(type) {
	case interface{ Unwrap() error }:
		if inner := x.Unwrap(); nil != inner {
			info.Children = []ErrInfo{Tree(inner)}
		}
	case interface{ Unwrap() []error }:
		errs := x.Unwrap()
		info.Children = make([]ErrInfo, 0, len(errs))
		for _, inner := range errs {
			if nil != inner {
				info.Children = append(info.Children, Tree(inner))
			}
		}
	}
	return info
}
