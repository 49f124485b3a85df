package constant

import (
	_ "embed"
	"fmt"
	"time"
)

const BotName = "tgsd"

var (
	//go:embed version
	Version string
	// compileTime is overridden at build time with -ldflags "-X github.com/xeptore/tgsd/constant.compileTime=...".
	compileTime string = "2026-10-19T00:00:00Z"
	CompileTime time.Time
)

func init() {
	t, err := time.Parse(time.RFC3339, compileTime)
	if nil != err {
		panic(fmt.Errorf("could not parse CompileTime constant %q. Make sure you it is set at build time", compileTime))
	}
	CompileTime = t
}
