package blog

import (
	"time"

	"github.com/go-stack/stack"
)

// Record is one emitted log line: a level, a message, ordered key/value
// context (this logger's fixed context followed by the call-site's), a
// timestamp, and the call frame that emitted it.
type Record struct {
	Time time.Time
	Lvl  Lvl
	Msg  string
	Ctx  []interface{}
	Call stack.Call
}
