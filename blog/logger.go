package blog

import (
	"os"
	"sync/atomic"
	"time"

	"github.com/go-stack/stack"
)

// Logger emits leveled, structured records carrying a fixed key/value
// context established by New.
type Logger interface {
	// New returns a child logger whose context is this logger's context
	// plus ctx.
	New(ctx ...interface{}) Logger

	Trace(msg string, ctx ...interface{})
	Debug(msg string, ctx ...interface{})
	Info(msg string, ctx ...interface{})
	Warn(msg string, ctx ...interface{})
	Error(msg string, ctx ...interface{})
	// Crit logs at LvlCrit then terminates the process, matching the
	// driver loop's "panics inside the driver are fatal" contract.
	Crit(msg string, ctx ...interface{})

	SetHandler(h Handler)
}

type swapHandler struct {
	v atomic.Value
}

func (s *swapHandler) Log(r *Record) error {
	return s.v.Load().(Handler).Log(r)
}

func (s *swapHandler) Swap(h Handler) {
	s.v.Store(h)
}

type logger struct {
	ctx []interface{}
	h   *swapHandler
}

// New creates a standalone root logger writing through h.
func New(h Handler) Logger {
	l := &logger{h: new(swapHandler)}
	l.h.Swap(h)
	return l
}

func (l *logger) New(ctx ...interface{}) Logger {
	child := &logger{
		ctx: append(append([]interface{}{}, l.ctx...), ctx...),
		h:   l.h,
	}
	return child
}

func (l *logger) write(lvl Lvl, msg string, ctx []interface{}) {
	r := &Record{
		Time: time.Now(),
		Lvl:  lvl,
		Msg:  msg,
		Ctx:  append(append([]interface{}{}, l.ctx...), ctx...),
		Call: stack.Caller(2),
	}
	_ = l.h.Log(r)
}

func (l *logger) Trace(msg string, ctx ...interface{}) { l.write(LvlTrace, msg, ctx) }
func (l *logger) Debug(msg string, ctx ...interface{}) { l.write(LvlDebug, msg, ctx) }
func (l *logger) Info(msg string, ctx ...interface{})  { l.write(LvlInfo, msg, ctx) }
func (l *logger) Warn(msg string, ctx ...interface{})  { l.write(LvlWarn, msg, ctx) }
func (l *logger) Error(msg string, ctx ...interface{}) { l.write(LvlError, msg, ctx) }

func (l *logger) Crit(msg string, ctx ...interface{}) {
	l.write(LvlCrit, msg, ctx)
	os.Exit(1)
}

func (l *logger) SetHandler(h Handler) {
	l.h.Swap(h)
}
