package blog

import (
	"io"
	"sync"
)

// Handler writes a Record somewhere, or decides not to.
type Handler interface {
	Log(r *Record) error
}

// FuncHandler turns a plain function into a Handler.
type FuncHandler func(r *Record) error

func (h FuncHandler) Log(r *Record) error { return h(r) }

// StreamHandler writes each Record to wr using fmtr, serializing concurrent
// writers with a mutex so interleaved goroutines never tear a line in half.
func StreamHandler(wr io.Writer, fmtr Format) Handler {
	var mu sync.Mutex
	return FuncHandler(func(r *Record) error {
		mu.Lock()
		defer mu.Unlock()
		_, err := wr.Write(fmtr.Format(r))
		return err
	})
}

// LvlFilterHandler drops records more verbose than maxLvl before forwarding
// to h.
func LvlFilterHandler(maxLvl Lvl, h Handler) Handler {
	return FuncHandler(func(r *Record) error {
		if r.Lvl > maxLvl {
			return nil
		}
		return h.Log(r)
	})
}

// MultiHandler fans a Record out to every handler in hs.
func MultiHandler(hs ...Handler) Handler {
	return FuncHandler(func(r *Record) error {
		for _, h := range hs {
			_ = h.Log(r)
		}
		return nil
	})
}

// DiscardHandler drops every record; used by tests that don't want log
// output mixed into their own.
func DiscardHandler() Handler {
	return FuncHandler(func(*Record) error { return nil })
}
