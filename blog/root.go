package blog

import (
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

var root = New(defaultHandler())

func defaultHandler() Handler {
	useColor := isatty.IsTerminal(os.Stderr.Fd())
	out := colorable.NewColorableStderr()
	return LvlFilterHandler(LvlInfo, StreamHandler(out, TerminalFormat(useColor)))
}

// Root returns the package's default logger, the one used by the
// package-level Trace/Debug/.../Crit functions.
func Root() Logger { return root }

// SetRootHandler replaces the default logger's handler. Node binaries call
// this once at startup after parsing --log-level/--log-json.
func SetRootHandler(h Handler) { root.SetHandler(h) }

// HandlerFor builds the handler a node binary installs at startup: a
// terminal or JSON formatter, filtered to lvl, writing to stderr.
func HandlerFor(lvl Lvl, jsonOutput bool) Handler {
	if jsonOutput {
		return LvlFilterHandler(lvl, StreamHandler(os.Stderr, JSONFormat()))
	}
	useColor := isatty.IsTerminal(os.Stderr.Fd())
	out := colorable.NewColorableStderr()
	return LvlFilterHandler(lvl, StreamHandler(out, TerminalFormat(useColor)))
}

func Trace(msg string, ctx ...interface{}) { root.Trace(msg, ctx...) }
func Debug(msg string, ctx ...interface{}) { root.Debug(msg, ctx...) }
func Info(msg string, ctx ...interface{})  { root.Info(msg, ctx...) }
func Warn(msg string, ctx ...interface{})  { root.Warn(msg, ctx...) }
func Error(msg string, ctx ...interface{}) { root.Error(msg, ctx...) }
func Crit(msg string, ctx ...interface{})  { root.Crit(msg, ctx...) }
