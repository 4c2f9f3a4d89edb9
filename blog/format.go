package blog

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Format renders a Record to bytes ready to write to a stream.
type Format interface {
	Format(r *Record) []byte
}

type formatFunc func(r *Record) []byte

func (f formatFunc) Format(r *Record) []byte { return f(r) }

const timeFormat = "2006-01-02T15:04:05-0700"

var lvlColor = map[Lvl]int{
	LvlCrit:  35, // magenta
	LvlError: 31, // red
	LvlWarn:  33, // yellow
	LvlInfo:  32, // green
	LvlDebug: 36, // cyan
	LvlTrace: 90, // bright black
}

// TerminalFormat renders one human-readable line per record, colorized by
// level when color is true: "LVL[time] msg key=value key=value ...".
func TerminalFormat(color bool) Format {
	return formatFunc(func(r *Record) []byte {
		var b strings.Builder
		lvl := strings.ToUpper(r.Lvl.String())
		if color {
			fmt.Fprintf(&b, "\x1b[%dm%s\x1b[0m[%s] %s", lvlColor[r.Lvl], lvl, r.Time.Format(timeFormat), r.Msg)
		} else {
			fmt.Fprintf(&b, "%s[%s] %s", lvl, r.Time.Format(timeFormat), r.Msg)
		}
		writePairs(&b, r.Ctx)
		b.WriteByte('\n')
		return []byte(b.String())
	})
}

func writePairs(b *strings.Builder, ctx []interface{}) {
	for i := 0; i+1 < len(ctx); i += 2 {
		key, ok := ctx[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", ctx[i])
		}
		fmt.Fprintf(b, " %s=%v", key, formatValue(ctx[i+1]))
	}
}

func formatValue(v interface{}) interface{} {
	if err, ok := v.(error); ok {
		return err.Error()
	}
	return v
}

// JSONFormat renders one JSON object per record, used with --log-json.
func JSONFormat() Format {
	return formatFunc(func(r *Record) []byte {
		fields := make(map[string]interface{}, 3+len(r.Ctx)/2)
		fields["t"] = r.Time.Format(timeFormat)
		fields["lvl"] = r.Lvl.String()
		fields["msg"] = r.Msg
		for i := 0; i+1 < len(r.Ctx); i += 2 {
			key, ok := r.Ctx[i].(string)
			if !ok {
				key = fmt.Sprintf("%v", r.Ctx[i])
			}
			fields[key] = formatValue(r.Ctx[i+1])
		}
		encoded, err := json.Marshal(fields)
		if err != nil {
			return []byte(fmt.Sprintf(`{"lvl":"eror","msg":"blog: json encode failed: %s"}`+"\n", err))
		}
		return append(encoded, '\n')
	})
}
