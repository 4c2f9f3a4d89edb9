package blog

import "fmt"

// Lvl is a verbosity level, ordered from most to least severe.
type Lvl int

const (
	LvlCrit Lvl = iota
	LvlError
	LvlWarn
	LvlInfo
	LvlDebug
	LvlTrace
)

func (l Lvl) String() string {
	switch l {
	case LvlCrit:
		return "crit"
	case LvlError:
		return "eror"
	case LvlWarn:
		return "warn"
	case LvlInfo:
		return "info"
	case LvlDebug:
		return "dbug"
	case LvlTrace:
		return "trce"
	default:
		return "unkn"
	}
}

// LvlFromString parses a level name as accepted by the --log-level flag.
func LvlFromString(s string) (Lvl, error) {
	switch s {
	case "crit":
		return LvlCrit, nil
	case "error", "eror":
		return LvlError, nil
	case "warn":
		return LvlWarn, nil
	case "info":
		return LvlInfo, nil
	case "debug", "dbug":
		return LvlDebug, nil
	case "trace", "trce":
		return LvlTrace, nil
	default:
		return LvlInfo, fmt.Errorf("blog: unknown level %q", s)
	}
}
