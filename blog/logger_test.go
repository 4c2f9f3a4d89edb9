package blog

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStreamHandlerWritesFormattedLine(t *testing.T) {
	var buf bytes.Buffer
	h := StreamHandler(&buf, TerminalFormat(false))
	l := New(h)

	l.Info("hello", "peer", 3)
	require.Contains(t, buf.String(), "INFO")
	require.Contains(t, buf.String(), "hello")
	require.Contains(t, buf.String(), "peer=3")
}

func TestLvlFilterHandlerDropsVerboseRecords(t *testing.T) {
	var buf bytes.Buffer
	h := LvlFilterHandler(LvlWarn, StreamHandler(&buf, TerminalFormat(false)))
	l := New(h)

	l.Debug("should not appear")
	require.Empty(t, buf.String())

	l.Warn("should appear")
	require.Contains(t, buf.String(), "should appear")
}

func TestChildLoggerInheritsContext(t *testing.T) {
	var buf bytes.Buffer
	h := StreamHandler(&buf, TerminalFormat(false))
	l := New(h).New("component", "transport")

	l.Info("connected", "peer", 1)
	require.Contains(t, buf.String(), "component=transport")
	require.Contains(t, buf.String(), "peer=1")
}

func TestJSONFormatProducesValidObject(t *testing.T) {
	var buf bytes.Buffer
	h := StreamHandler(&buf, JSONFormat())
	l := New(h)

	l.Warn("dropped tx", "err", "insufficient funds")
	require.Contains(t, buf.String(), `"msg":"dropped tx"`)
	require.Contains(t, buf.String(), `"lvl":"warn"`)
}

func TestLvlFromString(t *testing.T) {
	lvl, err := LvlFromString("warn")
	require.NoError(t, err)
	require.Equal(t, LvlWarn, lvl)

	_, err = LvlFromString("bogus")
	require.Error(t, err)
}
