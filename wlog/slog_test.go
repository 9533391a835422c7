package wlog_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/weavert/weave/wlog"
)

func TestSlogLoggerWritesThroughHandler(t *testing.T) {
	var buf bytes.Buffer
	l := wlog.NewSlog(slog.NewTextHandler(&buf, nil))

	require.True(t, l.Enabled(wlog.LevelInfo))
	l.Log(wlog.LevelInfo, "reactor started", wlog.Str("component", "ioreactor"), wlog.Int("workers", 4))

	require.Contains(t, buf.String(), "reactor started")
	require.Contains(t, buf.String(), "component=ioreactor")
}

func TestNopLoggerDiscardsEverything(t *testing.T) {
	require.False(t, wlog.Nop.Enabled(wlog.LevelError))
	wlog.Nop.Log(wlog.LevelError, "should not panic")
}
