package logger

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// capture routes JSON output into a buffer until the test ends.
func capture(t *testing.T, lvl string) *bytes.Buffer {
	t.Helper()
	t.Setenv("LOG_FORMAT", "")
	var buf bytes.Buffer
	SetOutput(&buf)
	Init(lvl)
	t.Cleanup(func() {
		SetOutput(os.Stdout)
		Init("info")
	})
	return &buf
}

func lines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	sc := bufio.NewScanner(bytes.NewReader(buf.Bytes()))
	for sc.Scan() {
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m), sc.Text())
		out = append(out, m)
	}
	return out
}

func TestInitParsesLevel(t *testing.T) {
	defer Init("info")
	for in, want := range map[string]string{
		"debug":    "debug",
		" WARN ":   "warn",
		"warning":  "warn",
		"Error":    "error",
		"fatal":    "fatal",
		"nonsense": "info",
		"":         "info",
	} {
		Init(in)
		require.Equal(t, want, LevelString(), "Init(%q)", in)
	}
}

func TestWarnLevelDropsChatter(t *testing.T) {
	buf := capture(t, "warn")
	Debug("binder loaded")
	Infof("store ready in %dms", 12)
	Println("listening on", ":8080")
	Warnf("write to %s failed", "content/hero")
	Error("bus disconnected")

	got := lines(t, buf)
	require.Len(t, got, 2)
	require.Equal(t, "warn", got[0]["level"])
	require.Equal(t, "write to content/hero failed", got[0]["message"])
	require.Equal(t, "error", got[1]["level"])
	require.Equal(t, "bus disconnected", got[1]["message"])
}

func TestPrintlnLogsAtInfo(t *testing.T) {
	buf := capture(t, "info")
	Println("listening on", ":8080")

	got := lines(t, buf)
	require.Len(t, got, 1)
	require.Equal(t, "info", got[0]["level"])
	require.Equal(t, "listening on :8080", got[0]["message"])
	require.Contains(t, got[0], "time")
}

func TestScopedCarriesField(t *testing.T) {
	buf := capture(t, "info")
	log := With("path", "collections/projects")
	log.Debugf("suppressed")
	log.Warnf("retrying %s", "add")

	got := lines(t, buf)
	require.Len(t, got, 1)
	require.Equal(t, "collections/projects", got[0]["path"])
	require.Equal(t, "retrying add", got[0]["message"])
}
