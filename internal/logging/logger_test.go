package logging

import (
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeDisabledIsNoop(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Initialize(dir, Options{DebugMode: false}))
	defer Sync()

	assert.False(t, IsDebugMode())
	assert.False(t, IsCategoryEnabled(CategorySession))
	assert.Empty(t, Path())

	Get(CategorySession).Info("should not be written")

	_, err := os.Stat(dir + "/logs")
	assert.True(t, os.IsNotExist(err), "logs dir must not be created in production mode")
}

func TestInitializeRequiresDirInDebugMode(t *testing.T) {
	err := Initialize("", Options{DebugMode: true})
	require.Error(t, err)
	Sync()
}

func TestCategoriesWriteToLogFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Initialize(dir, Options{
		DebugMode: true,
		Level:     "debug",
		Categories: map[string]bool{
			"session": true,
			"store":   false,
		},
	}))

	path := Path()
	require.NotEmpty(t, path)

	Session("turn %d complete", 3)
	StoreDebug("hidden %s", "entry")
	Get(CategoryAnimation).With("ticks", 12).Debug("animation stopped")

	timer := StartTimer(CategorySynth, "Generate")
	time.Sleep(time.Millisecond)
	assert.Greater(t, timer.Stop(), time.Duration(0))

	Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, "turn 3 complete")
	assert.Contains(t, content, "session")
	assert.Contains(t, content, "animation stopped")
	assert.Contains(t, content, "Generate completed in")
	assert.False(t, strings.Contains(content, "hidden entry"), "disabled category leaked into log")
}

func TestLevelFiltering(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Initialize(dir, Options{DebugMode: true, Level: "warn", JSONFormat: true}))
	path := Path()

	Get(CategoryUI).Info("info message")
	Get(CategoryUI).Warn("warn message")
	Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "info message")
	assert.Contains(t, string(data), `"msg":"warn message"`)
}

func TestStopWithThreshold(t *testing.T) {
	require.NoError(t, Initialize(t.TempDir(), Options{DebugMode: true, Level: "debug"}))
	defer Sync()

	timer := StartTimer(CategoryAPI, "slow call")
	elapsed := timer.StopWithThreshold(time.Hour)
	assert.Less(t, elapsed, time.Hour)
}

func TestAuditTrailWritesJSONLines(t *testing.T) {
	require.NoError(t, Initialize(t.TempDir(), Options{DebugMode: true}))

	path := AuditPath()
	require.NotEmpty(t, path)

	a := AuditWithSession("sess-1")
	a.SessionStart("canned", "auto")
	a.TurnStart(1, "gravity")
	a.TurnError(2, "network", errors.New("dial tcp: refused"))
	a.LLMCall("gemini-2.0-flash", 40*time.Millisecond, nil)
	Sync()
	assert.Empty(t, AuditPath())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 4)

	assert.Contains(t, lines[0], `"event":"session_start"`)
	assert.Contains(t, lines[0], `"session":"sess-1"`)
	assert.Contains(t, lines[1], `"turn":1`)
	assert.Contains(t, lines[2], `"success":false`)
	assert.Contains(t, lines[2], `"kind":"network"`)
	assert.Contains(t, lines[3], `"event":"llm_response"`)
	assert.Contains(t, lines[3], `"dur_ms":40`)
}

func TestAuditDisabledOutsideDebugMode(t *testing.T) {
	require.NoError(t, Initialize(t.TempDir(), Options{}))
	defer Sync()

	assert.Empty(t, AuditPath())
	Audit().SessionEnd(0, time.Second) // must not panic
}
