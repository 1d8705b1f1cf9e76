package reload

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func parseCount(t *testing.T, path string) (Parser[string], *int) {
	t.Helper()
	n := 0
	return func(p string) (string, error) {
		n++
		b, err := os.ReadFile(p)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}, &n
}

func TestNewParsesInitialContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "t.txt")
	writeFile(t, path, "v1")

	parse, _ := parseCount(t, path)
	tbl, err := New(path, parse)
	require.NoError(t, err)
	assert.Equal(t, "v1", tbl.Current())
}

func TestReloadPicksUpChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "t.txt")
	writeFile(t, path, "v1")

	parse, _ := parseCount(t, path)
	tbl, err := New(path, parse)
	require.NoError(t, err)

	writeFile(t, path, "v2")
	require.NoError(t, tbl.Reload())
	assert.Equal(t, "v2", tbl.Current())
}

func TestOnUpdateCalledAfterReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "t.txt")
	writeFile(t, path, "v1")

	parse, _ := parseCount(t, path)
	tbl, err := New(path, parse)
	require.NoError(t, err)

	var seen string
	tbl.OnUpdate(func(v string) { seen = v })
	writeFile(t, path, "v2")
	require.NoError(t, tbl.Reload())
	assert.Equal(t, "v2", seen)
}

func TestOnErrorCalledOnParseFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "t.txt")
	writeFile(t, path, "v1")

	parse, _ := parseCount(t, path)
	tbl, err := New(path, parse)
	require.NoError(t, err)

	var gotErr error
	tbl.OnError(func(e error) { gotErr = e })
	require.NoError(t, os.Remove(path))
	_ = tbl.Reload()
	assert.Error(t, gotErr)
}

func TestCheckAndReloadSkipsWhenMtimeUnchanged(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "t.txt")
	writeFile(t, path, "v1")

	parse, count := parseCount(t, path)
	tbl, err := New(path, parse)
	require.NoError(t, err)
	initial := *count

	tbl.checkAndReload()
	assert.Equal(t, initial, *count)
}

func TestStartPollingPicksUpChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "t.txt")
	writeFile(t, path, "v1")

	parse, _ := parseCount(t, path)
	tbl, err := New(path, parse)
	require.NoError(t, err)

	tbl.StartPolling(10 * time.Millisecond)
	defer tbl.Stop()

	time.Sleep(20 * time.Millisecond)
	writeFile(t, path, "v2")

	require.Eventually(t, func() bool {
		return tbl.Current() == "v2"
	}, time.Second, 10*time.Millisecond)
}

func TestFsnotifyFastPathBeatsLongPollInterval(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "t.txt")
	writeFile(t, path, "v1")

	parse, _ := parseCount(t, path)
	tbl, err := New(path, parse)
	require.NoError(t, err)

	// A long poll interval: if the change is picked up, it came from the
	// fsnotify watch, not the ticker.
	tbl.StartPolling(time.Hour)
	defer tbl.Stop()

	writeFile(t, path, "v2")

	require.Eventually(t, func() bool {
		return tbl.Current() == "v2"
	}, 2*time.Second, 10*time.Millisecond)
}
