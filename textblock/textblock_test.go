package textblock

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SolidWallOfCode/txn-box-sub000/extractor"
	"github.com/SolidWallOfCode/txn-box-sub000/proxy/fake"
	"github.com/SolidWallOfCode/txn-box-sub000/txctx"
)

func newCtx() *txctx.Context {
	return txctx.New(fake.New(), 256, 4, 0)
}

func TestLiteralBlockNeverReloads(t *testing.T) {
	d := NewLiteral("banner", "hello")
	assert.Equal(t, "hello", d.Current())
	assert.NoError(t, d.Reload())
	assert.Equal(t, "hello", d.Current())
}

func TestFileBackedBlockReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	d, err := NewFileBacked("banner", path, 0)
	require.NoError(t, err)
	assert.Equal(t, "v1", d.Current())

	require.NoError(t, os.WriteFile(path, []byte("v2"), 0o644))
	require.NoError(t, d.Reload())
	assert.Equal(t, "v2", d.Current())
}

func TestOnUpdateFiresOnReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	d, err := NewFileBacked("banner", path, 0)
	require.NoError(t, err)

	var seen string
	d.OnUpdate(func(c string) { seen = c })
	require.NoError(t, os.WriteFile(path, []byte("v2"), 0o644))
	require.NoError(t, d.Reload())
	assert.Equal(t, "v2", seen)
}

func TestTextBlockExtractor(t *testing.T) {
	Register(NewLiteral("banner", "welcome"))
	defer Unregister("banner")

	ext, ok := extractor.Lookup("text-block")
	require.True(t, ok)
	v, err := ext.Extract(newCtx(), "banner")
	require.NoError(t, err)
	assert.Equal(t, "welcome", v.String())
}

func TestTextBlockExtractorUnknownName(t *testing.T) {
	ext, ok := extractor.Lookup("text-block")
	require.True(t, ok)
	_, err := ext.Extract(newCtx(), "no-such-block")
	assert.Error(t, err)
}
