package stats

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

func TestUpdateResolvesLazilyAndAccumulates(t *testing.T) {
	px := fake.New()
	d := NewDefine("requests.total")

	require.NoError(t, d.Update(px, 1))
	require.NoError(t, d.Update(px, 1))
	require.NoError(t, d.Update(px, 5))

	assert.Equal(t, int64(7), d.Value())
	v, err := px.StatValue("requests.total")
	require.NoError(t, err)
	assert.Equal(t, int64(7), v)
}

func TestStatExtractor(t *testing.T) {
	px := fake.New()
	d := NewDefine("hits")
	Register(d)
	defer Unregister("hits")

	require.NoError(t, d.Update(px, 3))

	ext, ok := extractor.Lookup("stat")
	require.True(t, ok)
	ctx := txctx.New(px, 256, 4, 0)
	v, err := ext.Extract(ctx, "hits")
	require.NoError(t, err)
	assert.Equal(t, int64(3), v.IntVal())
}

func TestStatExtractorUnknownName(t *testing.T) {
	ext, ok := extractor.Lookup("stat")
	require.True(t, ok)
	_, err := ext.Extract(txctx.New(fake.New(), 256, 4, 0), "no-such-stat")
	assert.Error(t, err)
}

func TestWriteSnapshotListsStatsByName(t *testing.T) {
	px := fake.New()
	a, b := NewDefine("snapshot.alpha"), NewDefine("snapshot.beta")
	Register(a)
	Register(b)
	defer Unregister("snapshot.alpha")
	defer Unregister("snapshot.beta")

	require.NoError(t, a.Update(px, 2))
	require.NoError(t, b.Update(px, 9))

	path := filepath.Join(t.TempDir(), "stats.snapshot")
	require.NoError(t, WriteSnapshot(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "snapshot.alpha 2\nsnapshot.beta 9\n", string(content))
}
