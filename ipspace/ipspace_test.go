package ipspace

import (
	"net/netip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SolidWallOfCode/txn-box-sub000/extractor"
	"github.com/SolidWallOfCode/txn-box-sub000/feature"
	modpkg "github.com/SolidWallOfCode/txn-box-sub000/modifier"
	"github.com/SolidWallOfCode/txn-box-sub000/proxy/fake"
	"github.com/SolidWallOfCode/txn-box-sub000/txctx"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "geo.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testColumns() []*Column {
	return []*Column{
		NewColumn("country", ColumnString, nil),
		NewColumn("asn", ColumnInteger, nil),
		NewColumn("class", ColumnEnum, []string{"residential", "datacenter"}),
		NewColumn("tags", ColumnFlags, []string{"vpn", "tor", "proxy"}),
	}
}

func TestParseBasicLookup(t *testing.T) {
	path := writeCSV(t, "# comment\n10.0.0.0/8,US,64512,residential,vpn tor\n\n172.16.0.0/12,DE,64513,datacenter,\n")
	tbl, err := Parse(path, testColumns())
	require.NoError(t, err)

	row, ok := tbl.Lookup(netip.MustParseAddr("10.1.2.3"))
	require.True(t, ok)

	v, ok := tbl.At(row, "country")
	require.True(t, ok)
	assert.Equal(t, "US", v.String())

	v, ok = tbl.At(row, "asn")
	require.True(t, ok)
	assert.Equal(t, int64(64512), v.IntVal())

	v, ok = tbl.At(row, "class")
	require.True(t, ok)
	assert.Equal(t, "residential", v.String())

	v, ok = tbl.At(row, "tags")
	require.True(t, ok)
	assert.True(t, v.IsList())
	flags := v.TupleVal()
	require.Len(t, flags, 2)
	assert.Equal(t, "vpn", flags[0].String())
	assert.Equal(t, "tor", flags[1].String())
}

func TestLookupMiss(t *testing.T) {
	path := writeCSV(t, "10.0.0.0/8,US,1,residential,\n")
	tbl, err := Parse(path, testColumns())
	require.NoError(t, err)
	_, ok := tbl.Lookup(netip.MustParseAddr("8.8.8.8"))
	assert.False(t, ok)
}

func TestLongestPrefixWins(t *testing.T) {
	path := writeCSV(t, "10.0.0.0/8,broad,1,residential,\n10.1.0.0/16,narrow,2,datacenter,\n")
	tbl, err := Parse(path, testColumns())
	require.NoError(t, err)
	row, ok := tbl.Lookup(netip.MustParseAddr("10.1.2.3"))
	require.True(t, ok)
	v, _ := tbl.At(row, "country")
	assert.Equal(t, "narrow", v.String())
}

func TestAutoEnumGrowsLexicon(t *testing.T) {
	cols := []*Column{NewColumn("k", ColumnEnum, nil)}
	path := writeCSV(t, "10.0.0.0/8,alpha\n172.16.0.0/12,beta\n")
	tbl, err := Parse(path, cols)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, cols[0].Tags)

	row, ok := tbl.Lookup(netip.MustParseAddr("172.16.1.1"))
	require.True(t, ok)
	v, _ := tbl.At(row, "k")
	assert.Equal(t, "beta", v.String())
}

func TestNonNumericIntegerIsLoadError(t *testing.T) {
	cols := []*Column{NewColumn("n", ColumnInteger, nil)}
	path := writeCSV(t, "10.0.0.0/8,notanumber\n")
	_, err := Parse(path, cols)
	assert.Error(t, err)
}

func TestUnknownEnumTagWithExplicitTagsIsLoadError(t *testing.T) {
	cols := []*Column{NewColumn("class", ColumnEnum, []string{"a", "b"})}
	path := writeCSV(t, "10.0.0.0/8,nope\n")
	_, err := Parse(path, cols)
	assert.Error(t, err)
}

func TestKeyColumnReadsBackRangeAddress(t *testing.T) {
	cols := []*Column{NewColumn("range", ColumnKey, nil), NewColumn("country", ColumnString, nil)}
	path := writeCSV(t, "10.0.0.0/8,US\n")
	tbl, err := Parse(path, cols)
	require.NoError(t, err)
	row, ok := tbl.Lookup(netip.MustParseAddr("10.1.1.1"))
	require.True(t, ok)
	v, ok := tbl.At(row, "range")
	require.True(t, ok)
	assert.Equal(t, feature.IP_ADDR, v.Type)
	assert.Equal(t, netip.MustParseAddr("10.0.0.0"), v.IPVal())
}

func newCtx() *txctx.Context {
	return txctx.New(fake.New(), 256, 4, 0)
}

type noopLoader struct{}

func (noopLoader) Note(cause error, format string, args ...any) {}

func TestIPSpaceModifierAndIPColExtractor(t *testing.T) {
	path := writeCSV(t, "10.0.0.0/8,US,64512,residential,vpn\n")
	require.NoError(t, registerDefine(t, "geo", path))
	defer Unregister("geo")

	factory, ok := modpkg.Lookup("ip-space")
	require.True(t, ok)
	m, err := factory(noopLoader{}, "geo", nil)
	require.NoError(t, err)

	ctx := newCtx()
	_, err = m.Apply(ctx, feature.IP(netip.MustParseAddr("10.5.5.5")))
	require.NoError(t, err)

	ext, ok := extractor.Lookup("ip-col")
	require.True(t, ok)
	v, err := ext.Extract(ctx, "country")
	require.NoError(t, err)
	assert.Equal(t, "US", v.String())
}

func TestIPColWithNoPriorIPSpaceIsNil(t *testing.T) {
	ext, ok := extractor.Lookup("ip-col")
	require.True(t, ok)
	v, err := ext.Extract(newCtx(), "country")
	require.NoError(t, err)
	assert.True(t, v.IsEmpty())
}

func TestIPSpaceModifierRejectsNonAddress(t *testing.T) {
	path := writeCSV(t, "10.0.0.0/8,US,1,residential,\n")
	require.NoError(t, registerDefine(t, "geo2", path))
	defer Unregister("geo2")

	factory, _ := modpkg.Lookup("ip-space")
	m, err := factory(noopLoader{}, "geo2", nil)
	require.NoError(t, err)

	ctx := newCtx()
	_, err = m.Apply(ctx, feature.Literal("not an ip"))
	assert.Error(t, err)
}

func registerDefine(t *testing.T, name, path string) error {
	t.Helper()
	d, err := NewDefine(name, path, 0, testColumns())
	if err != nil {
		return err
	}
	Register(d)
	return nil
}
