// Package ipspace implements the IP-range-to-row lookup table spec.md §4.11
// describes as the exemplar reloadable external table: a longest-prefix
// match over CIDR ranges, typed columns (KEY/ADDRESS/STRING/INTEGER/ENUM/
// FLAGS), reloaded on a timer via the shared reload.Table[T] engine.
package ipspace

import (
	"bufio"
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"

	"github.com/asergeyev/nradix"

	"github.com/SolidWallOfCode/txn-box-sub000/arena"
	"github.com/SolidWallOfCode/txn-box-sub000/feature"
)

// cell is one parsed column value; which field is meaningful depends on the
// owning Column's Type.
type cell struct {
	s    string
	i    int64
	addr netip.Addr
	enum int
	fl   FlagSet
}

// Row is one table row's cells, in declared column order.
type Row []cell

// Table is a parsed, queryable IP-range table: an nradix longest-prefix tree
// mapping each declared range to a Row, plus the column schema shared by
// every row.
type Table struct {
	Columns []*Column
	tree    *nradix.Tree
	arena   *arena.Arena
	rows    []Row
}

// ColumnByName finds a declared column, or nil.
func (t *Table) ColumnByName(name string) *Column {
	for _, c := range t.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Lookup performs the longest-prefix match spec.md §4.11 describes, returning
// the matched Row and true, or the zero Row and false on a miss.
func (t *Table) Lookup(addr netip.Addr) (Row, bool) {
	v, err := t.tree.FindCIDR(addr.String())
	if err != nil || v == nil {
		return nil, false
	}
	idx, ok := v.(int)
	if !ok || idx < 0 || idx >= len(t.rows) {
		return nil, false
	}
	return t.rows[idx], true
}

// cellAt returns the feature value for cell i interpreted as column c.
func cellAt(c *Column, v cell) feature.Feature {
	switch c.Type {
	case ColumnKey, ColumnAddress:
		return feature.IP(v.addr)
	case ColumnString:
		return feature.Literal(v.s)
	case ColumnInteger:
		return feature.Int(v.i)
	case ColumnEnum:
		return feature.Literal(c.TagName(v.enum))
	case ColumnFlags:
		var elems feature.TupleRef
		for i, tag := range c.Tags {
			if v.fl.Has(i) {
				elems = append(elems, feature.Literal(tag))
			}
		}
		return feature.Tuple(elems)
	default:
		return feature.Nil
	}
}

// At returns the typed feature for the named column of this row, given the
// table's column schema.
func (t *Table) At(row Row, colName string) (feature.Feature, bool) {
	for i, c := range t.Columns {
		if c.Name == colName && i < len(row) {
			return cellAt(c, row[i]), true
		}
	}
	return feature.Nil, false
}

// Parse reads an IPSpace CSV file per spec.md §6: first cell is an IP range
// or CIDR, remaining cells map to the declared columns in order,
// comma-separated and whitespace-trimmed; `#` begins a comment line; blank
// lines are skipped; parse errors are reported with the offending line
// number.
func Parse(path string, columns []*Column) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t := &Table{
		Columns: columns,
		tree:    nradix.NewTree(32),
		arena:   arena.New(0),
	}

	sc := bufio.NewScanner(f)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, ",")
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}
		if len(fields) == 0 {
			continue
		}
		cidr, err := normalizeCIDR(fields[0])
		if err != nil {
			return nil, fmt.Errorf("ipspace: %s:%d: %w", path, lineNo, err)
		}
		prefix, err := netip.ParsePrefix(cidr)
		if err != nil {
			return nil, fmt.Errorf("ipspace: %s:%d: %w", path, lineNo, err)
		}
		row, err := parseRow(t.arena, columns, prefix.Addr(), fields[1:])
		if err != nil {
			return nil, fmt.Errorf("ipspace: %s:%d: %w", path, lineNo, err)
		}
		idx := len(t.rows)
		t.rows = append(t.rows, row)
		if err := t.tree.AddCIDR(cidr, idx); err != nil {
			return nil, fmt.Errorf("ipspace: %s:%d: %w", path, lineNo, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return t, nil
}

// normalizeCIDR accepts either a bare address or a CIDR and always returns a
// CIDR string, since nradix.AddCIDR requires prefix notation.
func normalizeCIDR(s string) (string, error) {
	if strings.Contains(s, "/") {
		if _, err := netip.ParsePrefix(s); err != nil {
			return "", fmt.Errorf("invalid range %q: %w", s, err)
		}
		return s, nil
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return "", fmt.Errorf("invalid address %q: %w", s, err)
	}
	bits := 32
	if addr.Is6() {
		bits = 128
	}
	return fmt.Sprintf("%s/%d", addr.String(), bits), nil
}

// parseRow parses the non-key fields against the declared (non-KEY) columns
// in order, per the per-column rules spec.md §4.11 lists. A KEY column's
// cell is populated from the row's own range address rather than a CSV
// field, so `ip-col<key>` can read the matched range back.
func parseRow(ar *arena.Arena, columns []*Column, keyAddr netip.Addr, fields []string) (Row, error) {
	row := make(Row, len(columns))
	fi := 0
	for ci, c := range columns {
		if c.Type == ColumnKey {
			row[ci] = cell{addr: keyAddr}
			continue
		}
		var raw string
		if fi < len(fields) {
			raw = fields[fi]
		}
		fi++

		var cl cell
		switch c.Type {
		case ColumnAddress:
			if raw == "" {
				row[ci] = cl
				continue
			}
			addr, err := netip.ParseAddr(raw)
			if err != nil {
				return nil, fmt.Errorf("column %q: invalid address %q", c.Name, raw)
			}
			cl.addr = addr
		case ColumnString:
			cl.s = string(ar.AllocString(raw))
		case ColumnInteger:
			if raw == "" {
				cl.i = 0
			} else {
				n, err := strconv.ParseInt(raw, 10, 64)
				if err != nil {
					return nil, fmt.Errorf("column %q: non-numeric value %q", c.Name, raw)
				}
				cl.i = n
			}
		case ColumnEnum:
			if raw != "" {
				idx, err := c.TagIndex(raw)
				if err != nil {
					return nil, err
				}
				cl.enum = idx
			} else {
				cl.enum = -1
			}
		case ColumnFlags:
			for _, tok := range splitFlagTokens(raw) {
				idx, err := c.TagIndex(tok)
				if err != nil {
					return nil, err
				}
				cl.fl = cl.fl.Set(idx)
			}
		}
		row[ci] = cl
	}
	return row, nil
}

// splitFlagTokens splits a FLAGS cell on whitespace and punctuation, per
// spec.md §4.11 ("whitespace/punctuation-separated tokens").
func splitFlagTokens(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		switch r {
		case ' ', '\t', ',', ';', '|', '/':
			return true
		}
		return false
	})
}
