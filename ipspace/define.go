package ipspace

import (
	"fmt"
	"sync"
	"time"

	"github.com/SolidWallOfCode/txn-box-sub000/reload"
)

// Define is the runtime state behind one `ip-space-define` directive: a
// reloadable Table plus the column schema it was built with. It is the
// value the `ip-space(name)` modifier resolves its `name` argument to.
type Define struct {
	Name    string
	Path    string
	Columns []*Column

	table *reload.Table[*Table]
}

// NewDefine parses path once and, if duration is positive, starts the
// periodic reload poll at that interval — spec.md §4.11's "periodic task
// (interval = configured duration) stats the file; on mtime change,
// re-parses into a new TableInfo".
func NewDefine(name, path string, duration time.Duration, columns []*Column) (*Define, error) {
	parse := func(p string) (*Table, error) { return Parse(p, columns) }
	rt, err := reload.New(path, parse)
	if err != nil {
		return nil, fmt.Errorf("ipspace: define %q: %w", name, err)
	}
	d := &Define{Name: name, Path: path, Columns: columns, table: rt}
	if duration > 0 {
		rt.StartPolling(duration)
	}
	return d, nil
}

// Current returns the live Table snapshot.
func (d *Define) Current() *Table { return d.table.Current() }

// Reload forces an immediate reparse, used by the `txn_box.reload` plugin
// message handler.
func (d *Define) Reload() error { return d.table.Reload() }

// Stop ends this Define's background polling goroutine.
func (d *Define) Stop() { d.table.Stop() }

var (
	registryMu sync.RWMutex
	registry   = map[string]*Define{}
)

// Register makes a Define resolvable by name to the `ip-space(name)`
// modifier and any future `ip-space-define` reload. Config calls this once
// per named table while building a generation; a name already registered is
// replaced, matching the "atomically replaced" reload contract of spec.md
// §6's plugin-message description.
func Register(d *Define) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[d.Name] = d
}

// Lookup resolves a table name to its Define.
func Lookup(name string) (*Define, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	d, ok := registry[name]
	return d, ok
}

// Unregister stops and removes a named Define (config teardown on reload).
func Unregister(name string) {
	registryMu.Lock()
	d, ok := registry[name]
	delete(registry, name)
	registryMu.Unlock()
	if ok {
		d.Stop()
	}
}
