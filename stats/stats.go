// Package stats implements `stat-define`/`stat-update` bookkeeping spec.md
// §4.12 describes: a lazily-resolved, proxy-level named integer stat plus a
// locally-mirrored value the `stat<name>` extractor reads back, since
// proxy.Adaptor's StatUpdate is write-only (the real proxy stat API has no
// read accessor in spec.md's "thin adaptor" surface).
package stats

import (
	"sync"
	"sync/atomic"

	"github.com/SolidWallOfCode/txn-box-sub000/proxy"
)

// Define is the runtime state behind one `stat-define` directive: a
// proxy-level stat id, resolved lazily on first update, plus a local mirror
// of the current value.
type Define struct {
	Name string

	mu       sync.Mutex
	resolved bool
	id       int
	value    int64
}

// NewDefine builds an unresolved Define; the proxy stat id is created on
// first Update, per spec.md §4.12's "lazy-resolved at first use".
func NewDefine(name string) *Define {
	return &Define{Name: name}
}

// Update adds delta (default +1 per `stat-update`'s directive default) to
// both the proxy-level stat and the local mirror.
func (d *Define) Update(px proxy.Adaptor, delta int64) error {
	d.mu.Lock()
	if !d.resolved {
		id, err := px.StatCreate(d.Name)
		if err != nil {
			d.mu.Unlock()
			return err
		}
		d.id = id
		d.resolved = true
	}
	id := d.id
	d.mu.Unlock()

	px.StatUpdate(id, delta)
	atomic.AddInt64(&d.value, delta)
	return nil
}

// Value returns the current locally-mirrored stat value.
func (d *Define) Value() int64 { return atomic.LoadInt64(&d.value) }

var (
	registryMu sync.RWMutex
	registry   = map[string]*Define{}
)

// Register makes a Define resolvable by name to `stat-update` and the
// `stat<name>` extractor.
func Register(d *Define) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[d.Name] = d
}

// Lookup resolves a stat name to its Define.
func Lookup(name string) (*Define, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	d, ok := registry[name]
	return d, ok
}

// Unregister removes a named Define.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(registry, name)
}
