// Package textblock implements `text-block-define`: reloadable literal or
// file-backed string content, sharing IPSpace's reload discipline
// (spec.md §4.12) via the generic reload.Table[T] engine.
package textblock

import (
	"os"
	"sync"
	"time"

	"github.com/SolidWallOfCode/txn-box-sub000/reload"
)

// Define is the runtime state behind one `text-block-define` directive. A
// literal block (Path == "") never reloads; a file-backed block polls on
// Duration exactly like an ipspace.Define.
type Define struct {
	Name string
	Path string

	literal string
	table   *reload.Table[string]
}

func readFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// NewLiteral builds a Define with fixed, non-reloading content.
func NewLiteral(name, content string) *Define {
	return &Define{Name: name, literal: content}
}

// NewFileBacked builds a Define backed by path, reparsed every duration (0
// disables the periodic poll; the block can still be reloaded on demand via
// Reload, e.g. from the `txn_box.reload` plugin message).
func NewFileBacked(name, path string, duration time.Duration) (*Define, error) {
	rt, err := reload.New(path, readFile)
	if err != nil {
		return nil, err
	}
	d := &Define{Name: name, Path: path, table: rt}
	if duration > 0 {
		rt.StartPolling(duration)
	}
	return d, nil
}

// OnUpdate/OnError wire the optional `on-update`/`on-error` directive trees
// spec.md §4.12 describes, run by the caller (a directive.Invoke closure) on
// the TASK pseudo-hook; a no-op for a literal (non-reloading) Define.
func (d *Define) OnUpdate(fn func(content string)) {
	if d.table != nil {
		d.table.OnUpdate(fn)
	}
}

func (d *Define) OnError(fn func(error)) {
	if d.table != nil {
		d.table.OnError(fn)
	}
}

// Current returns the live content snapshot.
func (d *Define) Current() string {
	if d.table == nil {
		return d.literal
	}
	return d.table.Current()
}

// Reload forces an immediate reparse; a no-op for a literal Define.
func (d *Define) Reload() error {
	if d.table == nil {
		return nil
	}
	return d.table.Reload()
}

// Stop ends the background polling goroutine, if any.
func (d *Define) Stop() {
	if d.table != nil {
		d.table.Stop()
	}
}

var (
	registryMu sync.RWMutex
	registry   = map[string]*Define{}
)

// Register makes a Define resolvable by name to the `text-block<name>`
// extractor.
func Register(d *Define) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[d.Name] = d
}

// Lookup resolves a block name to its Define.
func Lookup(name string) (*Define, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	d, ok := registry[name]
	return d, ok
}

// Unregister stops and removes a named Define.
func Unregister(name string) {
	registryMu.Lock()
	d, ok := registry[name]
	delete(registry, name)
	registryMu.Unlock()
	if ok {
		d.Stop()
	}
}
