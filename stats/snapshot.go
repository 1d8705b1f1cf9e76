package stats

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/google/renameio"
)

// WriteSnapshot dumps every registered stat's current value to path, one
// `name value` line per stat sorted by name, for external scraping (the
// Prometheus node_exporter textfile-collector convention this follows).
// The write is atomic — a scraper reading path concurrently with a snapshot
// in progress never observes a half-written file — via renameio's
// write-to-temp-then-rename pattern rather than a direct os.WriteFile.
func WriteSnapshot(path string) error {
	registryMu.RLock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	for _, name := range names {
		fmt.Fprintf(&buf, "%s %d\n", name, registry[name].Value())
	}
	registryMu.RUnlock()

	pf, err := renameio.TempFile("", path)
	if err != nil {
		return err
	}
	defer pf.Cleanup()
	if _, err := pf.Write(buf.Bytes()); err != nil {
		return err
	}
	return pf.CloseAtomicallyReplace()
}
