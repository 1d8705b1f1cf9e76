package config

import (
	"fmt"
	"sync/atomic"
)

// reloading guards the txn_box.reload plugin-message handler (spec.md §6):
// a message arriving while a prior reload is still in flight is dropped
// with an error rather than sharing the in-flight result, per §8 scenario
// 6 — the opposite of reload.Table's per-resource singleflight sharing,
// which is the right behavior for IPSpace/text-block tables but not for
// this top-level message handler.
var reloading atomic.Bool

// HandleReloadMessage implements the `txn_box.reload` plugin message:
// invokes loadFn (typically Load bound to the configured path) and, on
// success, atomically replaces the live Config; on failure, logs nothing
// itself (the caller logs the returned error) and leaves the previously
// active Config in place. A message that arrives while a reload is already
// running is dropped immediately, without waiting for it to finish.
func HandleReloadMessage(loadFn func() (*Config, error)) error {
	if !reloading.CompareAndSwap(false, true) {
		return fmt.Errorf("config: reload already in progress, message dropped")
	}
	defer reloading.Store(false)

	cfg, err := loadFn()
	if err != nil {
		return fmt.Errorf("config: reload failed, previous configuration remains active: %w", err)
	}
	setActive(cfg)
	return nil
}
