// Package loadctx defines the small interface extractor/modifier/comparison/
// directive validation code needs against the config being loaded, without
// importing package config itself.
//
// config.Config is the only real implementation, but defining Loader here —
// below every plug-in package in the dependency graph — lets validate/Load
// code call back into config-time state (arena localization, capture-group
// floor tracking, error recording) while config remains the top-level
// package that imports extractor/modifier/comparison/directive, not the
// other way around. This is the same "define the narrow interface next to
// the consumer" shape the teacher's processors package uses for its
// `config.VariableStorage` accessor.
package loadctx

import "github.com/SolidWallOfCode/txn-box-sub000/errata"

// Loader is the config-time capability surface a plug-in's validate/Load
// method is given.
type Loader interface {
	// Localize copies s into the configuration arena and returns the
	// arena-owned bytes, valid for the lifetime of the Config.
	Localize(s string) []byte

	// AllocConfigData reserves n bytes (aligned to `alignment`) in the
	// config arena for a Spec's private data slot (spec.md §4.3's
	// "spec.data — always a span into the config arena").
	AllocConfigData(n, alignment int) []byte

	// RequireCaptureGroups raises the Config's capture_groups floor to at
	// least n (spec.md §4.9), returning the new floor.
	RequireCaptureGroups(n int) int

	// ReserveContextStorage adds n bytes to the per-transaction reserved
	// block a directive type needs (spec.md §4.10) and returns this
	// directive instance's byte offset into that block.
	ReserveContextStorage(n int) int

	// Note records a load-time diagnostic at the current source location,
	// without aborting validation of sibling directives.
	Note(cause error, format string, args ...any)

	// Errata is the accumulator Note writes into, for callers that want to
	// inspect HasErrors() directly rather than only calling Note.
	Errata() *errata.Errata

	// CurrentMark is the source location validate/Load is presently
	// processing, used as the Mark for a Note.
	CurrentMark() errata.Mark
}
