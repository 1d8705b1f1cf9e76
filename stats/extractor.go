package stats

import (
	"fmt"

	"github.com/SolidWallOfCode/txn-box-sub000/extractor"
	"github.com/SolidWallOfCode/txn-box-sub000/feature"
	"github.com/SolidWallOfCode/txn-box-sub000/txctx"
)

// statExtractor implements `stat<name>`: returns the named stat's current
// (locally-mirrored) integer value, per spec.md §4.12.
type statExtractor struct{}

func (statExtractor) Validate(loader extractor.Loader, arg string) (feature.ActiveType, error) {
	if arg == "" {
		return feature.ActiveType{}, fmt.Errorf("stat: requires a stat name argument")
	}
	return feature.Of(feature.INTEGER), nil
}

func (statExtractor) Extract(ctx *txctx.Context, arg string) (feature.Feature, error) {
	d, ok := Lookup(arg)
	if !ok {
		return feature.Nil, fmt.Errorf("stat: no such stat %q", arg)
	}
	return feature.Int(d.Value()), nil
}

func (statExtractor) HasCtxRef() bool { return false }

func init() {
	extractor.Register("stat", statExtractor{})
}
