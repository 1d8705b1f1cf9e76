package ipspace

import (
	"fmt"

	"github.com/SolidWallOfCode/txn-box-sub000/extractor"
	"github.com/SolidWallOfCode/txn-box-sub000/feature"
	"github.com/SolidWallOfCode/txn-box-sub000/txctx"
)

// ipColExtractor implements `ip-col<column>`: reads a named column from the
// slot the most recent `ip-space` modifier application left on the context,
// per spec.md §4.11.
type ipColExtractor struct{}

func (ipColExtractor) Validate(loader extractor.Loader, arg string) (feature.ActiveType, error) {
	if arg == "" {
		return feature.ActiveType{}, fmt.Errorf("ip-col: requires a column name argument")
	}
	return feature.AnyAT, nil
}

func (ipColExtractor) Extract(ctx *txctx.Context, arg string) (feature.Feature, error) {
	fr, ok := getSlot(ctx)
	if !ok || fr.Row == nil || fr.Table == nil {
		return feature.Nil, nil
	}
	v, ok := fr.Table.At(fr.Row, arg)
	if !ok {
		return feature.Nil, fmt.Errorf("ip-col: no such column %q", arg)
	}
	return v, nil
}

func (ipColExtractor) HasCtxRef() bool { return false }

func init() {
	extractor.Register("ip-col", ipColExtractor{})
}
