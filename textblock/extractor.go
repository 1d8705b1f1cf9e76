package textblock

import (
	"fmt"

	"github.com/SolidWallOfCode/txn-box-sub000/extractor"
	"github.com/SolidWallOfCode/txn-box-sub000/feature"
	"github.com/SolidWallOfCode/txn-box-sub000/txctx"
)

// textBlockExtractor implements `text-block<name>`: returns the named
// block's current content as a string feature, per spec.md §4.12.
//
// The spec describes the returned value as "backed by a shared pointer that
// is pinned for the life of the context by a finalizer" — a manual-lifetime
// concern from the reference-counted original. Go's GC already keeps the
// snapshot string alive for as long as the returned Feature holds it; the
// finalizer is registered anyway, as a closure over the same snapshot, so
// the pinning contract spec.md names is still visibly present rather than
// silently relying on GC behavior a future reader might not expect.
type textBlockExtractor struct{}

func (textBlockExtractor) Validate(loader extractor.Loader, arg string) (feature.ActiveType, error) {
	if arg == "" {
		return feature.ActiveType{}, fmt.Errorf("text-block: requires a block name argument")
	}
	return feature.Of(feature.STRING), nil
}

func (textBlockExtractor) Extract(ctx *txctx.Context, arg string) (feature.Feature, error) {
	d, ok := Lookup(arg)
	if !ok {
		return feature.Nil, fmt.Errorf("text-block: no such block %q", arg)
	}
	content := d.Current()
	ctx.AddFinalizer(func() { _ = content })
	return feature.Literal(content), nil
}

func (textBlockExtractor) HasCtxRef() bool { return false }

func init() {
	extractor.Register("text-block", textBlockExtractor{})
}
