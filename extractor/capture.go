package extractor

import (
	"fmt"
	"strconv"

	"github.com/SolidWallOfCode/txn-box-sub000/feature"
	"github.com/SolidWallOfCode/txn-box-sub000/txctx"
)

// captureExtractor implements the numeric capture-group specifiers `{1}`..
// `{9}` (spec.md §5.13): arg is the decimal group index, validated at load
// to raise the enclosing regex's required capture-group floor.
type captureExtractor struct{}

func (captureExtractor) Validate(loader Loader, arg string) (feature.ActiveType, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 0 {
		return feature.ActiveType{}, fmt.Errorf("capture specifier requires a non-negative integer, got %q", arg)
	}
	return feature.Of(feature.STRING), nil
}

func (captureExtractor) Extract(ctx *txctx.Context, arg string) (feature.Feature, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return feature.Nil, err
	}
	g, ok := ctx.MatchState().Group(n)
	if !ok {
		return feature.Direct(nil), nil
	}
	return feature.Direct(g), nil
}

func (captureExtractor) HasCtxRef() bool { return true }

// activeFeatureExtractor implements `active-feature`: the context's current
// active feature (the implicit subject within `with`/`select`).
type activeFeatureExtractor struct{}

func (activeFeatureExtractor) Validate(loader Loader, arg string) (feature.ActiveType, error) {
	return feature.AnyAT, nil
}

func (activeFeatureExtractor) Extract(ctx *txctx.Context, arg string) (feature.Feature, error) {
	return ctx.Active(), nil
}

func (activeFeatureExtractor) HasCtxRef() bool { return true }

// unmatchedExtractor implements `unmatched`: the tracked remainder left by a
// string comparison's side effect (spec.md §4.5).
type unmatchedExtractor struct{}

func (unmatchedExtractor) Validate(loader Loader, arg string) (feature.ActiveType, error) {
	return feature.Of(feature.STRING), nil
}

func (unmatchedExtractor) Extract(ctx *txctx.Context, arg string) (feature.Feature, error) {
	return ctx.Remainder(), nil
}

func (unmatchedExtractor) HasCtxRef() bool { return true }

// varExtractor implements `var<name>`: looks up a transaction variable.
type varExtractor struct{}

func (varExtractor) Validate(loader Loader, arg string) (feature.ActiveType, error) {
	if arg == "" {
		return feature.ActiveType{}, fmt.Errorf("var<name> requires a non-empty name")
	}
	loader.Localize(arg)
	return feature.AnyAT, nil
}

func (varExtractor) Extract(ctx *txctx.Context, arg string) (feature.Feature, error) {
	v, ok := ctx.Var(arg)
	if !ok {
		return feature.Nil, nil
	}
	return v, nil
}

func (varExtractor) HasCtxRef() bool { return false }

func init() {
	Register("capture", captureExtractor{})
	Register("active-feature", activeFeatureExtractor{})
	Register("unmatched", unmatchedExtractor{})
	Register("var", varExtractor{})
}
