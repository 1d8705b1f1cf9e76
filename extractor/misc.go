package extractor

import (
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/SolidWallOfCode/txn-box-sub000/feature"
	"github.com/SolidWallOfCode/txn-box-sub000/txctx"
)

// randomExtractor implements `random<n>`: an integer in [0, n). A literal n
// makes this a ConstExtractor, so a config-time-constant reference can be
// resolved once at load rather than re-rolled per transaction — though most
// uses want the runtime roll, so Extract always re-rolls; only
// ExtractConst is special-cased for the rare truly-load-time use.
type randomExtractor struct{}

func (randomExtractor) Validate(loader Loader, arg string) (feature.ActiveType, error) {
	n, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || n < 1 {
		return feature.ActiveType{}, fmt.Errorf("random<n> requires a positive integer, got %q", arg)
	}
	return feature.Of(feature.INTEGER), nil
}

func (randomExtractor) Extract(ctx *txctx.Context, arg string) (feature.Feature, error) {
	n, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return feature.Nil, err
	}
	return feature.Int(rand.Int63n(n)), nil
}

func (randomExtractor) HasCtxRef() bool { return false }

func (randomExtractor) ExtractConst(loader Loader, arg string) (feature.Feature, error) {
	n, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return feature.Nil, err
	}
	return feature.Int(rand.Int63n(n)), nil
}

// nowExtractor implements `now`: the current TIMEPOINT.
type nowExtractor struct{}

func (nowExtractor) Validate(loader Loader, arg string) (feature.ActiveType, error) {
	return feature.Of(feature.TIMEPOINT), nil
}

func (nowExtractor) Extract(ctx *txctx.Context, arg string) (feature.Feature, error) {
	return feature.Time(time.Now()), nil
}

func (nowExtractor) HasCtxRef() bool { return false }

// txnIDExtractor implements `txn-id`: a GENERIC feature backed by a
// per-transaction UUID, lazily assigned and cached as a context variable so
// repeated references within the same transaction see the same id.
type txnIDExtractor struct{}

const txnIDVarName = "\x00txn-id"

func (txnIDExtractor) Validate(loader Loader, arg string) (feature.ActiveType, error) {
	return feature.Of(feature.GENERIC), nil
}

func (txnIDExtractor) Extract(ctx *txctx.Context, arg string) (feature.Feature, error) {
	if v, ok := ctx.Var(txnIDVarName); ok {
		return v, nil
	}
	id := uuid.New()
	v := feature.Generic(id)
	ctx.SetVar(txnIDVarName, v)
	return v, nil
}

func (txnIDExtractor) HasCtxRef() bool { return false }

func init() {
	Register("random", randomExtractor{})
	Register("now", nowExtractor{})
	Register("txn-id", txnIDExtractor{})
}
