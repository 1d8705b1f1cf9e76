package modifier

import (
	"github.com/gosimple/slug"

	"github.com/SolidWallOfCode/txn-box-sub000/feature"
	"github.com/SolidWallOfCode/txn-box-sub000/txctx"
)

// slugModifier is a supplementary builtin beyond spec.md's minimum list: it
// normalizes a string feature into a URL-safe slug, useful for building
// cache-key fragments or stat names from free-form header/path text.
type slugModifier struct{}

func newSlug(loader Loader, raw any, buildExpr BuildExprFunc) (Modifier, error) {
	return slugModifier{}, nil
}

func (slugModifier) IsValidFor(t feature.ValueType) bool { return t == feature.STRING }
func (slugModifier) ResultType(feature.ValueType) feature.ValueType { return feature.STRING }

func (slugModifier) Apply(ctx *txctx.Context, f feature.Feature) (feature.Feature, error) {
	s := slug.Make(f.String())
	return feature.Transient(ctx.Localize(s)), nil
}
