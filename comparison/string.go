package comparison

import (
	"fmt"
	"strings"

	"github.com/SolidWallOfCode/txn-box-sub000/feature"
	"github.com/SolidWallOfCode/txn-box-sub000/rxp"
	"github.com/SolidWallOfCode/txn-box-sub000/txctx"
)

// stringMask is the ValueMask every string comparison in this file reports.
var stringMask = feature.MaskOf(feature.STRING)

func rawText(raw any) (string, error) {
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("expected a string value, got %T", raw)
	}
	return s, nil
}

// caseFold applies the engine's ASCII-only fold (an explicit, documented
// simplification over locale-aware folding; see DESIGN.md's Open Question
// decision on contain/tld case folding).
func caseFold(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= 'A' && r <= 'Z' {
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

func subjectBytes(f feature.Feature) []byte {
	return f.View().Bytes
}

// matchComparison implements `match`: exact equality.
type matchComparison struct {
	text string
	nc   bool
}

func newMatch(loader Loader, arg string, raw any, build BuildFunc) (Comparison, error) {
	text, err := rawText(raw)
	if err != nil {
		return nil, err
	}
	return &matchComparison{text: text, nc: arg == "nc"}, nil
}

func (c *matchComparison) SupportedTypes() feature.ValueMask { return stringMask }

func (c *matchComparison) Match(ctx *txctx.Context, f feature.Feature) bool {
	s := subjectBytes(f)
	lhs, rhs := string(s), c.text
	if c.nc {
		lhs, rhs = caseFold(lhs), caseFold(rhs)
	}
	if lhs != rhs {
		return false
	}
	ctx.MatchState().SetLiteralCapture(s)
	ctx.SetActive(feature.Transient(nil))
	return true
}

// prefixComparison implements `prefix`: s.starts_with(t); active becomes the
// suffix after t (spec.md §4.5's "active := suffix after t").
type prefixComparison struct {
	text string
	nc   bool
}

func newPrefix(loader Loader, arg string, raw any, build BuildFunc) (Comparison, error) {
	text, err := rawText(raw)
	if err != nil {
		return nil, err
	}
	return &prefixComparison{text: text, nc: arg == "nc"}, nil
}

func (c *prefixComparison) SupportedTypes() feature.ValueMask { return stringMask }

func (c *prefixComparison) Match(ctx *txctx.Context, f feature.Feature) bool {
	s := subjectBytes(f)
	cmpSubject, cmpText := string(s), c.text
	if c.nc {
		cmpSubject, cmpText = caseFold(cmpSubject), caseFold(cmpText)
	}
	if !strings.HasPrefix(cmpSubject, cmpText) {
		return false
	}
	ctx.MatchState().SetLiteralCapture([]byte(c.text))
	ctx.SetActive(feature.Direct(s[len(c.text):]))
	return true
}

// suffixComparison implements `suffix`: s.ends_with(t); active becomes the
// prefix before t.
type suffixComparison struct {
	text string
	nc   bool
}

func newSuffix(loader Loader, arg string, raw any, build BuildFunc) (Comparison, error) {
	text, err := rawText(raw)
	if err != nil {
		return nil, err
	}
	return &suffixComparison{text: text, nc: arg == "nc"}, nil
}

func (c *suffixComparison) SupportedTypes() feature.ValueMask { return stringMask }

func (c *suffixComparison) Match(ctx *txctx.Context, f feature.Feature) bool {
	s := subjectBytes(f)
	cmpSubject, cmpText := string(s), c.text
	if c.nc {
		cmpSubject, cmpText = caseFold(cmpSubject), caseFold(cmpText)
	}
	if !strings.HasSuffix(cmpSubject, cmpText) {
		return false
	}
	ctx.MatchState().SetLiteralCapture([]byte(c.text))
	ctx.SetActive(feature.Direct(s[:len(s)-len(c.text)]))
	return true
}

// containComparison implements `contain`: t is a substring of s; capture is
// set to s with t removed. Remainder is always tracked (DESIGN.md's Open
// Question decision), trading a small amount of avoidable allocation for
// skipping the load-time update_remainder_p inspection pass the original
// performs as an optimization.
type containComparison struct {
	text string
	nc   bool
}

func newContain(loader Loader, arg string, raw any, build BuildFunc) (Comparison, error) {
	text, err := rawText(raw)
	if err != nil {
		return nil, err
	}
	return &containComparison{text: text, nc: arg == "nc"}, nil
}

func (c *containComparison) SupportedTypes() feature.ValueMask { return stringMask }

func (c *containComparison) Match(ctx *txctx.Context, f feature.Feature) bool {
	s := subjectBytes(f)
	cmpSubject, cmpText := string(s), c.text
	if c.nc {
		cmpSubject, cmpText = caseFold(cmpSubject), caseFold(cmpText)
	}
	idx := strings.Index(cmpSubject, cmpText)
	if idx < 0 {
		return false
	}
	remainder := make([]byte, 0, len(s)-len(c.text))
	remainder = append(remainder, s[:idx]...)
	remainder = append(remainder, s[idx+len(c.text):]...)
	ctx.MatchState().SetLiteralCapture(remainder)
	ctx.SetRemainder(feature.Transient(remainder))
	return true
}

// tldComparison implements `tld`: s ends with t, preceded by '.' or equal to
// t; capture is ".t", remainder is s without ".t".
type tldComparison struct {
	text string
	nc   bool
}

func newTLD(loader Loader, arg string, raw any, build BuildFunc) (Comparison, error) {
	text, err := rawText(raw)
	if err != nil {
		return nil, err
	}
	return &tldComparison{text: text, nc: arg == "nc"}, nil
}

func (c *tldComparison) SupportedTypes() feature.ValueMask { return stringMask }

func (c *tldComparison) Match(ctx *txctx.Context, f feature.Feature) bool {
	s := subjectBytes(f)
	cmpSubject, cmpText := string(s), c.text
	if c.nc {
		cmpSubject, cmpText = caseFold(cmpSubject), caseFold(cmpText)
	}
	var matched string
	switch {
	case cmpSubject == cmpText:
		matched = string(s)
	case strings.HasSuffix(cmpSubject, "."+cmpText):
		matched = string(s[len(s)-len(c.text)-1:])
	default:
		return false
	}
	ctx.MatchState().SetLiteralCapture([]byte("." + strings.TrimPrefix(matched, ".")))
	remainder := s[:len(s)-len(matched)]
	ctx.SetRemainder(feature.Direct(remainder))
	return true
}

// rxpComparison implements `rxp`: a PCRE2-contract match served by RE2
// (rxp.Pattern); on success CommitMatch swaps the working match data into
// the match state's active capture groups (spec.md §4.9) — active/remainder
// are untouched, matching Comparison.cc's Cmp_Rxp/Cmp_RxpSingle.
type rxpComparison struct {
	pattern *rxp.Pattern
}

func newRxp(loader Loader, arg string, raw any, build BuildFunc) (Comparison, error) {
	src, err := rawText(raw)
	if err != nil {
		return nil, err
	}
	pat, err := rxp.Compile(src, arg == "nc")
	if err != nil {
		return nil, fmt.Errorf("invalid regex %q: %w", src, err)
	}
	loader.RequireCaptureGroups(pat.Groups())
	return &rxpComparison{pattern: pat}, nil
}

func (c *rxpComparison) SupportedTypes() feature.ValueMask { return stringMask }

func (c *rxpComparison) Match(ctx *txctx.Context, f feature.Feature) bool {
	s := subjectBytes(f)
	ms := ctx.MatchState()
	if !ms.Match(c.pattern, s) {
		return false
	}
	ms.CommitMatch(s)
	return true
}

// trueComparison/falseComparison implement `true`/`false`: for strings,
// consult the boolean-synonym lexicon; for int/bool, the obvious reading.
type trueComparison struct{}

func newTrue(loader Loader, arg string, raw any, build BuildFunc) (Comparison, error) {
	return trueComparison{}, nil
}

func (trueComparison) SupportedTypes() feature.ValueMask {
	return feature.MaskOf(feature.STRING, feature.INTEGER, feature.BOOLEAN)
}

func (trueComparison) Match(ctx *txctx.Context, f feature.Feature) bool {
	if f.Type == feature.STRING {
		return feature.StringIsTrue(f.String())
	}
	return f.AsBool()
}

type falseComparison struct{}

func newFalse(loader Loader, arg string, raw any, build BuildFunc) (Comparison, error) {
	return falseComparison{}, nil
}

func (falseComparison) SupportedTypes() feature.ValueMask {
	return feature.MaskOf(feature.STRING, feature.INTEGER, feature.BOOLEAN)
}

func (falseComparison) Match(ctx *txctx.Context, f feature.Feature) bool {
	if f.Type == feature.STRING {
		return feature.StringIsFalse(f.String())
	}
	return !f.AsBool()
}
