package directive

import (
	"fmt"
	"os"

	"github.com/google/renameio"
	"github.com/h2non/filetype"

	"github.com/SolidWallOfCode/txn-box-sub000/expr"
	"github.com/SolidWallOfCode/txn-box-sub000/txctx"
	"github.com/SolidWallOfCode/txn-box-sub000/txnlog"
)

// cacheKey implements `cache-key: <expr>` / `cache-key: [<expr>, ...]`:
// appends one or more fragments to the transaction's cache key.
type cacheKey struct {
	fragments []*expr.Expr
}

func (d *cacheKey) Invoke(ctx *txctx.Context) error {
	for _, f := range d.fragments {
		v, err := f.Eval(ctx)
		if err != nil {
			return err
		}
		ctx.Proxy().SetCacheKey(v.String())
	}
	return nil
}

func newCacheKey(loader Loader, arg string, raw any, build BuildFunc) (Directive, error) {
	if list, ok := raw.([]any); ok {
		d := &cacheKey{}
		for _, item := range list {
			e, err := loader.BuildExpr(item)
			if err != nil {
				return nil, err
			}
			d.fragments = append(d.fragments, e)
		}
		return d, nil
	}
	e, err := loader.BuildExpr(raw)
	if err != nil {
		return nil, err
	}
	return &cacheKey{fragments: []*expr.Expr{e}}, nil
}

// errorBody implements `error-body: { status, content-type, body }`: sets
// the proxy's synthetic error response. content-type is sniffed from the
// body via filetype when not given explicitly.
type errorBody struct {
	status      int
	contentType string
	body        *expr.Expr
}

func (d *errorBody) Invoke(ctx *txctx.Context) error {
	v, err := d.body.Eval(ctx)
	if err != nil {
		return err
	}
	body := []byte(v.String())
	ct := d.contentType
	if ct == "" {
		if kind, err := filetype.Match(body); err == nil && kind != filetype.Unknown {
			ct = kind.MIME.Value
		} else {
			ct = "text/plain; charset=utf-8"
		}
	}
	ctx.Proxy().SetErrorBody(d.status, ct, body)
	return nil
}

func newErrorBody(loader Loader, arg string, raw any, build BuildFunc) (Directive, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, wrongShapeErr("error-body", "map")
	}
	status := 500
	if sv, ok := m["status"]; ok {
		switch n := sv.(type) {
		case int:
			status = n
		case int64:
			status = int(n)
		default:
			return nil, fmt.Errorf("directive: error-body: status must be an integer")
		}
	}
	ct, _ := m["content-type"].(string)
	bodyRaw, ok := m["body"]
	if !ok {
		return nil, fmt.Errorf("directive: error-body: requires a body")
	}
	e, err := loader.BuildExpr(bodyRaw)
	if err != nil {
		return nil, err
	}
	return &errorBody{status: status, contentType: ct, body: e}, nil
}

var debugLog = txnlog.New(txnlog.Info, os.Stderr)

// debug implements `debug: <message-expr>` and `debug: {message, file}`:
// logs the evaluated message plus the context's current arena usage, a
// diagnostic aid spec.md §4.10's arena-usage report references. When a file
// is given, the same line is also appended atomically to that file — a
// snapshot dump an operator can tail or scrape without racing a half-written
// line, via renameio's write-to-temp-then-rename pattern rather than a plain
// append (append is not atomic across processes if the dump is ever
// regenerated rather than appended to).
type debug struct {
	message *expr.Expr
	file    *expr.Expr
}

func (d *debug) Invoke(ctx *txctx.Context) error {
	v, err := d.message.Eval(ctx)
	if err != nil {
		return err
	}
	line := fmt.Sprintf("debug: %s (arena bytes=%d, hook=%s)", v.String(), ctx.Arena().Bytes(), ctx.CurrentHook())
	debugLog.Infof("%s", line)
	if d.file == nil {
		return nil
	}
	fv, err := d.file.Eval(ctx)
	if err != nil {
		return err
	}
	return appendAtomic(fv.String(), line+"\n")
}

// appendAtomic rewrites path to its prior contents plus suffix via a
// temp-file-then-rename, so a concurrent reader never observes a partial
// line.
func appendAtomic(path, suffix string) error {
	prior, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	pf, err := renameio.TempFile("", path)
	if err != nil {
		return err
	}
	defer pf.Cleanup()
	if _, err := pf.Write(prior); err != nil {
		return err
	}
	if _, err := pf.Write([]byte(suffix)); err != nil {
		return err
	}
	return pf.CloseAtomicallyReplace()
}

func newDebug(loader Loader, arg string, raw any, build BuildFunc) (Directive, error) {
	if m, ok := raw.(map[string]any); ok {
		msgRaw, ok := m["message"]
		if !ok {
			return nil, fmt.Errorf("directive: debug: requires a message")
		}
		e, err := loader.BuildExpr(msgRaw)
		if err != nil {
			return nil, err
		}
		d := &debug{message: e}
		if fileRaw, ok := m["file"]; ok {
			fe, err := loader.BuildExpr(fileRaw)
			if err != nil {
				return nil, err
			}
			d.file = fe
		}
		return d, nil
	}
	e, err := loader.BuildExpr(raw)
	if err != nil {
		return nil, err
	}
	return &debug{message: e}, nil
}

func init() {
	Register("cache-key", newCacheKey)
	Register("error-body", newErrorBody)
	Register("debug", newDebug)
}
