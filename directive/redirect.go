package directive

import (
	"fmt"

	"github.com/SolidWallOfCode/txn-box-sub000/expr"
	"github.com/SolidWallOfCode/txn-box-sub000/proxy"
	"github.com/SolidWallOfCode/txn-box-sub000/txctx"
)

// Redirect implements `redirect: { status, location }`: sets the proxy
// response status and Location header, marks the transaction remapped, and
// halts further directive processing for the current hook (spec.md §4.8's
// "remap result taken from ctx.remap_status").
type Redirect struct {
	status   int
	location *expr.Expr
}

func (d *Redirect) Invoke(ctx *txctx.Context) error {
	loc, err := d.location.Eval(ctx)
	if err != nil {
		return err
	}
	ctx.Proxy().SetHeader(proxy.ProxyRspHdr, "Location", loc.String())
	ctx.Proxy().SetProxyRspStatus(d.status)
	ctx.Proxy().SetRemapStatus(proxy.DidRemap)
	ctx.SetRemapMatched(true)
	ctx.SetTerminal(true)
	return nil
}

func newRedirect(loader Loader, arg string, raw any, build BuildFunc) (Directive, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, wrongShapeErr("redirect", "map")
	}
	status := 302
	if sv, ok := m["status"]; ok {
		switch n := sv.(type) {
		case int:
			status = n
		case int64:
			status = int(n)
		default:
			return nil, fmt.Errorf("directive: redirect: status must be an integer")
		}
	}
	locRaw, ok := m["location"]
	if !ok {
		return nil, fmt.Errorf("directive: redirect: requires a location")
	}
	loc, err := loader.BuildExpr(locRaw)
	if err != nil {
		return nil, err
	}
	return &Redirect{status: status, location: loc}, nil
}

func init() {
	Register("redirect", newRedirect)
}
