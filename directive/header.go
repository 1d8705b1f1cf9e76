package directive

import (
	"fmt"
	"net/url"

	"github.com/SolidWallOfCode/txn-box-sub000/expr"
	"github.com/SolidWallOfCode/txn-box-sub000/proxy"
	"github.com/SolidWallOfCode/txn-box-sub000/txctx"
)

// headerSet implements the `ua-req-field<name>`/`proxy-req-field<name>`/
// `upstream-rsp-field<name>`/`proxy-rsp-field<name>` directives: assign a
// header field from an expression, or delete it if the expression evaluates
// empty (spec.md §6's directive-key-carries-argument convention).
type headerSet struct {
	kind  proxy.HeaderKind
	name  string
	value *expr.Expr
}

func (d *headerSet) Invoke(ctx *txctx.Context) error {
	v, err := d.value.Eval(ctx)
	if err != nil {
		return err
	}
	if v.IsEmpty() {
		ctx.Proxy().DeleteHeader(d.kind, d.name)
		return nil
	}
	ctx.Proxy().SetHeader(d.kind, d.name, v.String())
	return nil
}

func newHeaderFactory(kind proxy.HeaderKind) Factory {
	return func(loader Loader, arg string, raw any, build BuildFunc) (Directive, error) {
		if arg == "" {
			return nil, fmt.Errorf("directive: header field directive requires a <name> argument")
		}
		e, err := loader.BuildExpr(raw)
		if err != nil {
			return nil, err
		}
		return &headerSet{kind: kind, name: arg, value: e}, nil
	}
}

// urlSet implements `ua-req-url`/`proxy-req-url<part>`-style whole-or-part
// URL mutation, and the standalone `ua-req-host`/`ua-req-path`/
// `ua-req-query`/`ua-req-scheme` (and `proxy-req-*`) single-part spellings
// spec.md §8's scenarios write directly. A part name of "" rewrites the
// entire URL from the expression's string form; otherwise only that
// component is replaced. Setting the "host" part also updates the matching
// Host header field (spec.md §8 scenario 1: "outgoing URL host =
// example.com, Host field = example.com" — both, not just the URL).
type urlSet struct {
	kind    proxy.URLKind
	hdrKind proxy.HeaderKind
	part    string
	value   *expr.Expr
}

func (d *urlSet) Invoke(ctx *txctx.Context) error {
	v, err := d.value.Eval(ctx)
	if err != nil {
		return err
	}
	text := v.String()
	if d.part == "" {
		u, err := url.Parse(text)
		if err != nil {
			return fmt.Errorf("directive: invalid URL %q: %w", text, err)
		}
		ctx.Proxy().SetURL(d.kind, u)
		ctx.SetRemapMatched(true)
		return nil
	}
	u := ctx.Proxy().URL(d.kind)
	if u == nil {
		u = &url.URL{}
	}
	cp := *u
	switch d.part {
	case "host":
		cp.Host = text
		ctx.Proxy().SetHeader(d.hdrKind, "Host", text)
	case "path":
		cp.Path = text
	case "query":
		cp.RawQuery = text
	case "scheme":
		cp.Scheme = text
	default:
		return fmt.Errorf("directive: unknown URL part %q", d.part)
	}
	ctx.Proxy().SetURL(d.kind, &cp)
	ctx.SetRemapMatched(true)
	return nil
}

func newURLFactory(kind proxy.URLKind, hdrKind proxy.HeaderKind) Factory {
	return func(loader Loader, arg string, raw any, build BuildFunc) (Directive, error) {
		e, err := loader.BuildExpr(raw)
		if err != nil {
			return nil, err
		}
		return &urlSet{kind: kind, hdrKind: hdrKind, part: arg, value: e}, nil
	}
}

// newURLPartFactory builds a directive fixed to one URL component, for the
// standalone `<prefix>-host`/`<prefix>-path`/`<prefix>-query`/
// `<prefix>-scheme` directive names — unlike `newURLFactory`, the part comes
// from the directive name itself, not a `<arg>`.
func newURLPartFactory(kind proxy.URLKind, hdrKind proxy.HeaderKind, part string) Factory {
	return func(loader Loader, arg string, raw any, build BuildFunc) (Directive, error) {
		e, err := loader.BuildExpr(raw)
		if err != nil {
			return nil, err
		}
		return &urlSet{kind: kind, hdrKind: hdrKind, part: part, value: e}, nil
	}
}

// registerURLPartDirectives registers both the `<prefix>-url<part>` form and
// the standalone `<prefix>-host`/`<prefix>-path`/`<prefix>-query`/
// `<prefix>-scheme` directive names for one URL/header kind pair.
func registerURLPartDirectives(prefix string, kind proxy.URLKind, hdrKind proxy.HeaderKind) {
	Register(prefix+"-url", newURLFactory(kind, hdrKind))
	Register(prefix+"-host", newURLPartFactory(kind, hdrKind, "host"))
	Register(prefix+"-path", newURLPartFactory(kind, hdrKind, "path"))
	Register(prefix+"-query", newURLPartFactory(kind, hdrKind, "query"))
	Register(prefix+"-scheme", newURLPartFactory(kind, hdrKind, "scheme"))
}

// statusSet implements `proxy-rsp-status`: set the outgoing response status
// code.
type statusSet struct {
	value *expr.Expr
}

func (d *statusSet) Invoke(ctx *txctx.Context) error {
	v, err := d.value.Eval(ctx)
	if err != nil {
		return err
	}
	ctx.Proxy().SetProxyRspStatus(int(v.IntVal()))
	return nil
}

func newStatus(loader Loader, arg string, raw any, build BuildFunc) (Directive, error) {
	e, err := loader.BuildExpr(raw)
	if err != nil {
		return nil, err
	}
	return &statusSet{value: e}, nil
}

func init() {
	Register("ua-req-field", newHeaderFactory(proxy.UAReqHdr))
	Register("proxy-req-field", newHeaderFactory(proxy.ProxyReqHdr))
	Register("upstream-rsp-field", newHeaderFactory(proxy.UpstreamRspHdr))
	Register("proxy-rsp-field", newHeaderFactory(proxy.ProxyRspHdr))

	registerURLPartDirectives("ua-req", proxy.UAReqURL, proxy.UAReqHdr)
	registerURLPartDirectives("proxy-req", proxy.ProxyReqURL, proxy.ProxyReqHdr)

	Register("proxy-rsp-status", newStatus)
}
