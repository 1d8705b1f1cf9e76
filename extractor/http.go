package extractor

import (
	"github.com/SolidWallOfCode/txn-box-sub000/feature"
	"github.com/SolidWallOfCode/txn-box-sub000/proxy"
	"github.com/SolidWallOfCode/txn-box-sub000/txctx"
)

// urlPart extracts one component of a proxy.Adaptor URL view.
type urlPart struct {
	kind proxy.URLKind
	part func(*txctx.Context, proxy.URLKind) feature.Feature
}

func (e urlPart) Validate(loader Loader, arg string) (feature.ActiveType, error) {
	return feature.Of(feature.STRING), nil
}

func (e urlPart) Extract(ctx *txctx.Context, arg string) (feature.Feature, error) {
	return e.part(ctx, e.kind), nil
}

func (e urlPart) HasCtxRef() bool { return true }

func urlOrEmpty(ctx *txctx.Context, kind proxy.URLKind) string {
	u := ctx.Proxy().URL(kind)
	if u == nil {
		return ""
	}
	return u.String()
}

func registerURLParts(prefix string, kind proxy.URLKind) {
	Register(prefix+"-url", urlPart{kind: kind, part: func(ctx *txctx.Context, k proxy.URLKind) feature.Feature {
		return feature.Direct([]byte(urlOrEmpty(ctx, k)))
	}})
	Register(prefix+"-host", urlPart{kind: kind, part: func(ctx *txctx.Context, k proxy.URLKind) feature.Feature {
		u := ctx.Proxy().URL(k)
		if u == nil {
			return feature.Direct(nil)
		}
		return feature.Direct([]byte(u.Hostname()))
	}})
	Register(prefix+"-path", urlPart{kind: kind, part: func(ctx *txctx.Context, k proxy.URLKind) feature.Feature {
		u := ctx.Proxy().URL(k)
		if u == nil {
			return feature.Direct(nil)
		}
		return feature.Direct([]byte(u.Path))
	}})
	Register(prefix+"-query", urlPart{kind: kind, part: func(ctx *txctx.Context, k proxy.URLKind) feature.Feature {
		u := ctx.Proxy().URL(k)
		if u == nil {
			return feature.Direct(nil)
		}
		return feature.Direct([]byte(u.RawQuery))
	}})
	Register(prefix+"-scheme", urlPart{kind: kind, part: func(ctx *txctx.Context, k proxy.URLKind) feature.Feature {
		u := ctx.Proxy().URL(k)
		if u == nil {
			return feature.Direct(nil)
		}
		return feature.Direct([]byte(u.Scheme))
	}})
	Register(prefix+"-port", urlPart{kind: kind, part: func(ctx *txctx.Context, k proxy.URLKind) feature.Feature {
		u := ctx.Proxy().URL(k)
		if u == nil {
			return feature.Direct(nil)
		}
		return feature.Direct([]byte(u.Port()))
	}})
}

// headerField extracts one header value, a direct view per spec.md §5.13
// ("each Feature is a direct view into the proxy's header buffer").
type headerField struct{ kind proxy.HeaderKind }

func (e headerField) Validate(loader Loader, arg string) (feature.ActiveType, error) {
	loader.Localize(arg)
	return feature.Of(feature.STRING), nil
}

func (e headerField) Extract(ctx *txctx.Context, arg string) (feature.Feature, error) {
	v, ok := ctx.Proxy().Header(e.kind, arg)
	if !ok {
		return feature.Direct(nil), nil
	}
	return feature.Direct([]byte(v)), nil
}

func (e headerField) HasCtxRef() bool { return true }

// statusExtractor extracts an HTTP status code as an INTEGER.
type statusExtractor struct {
	get func(*txctx.Context) int
}

func (e statusExtractor) Validate(loader Loader, arg string) (feature.ActiveType, error) {
	return feature.Of(feature.INTEGER), nil
}

func (e statusExtractor) Extract(ctx *txctx.Context, arg string) (feature.Feature, error) {
	return feature.Int(int64(e.get(ctx))), nil
}

func (e statusExtractor) HasCtxRef() bool { return false }

// sessionString extracts a simple string-valued session property.
type sessionString struct {
	get func(*txctx.Context) string
}

func (e sessionString) Validate(loader Loader, arg string) (feature.ActiveType, error) {
	return feature.Of(feature.STRING), nil
}

func (e sessionString) Extract(ctx *txctx.Context, arg string) (feature.Feature, error) {
	return feature.Direct([]byte(e.get(ctx))), nil
}

func (e sessionString) HasCtxRef() bool { return true }

type sessionBool struct {
	get func(*txctx.Context) bool
}

func (e sessionBool) Validate(loader Loader, arg string) (feature.ActiveType, error) {
	return feature.Of(feature.BOOLEAN), nil
}

func (e sessionBool) Extract(ctx *txctx.Context, arg string) (feature.Feature, error) {
	return feature.Bool(e.get(ctx)), nil
}

func (e sessionBool) HasCtxRef() bool { return false }

func init() {
	registerURLParts("ua-req", proxy.UAReqURL)
	registerURLParts("proxy-req", proxy.ProxyReqURL)

	Register("upstream-rsp-status", statusExtractor{get: func(c *txctx.Context) int { return c.Proxy().ProxyRspStatus() }})
	Register("proxy-rsp-status", statusExtractor{get: func(c *txctx.Context) int { return c.Proxy().ProxyRspStatus() }})

	Register("ua-req-field", headerField{kind: proxy.UAReqHdr})
	Register("proxy-req-field", headerField{kind: proxy.ProxyReqHdr})
	Register("upstream-rsp-field", headerField{kind: proxy.UpstreamRspHdr})
	Register("proxy-rsp-field", headerField{kind: proxy.ProxyRspHdr})

	Register("inbound-addr-remote", sessionString{get: func(c *txctx.Context) string { return c.Proxy().SessionRemoteAddr().String() }})
	Register("inbound-addr-local", sessionString{get: func(c *txctx.Context) string { return c.Proxy().SessionLocalAddr().String() }})
	Register("outbound-addr-remote", sessionString{get: func(c *txctx.Context) string { return c.Proxy().SessionRemoteAddr().String() }})
	Register("outbound-sni", sessionString{get: func(c *txctx.Context) string { return c.Proxy().SessionSNI() }})
	Register("inbound-protocol", sessionString{get: func(c *txctx.Context) string { return c.Proxy().SessionProtocol() }})
	Register("is-internal", sessionBool{get: func(c *txctx.Context) bool { return c.Proxy().IsInternal() }})
}
