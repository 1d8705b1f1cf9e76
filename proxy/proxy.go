// Package proxy is the Go shape of the HTTP reverse proxy's C ABI that
// spec.md §1 scopes out of the core as an external collaborator: header/URL
// get-set, session introspection, cache key, upstream address, error body,
// overridable config vars, the transaction argument slot, hook
// registration, task scheduling, and plugin statistics.
//
// Adaptor is the interface the core programs against; proxy/fake implements
// it in memory for tests and for the txnbox-harness CLI. This module contains
// no other implementation: no cgo adaptor over Traffic Server's TSHttpTxn
// API is included.
package proxy

import (
	"net/netip"
	"net/url"
	"time"

	"github.com/SolidWallOfCode/txn-box-sub000/hook"
)

// HeaderKind selects which of the four header sets spec.md §1 lists.
type HeaderKind int

const (
	UAReqHdr HeaderKind = iota
	ProxyReqHdr
	UpstreamRspHdr
	ProxyRspHdr
)

// URLKind selects which URL view a directive/extractor addresses.
type URLKind int

const (
	UAReqURL URLKind = iota
	ProxyReqURL
)

// RemapStatus mirrors ctx.remap_status (spec.md §4.8).
type RemapStatus int

const (
	NoRemap RemapStatus = iota
	DidRemap
)

// Adaptor is the external proxy collaborator. Every method here corresponds
// 1:1 to a bullet in spec.md §1's "thin adaptor" list.
type Adaptor interface {
	Header(kind HeaderKind, name string) (string, bool)
	SetHeader(kind HeaderKind, name, value string)
	DeleteHeader(kind HeaderKind, name string)

	URL(kind URLKind) *url.URL
	SetURL(kind URLKind, u *url.URL)

	SessionRemoteAddr() netip.Addr
	SessionLocalAddr() netip.Addr
	SessionSNI() string
	SessionProtocol() string
	IsInternal() bool

	SetCacheKey(fragment string)
	SetUpstreamAddr(addr string)

	SetErrorBody(status int, contentType string, body []byte)

	ProxyRspStatus() int
	SetProxyRspStatus(status int)

	OverridableConfigVar(name string) (string, bool)
	SetOverridableConfigVar(name string, v string) bool

	RegisterHook(h hook.Hook, cb func())
	ScheduleTask(after time.Duration, cb func())

	StatCreate(name string) (id int, err error)
	StatUpdate(id int, delta int64)

	SSLSessionInfo() (proto, cipher string, ok bool)

	SetRemapStatus(RemapStatus)
	RemapStatus() RemapStatus
}
