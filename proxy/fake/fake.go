// Package fake implements proxy.Adaptor entirely in memory, for unit tests
// and the txnbox-harness CLI. It has no relationship to any real proxy; it
// exists so the rest of the engine can be exercised without Traffic Server.
package fake

import (
	"fmt"
	"net/netip"
	"net/url"
	"time"

	"github.com/SolidWallOfCode/txn-box-sub000/hook"
	"github.com/SolidWallOfCode/txn-box-sub000/proxy"
)

type headerSet map[string][]string

func (h headerSet) get(name string) (string, bool) {
	v, ok := h[name]
	if !ok || len(v) == 0 {
		return "", false
	}
	return v[0], true
}

// Adaptor is an in-memory proxy.Adaptor.
type Adaptor struct {
	Headers [4]headerSet
	URLs    [2]*url.URL

	RemoteAddr netip.Addr
	LocalAddr  netip.Addr
	SNI        string
	Protocol   string
	Internal   bool

	CacheKeyFragments []string
	UpstreamAddr      string

	ErrorStatus      int
	ErrorContentType string
	ErrorBody        []byte

	RspStatus int

	ConfigVars map[string]string

	hooks map[hook.Hook][]func()

	// ScheduledTasks records every ScheduleTask call for test assertions;
	// RunTasks executes them in order, as a single-threaded stand-in for
	// the proxy's own task queue.
	ScheduledTasks []ScheduledTask

	Stats map[int]*int64
	names map[string]int
	next  int

	TLSProto, TLSCipher string
	TLSOK               bool

	remapStatus int
}

// ScheduledTask is a recorded ScheduleTask call.
type ScheduledTask struct {
	After time.Duration
	Fn    func()
}

// New returns an empty Adaptor with all header sets initialized.
func New() *Adaptor {
	a := &Adaptor{
		ConfigVars: map[string]string{},
		hooks:      map[hook.Hook][]func(){},
		Stats:      map[int]*int64{},
		names:      map[string]int{},
	}
	for i := range a.Headers {
		a.Headers[i] = headerSet{}
	}
	return a
}

func (a *Adaptor) Header(kind proxy.HeaderKind, name string) (string, bool) {
	return a.Headers[kind].get(name)
}

func (a *Adaptor) SetHeader(kind proxy.HeaderKind, name, value string) {
	a.Headers[kind][name] = []string{value}
}

func (a *Adaptor) DeleteHeader(kind proxy.HeaderKind, name string) {
	delete(a.Headers[kind], name)
}

func (a *Adaptor) URL(kind proxy.URLKind) *url.URL { return a.URLs[kind] }
func (a *Adaptor) SetURL(kind proxy.URLKind, u *url.URL) { a.URLs[kind] = u }

func (a *Adaptor) SessionRemoteAddr() netip.Addr { return a.RemoteAddr }
func (a *Adaptor) SessionLocalAddr() netip.Addr  { return a.LocalAddr }
func (a *Adaptor) SessionSNI() string            { return a.SNI }
func (a *Adaptor) SessionProtocol() string       { return a.Protocol }
func (a *Adaptor) IsInternal() bool              { return a.Internal }

func (a *Adaptor) SetCacheKey(fragment string) {
	a.CacheKeyFragments = append(a.CacheKeyFragments, fragment)
}

func (a *Adaptor) SetUpstreamAddr(addr string) { a.UpstreamAddr = addr }

func (a *Adaptor) SetErrorBody(status int, contentType string, body []byte) {
	a.ErrorStatus = status
	a.ErrorContentType = contentType
	a.ErrorBody = body
}

func (a *Adaptor) ProxyRspStatus() int          { return a.RspStatus }
func (a *Adaptor) SetProxyRspStatus(status int) { a.RspStatus = status }

func (a *Adaptor) OverridableConfigVar(name string) (string, bool) {
	v, ok := a.ConfigVars[name]
	return v, ok
}

func (a *Adaptor) SetOverridableConfigVar(name string, v string) bool {
	a.ConfigVars[name] = v
	return true
}

func (a *Adaptor) RegisterHook(h hook.Hook, cb func()) {
	a.hooks[h] = append(a.hooks[h], cb)
}

// RunHook invokes every callback registered for h, in registration order —
// a single-threaded stand-in for the proxy's own continuation dispatch.
func (a *Adaptor) RunHook(h hook.Hook) {
	for _, cb := range a.hooks[h] {
		cb()
	}
}

func (a *Adaptor) ScheduleTask(after time.Duration, cb func()) {
	a.ScheduledTasks = append(a.ScheduledTasks, ScheduledTask{After: after, Fn: cb})
}

// RunTasks executes every scheduled task, in order, and clears the queue.
func (a *Adaptor) RunTasks() {
	tasks := a.ScheduledTasks
	a.ScheduledTasks = nil
	for _, t := range tasks {
		t.Fn()
	}
}

func (a *Adaptor) StatCreate(name string) (int, error) {
	if id, ok := a.names[name]; ok {
		return id, nil
	}
	id := a.next
	a.next++
	a.names[name] = id
	zero := int64(0)
	a.Stats[id] = &zero
	return id, nil
}

func (a *Adaptor) StatUpdate(id int, delta int64) {
	v, ok := a.Stats[id]
	if !ok {
		return
	}
	*v += delta
}

// StatValue is a test convenience: look up a stat's current value by name.
func (a *Adaptor) StatValue(name string) (int64, error) {
	id, ok := a.names[name]
	if !ok {
		return 0, fmt.Errorf("no such stat: %s", name)
	}
	return *a.Stats[id], nil
}

func (a *Adaptor) SSLSessionInfo() (string, string, bool) { return a.TLSProto, a.TLSCipher, a.TLSOK }

func (a *Adaptor) SetRemapStatus(s proxy.RemapStatus) { a.remapStatus = int(s) }
func (a *Adaptor) RemapStatus() proxy.RemapStatus     { return proxy.RemapStatus(a.remapStatus) }
