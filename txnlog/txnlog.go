// Package txnlog implements the engine's leveled logger, grounded on
// _examples/gravwell-gravwell/ingest/log/logging.go's hand-rolled leveled
// Logger (Level enum, multiple io.Writer sinks, an optional network Relay).
// Unlike the teacher's ingester — which relays log lines to a remote
// collector over its own wire protocol — this plugin formats relayed
// records with github.com/crewjam/rfc5424, an existing teacher dependency,
// so operators can fold plugin diagnostics into the same syslog pipeline
// Traffic Server itself writes to.
package txnlog

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/crewjam/rfc5424"
)

type Level int

const (
	Off Level = iota
	Debug
	Info
	Warn
	Error
	Critical
)

func (l Level) String() string {
	switch l {
	case Off:
		return "OFF"
	case Debug:
		return "DEBUG"
	case Info:
		return "INFO"
	case Warn:
		return "WARN"
	case Error:
		return "ERROR"
	case Critical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// Relay is an additional sink that receives a fully formatted RFC5424
// message, mirroring the teacher's Relay interface (ingest/log: `WriteLog`).
type Relay interface {
	WriteLog(rfc5424.Message) error
}

// Logger is a leveled logger writing to a single io.Writer sink and,
// optionally, a Relay.
type Logger struct {
	mu       sync.Mutex
	w        io.Writer
	lvl      Level
	relay    Relay
	appname  string
	hostname string
}

// New creates a Logger at the given level writing to w (os.Stderr if nil).
func New(lvl Level, w io.Writer) *Logger {
	if w == nil {
		w = os.Stderr
	}
	host, _ := os.Hostname()
	return &Logger{w: w, lvl: lvl, appname: "txn_box", hostname: host}
}

// SetRelay attaches a Relay that additionally receives every logged record
// as an RFC5424 message at or above the logger's level.
func (l *Logger) SetRelay(r Relay) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.relay = r
}

func (l *Logger) SetLevel(lvl Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lvl = lvl
}

func (l *Logger) logf(lvl Level, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if lvl < l.lvl {
		return
	}
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(l.w, "%s [%s] %s\n", time.Now().Format(time.RFC3339), lvl, msg)
	if l.relay != nil {
		rec := rfc5424.Message{
			Priority:  severityFor(lvl),
			Timestamp: time.Now(),
			Hostname:  l.hostname,
			AppName:   l.appname,
			Message:   []byte(msg),
		}
		_ = l.relay.WriteLog(rec)
	}
}

func severityFor(lvl Level) rfc5424.Priority {
	switch lvl {
	case Debug:
		return rfc5424.Daemon | rfc5424.Debug
	case Info:
		return rfc5424.Daemon | rfc5424.Info
	case Warn:
		return rfc5424.Daemon | rfc5424.Warning
	case Error:
		return rfc5424.Daemon | rfc5424.Error
	case Critical:
		return rfc5424.Daemon | rfc5424.Critical
	default:
		return rfc5424.Daemon | rfc5424.Info
	}
}

func (l *Logger) Debugf(format string, args ...any)    { l.logf(Debug, format, args...) }
func (l *Logger) Infof(format string, args ...any)     { l.logf(Info, format, args...) }
func (l *Logger) Warnf(format string, args ...any)     { l.logf(Warn, format, args...) }
func (l *Logger) Errorf(format string, args ...any)    { l.logf(Error, format, args...) }
func (l *Logger) Criticalf(format string, args ...any) { l.logf(Critical, format, args...) }
