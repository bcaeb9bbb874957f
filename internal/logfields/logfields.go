package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyComponent  = "component"
	KeyNetwork    = "network"
	KeyAlias      = "alias"
	KeyLinkIndex  = "link_index"
	KeyMethod     = "method"
	KeyRPCMethod  = "rpc_method"
	KeyPath       = "path"
	KeyAddr       = "addr"
	KeyURL        = "url"
	KeyStatus     = "status"
	KeyOutcome    = "outcome"
	KeyAttempt    = "attempt"
	KeyCount      = "count"
	KeyDurationMS = "duration_ms"
	KeySubject    = "subject"
	KeyUserAgent  = "user_agent"
	KeyRemoteAddr = "remote_addr"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Component(name string) slog.Attr { return slog.String(KeyComponent, name) }
func Network(name string) slog.Attr   { return slog.String(KeyNetwork, name) }
func Alias(a string) slog.Attr        { return slog.String(KeyAlias, a) }
func LinkIndex(i int) slog.Attr       { return slog.Int(KeyLinkIndex, i) }
func Method(m string) slog.Attr       { return slog.String(KeyMethod, m) }
func RPCMethod(m string) slog.Attr    { return slog.String(KeyRPCMethod, m) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Addr(a string) slog.Attr         { return slog.String(KeyAddr, a) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Status(code int) slog.Attr       { return slog.Int(KeyStatus, code) }
func Outcome(o string) slog.Attr      { return slog.String(KeyOutcome, o) }
func Attempt(n int) slog.Attr         { return slog.Int(KeyAttempt, n) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Subject(s string) slog.Attr      { return slog.String(KeySubject, s) }
func UserAgent(ua string) slog.Attr   { return slog.String(KeyUserAgent, ua) }
func RemoteAddr(a string) slog.Attr   { return slog.String(KeyRemoteAddr, a) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
