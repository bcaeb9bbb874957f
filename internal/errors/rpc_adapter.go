package errors

// JSON-RPC 2.0 error codes. The -32000..-32099 range is reserved for
// server-defined errors; linkmon assigns its categories there.
const (
	RPCCodeParse          = -32700
	RPCCodeInvalidRequest = -32600
	RPCCodeMethodNotFound = -32601
	RPCCodeInvalidParams  = -32602
	RPCCodeInternal       = -32603

	RPCCodeNotFound    = -32000
	RPCCodeCapacity    = -32001
	RPCCodeUnavailable = -32002
	RPCCodeUpstream    = -32003
	RPCCodeConfig      = -32004
)

// RPCCodeFor maps an error to its JSON-RPC error code.
func RPCCodeFor(err error) int {
	de, ok := err.(*DaemonError)
	if !ok {
		return RPCCodeInternal
	}
	switch de.Category {
	case CategoryValidation:
		return RPCCodeInvalidParams
	case CategoryNotFound:
		return RPCCodeNotFound
	case CategoryCapacity:
		return RPCCodeCapacity
	case CategoryDaemon:
		return RPCCodeUnavailable
	case CategoryNetwork, CategoryProbe, CategoryNotify:
		return RPCCodeUpstream
	case CategoryConfig:
		return RPCCodeConfig
	default:
		return RPCCodeInternal
	}
}

// RPCDataFor returns the structured data member for an error response, or
// nil when the error carries nothing beyond its message.
func RPCDataFor(err error) map[string]any {
	de, ok := err.(*DaemonError)
	if !ok {
		return nil
	}
	var data map[string]any
	if len(de.Context) > 0 {
		data = make(map[string]any, len(de.Context)+1)
		for k, v := range de.Context {
			data[k] = v
		}
	}
	if de.Retryable {
		if data == nil {
			data = make(map[string]any, 1)
		}
		data["retryable"] = true
	}
	return data
}

// RPCMessageFor returns the user-facing message for an error response.
func RPCMessageFor(err error) string {
	if de, ok := err.(*DaemonError); ok {
		return de.Message
	}
	return err.Error()
}
