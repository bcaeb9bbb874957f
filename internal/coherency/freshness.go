package coherency

// Freshness classifies a poller-supplied token pair against the current
// token and decides the response shape.
type Freshness int

const (
	// FreshnessUnknown means the poller supplied no usable prior: either
	// the pair was absent or its instance id belongs to another epoch.
	// The response carries the full payload and the current token.
	FreshnessUnknown Freshness = iota

	// FreshnessStale means the poller's sequence id is from an earlier
	// point in the current epoch. The response carries the full payload
	// and the current token.
	FreshnessStale

	// FreshnessCurrent means the poller already holds the current state.
	// The response carries the token alone, signaling "unchanged".
	FreshnessCurrent
)

func (f Freshness) String() string {
	switch f {
	case FreshnessUnknown:
		return "unknown"
	case FreshnessStale:
		return "stale"
	case FreshnessCurrent:
		return "current"
	default:
		return "invalid"
	}
}

// FullPayload reports whether a response classified f must include the
// full payload.
func (f Freshness) FullPayload() bool { return f != FreshnessCurrent }

// Check classifies the encoded pair a poller sent against t. Empty
// strings mean the poller has no prior observation. Callers never parse
// the ids; only the equality rules below apply.
func (t Token) Check(instanceID, sequenceID string) Freshness {
	if instanceID == "" || sequenceID == "" {
		return FreshnessUnknown
	}
	if instanceID != t.InstanceID() {
		return FreshnessUnknown
	}
	if sequenceID == t.SequenceID() {
		return FreshnessCurrent
	}
	return FreshnessStale
}
