// Package coherency implements the cache-coherency tokens exchanged with
// pollers. A Token pairs a random instance id, marking one unbroken
// monotonic run, with a time-ordered sequence id that advances on every
// mutation of the tracked state. Pollers echo the pair back as opaque
// strings; matching pairs mean nothing changed since their last poll.
package coherency

import (
	"bytes"
	"encoding/base32"
	"fmt"

	"github.com/google/uuid"
)

// encoding renders ids in base32hex without padding. The base32hex
// alphabet is in ASCII order, so lexicographic comparison of encoded
// strings agrees with byte-wise comparison of the raw ids.
var encoding = base32.HexEncoding.WithPadding(base32.NoPadding)

// EncodedIDLen is the length of every encoded id.
const EncodedIDLen = 26

// Sequencer produces time-ordered sequence ids. Tests substitute a
// scripted implementation to drive clock behavior deterministically.
type Sequencer func() uuid.UUID

// DefaultSequencer returns a UUIDv7, ordered by the system clock.
func DefaultSequencer() uuid.UUID { return uuid.Must(uuid.NewV7()) }

// Token is a (instance id, sequence id) pair. Within one instance id,
// successive Increment calls produce strictly increasing sequence ids;
// sequence ids from different instance ids are not comparable.
//
// The zero Token is not valid; use New or NewWith.
type Token struct {
	instance uuid.UUID
	sequence uuid.UUID
}

// New mints a token with a fresh random instance id and an initial
// sequence id from the system clock.
func New() Token { return NewWith(DefaultSequencer) }

// NewWith is New with an explicit sequence source.
func NewWith(seq Sequencer) Token {
	return Token{instance: uuid.New(), sequence: seq()}
}

// Instance returns the raw instance id.
func (t Token) Instance() uuid.UUID { return t.instance }

// Sequence returns the raw sequence id.
func (t Token) Sequence() uuid.UUID { return t.sequence }

// Set overwrites both ids by copying from other, adopting an externally
// observed snapshot.
func (t *Token) Set(other Token) { *t = other }

// Increment advances the sequence id using the system clock.
func (t *Token) Increment() { t.IncrementWith(DefaultSequencer) }

// IncrementWith advances the sequence id using seq. If the produced id is
// not strictly greater than the previous one, for instance because the
// clock moved backward, a fresh instance id is minted first: comparability
// restarts in a new epoch instead of reporting an ambiguous ordering.
// Regression recovery is silent; it is never an error.
func (t *Token) IncrementWith(seq Sequencer) {
	next := seq()
	if bytes.Compare(next[:], t.sequence[:]) <= 0 {
		t.instance = uuid.New()
	}
	t.sequence = next
}

// InstanceID returns the instance id in its wire form.
func (t Token) InstanceID() string { return EncodeID(t.instance) }

// SequenceID returns the sequence id in its wire form.
func (t Token) SequenceID() string { return EncodeID(t.sequence) }

// EncodeID renders a 128-bit id as EncodedIDLen base32hex characters.
// Encoded strings order exactly like the underlying bytes.
func EncodeID(id uuid.UUID) string { return encoding.EncodeToString(id[:]) }

// DecodeID reverses EncodeID.
func DecodeID(s string) (uuid.UUID, error) {
	if len(s) != EncodedIDLen {
		return uuid.UUID{}, fmt.Errorf("coherency: encoded id must be %d characters, got %d", EncodedIDLen, len(s))
	}
	b, err := encoding.DecodeString(s)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("coherency: decode id: %w", err)
	}
	return uuid.FromBytes(b)
}
