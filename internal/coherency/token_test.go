package coherency

import (
	"bytes"
	"encoding/binary"
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// seqAt builds an id whose byte order follows n, so scripted sequencers
// can express "earlier" and "later" exactly.
func seqAt(n uint64) uuid.UUID {
	var id uuid.UUID
	binary.BigEndian.PutUint64(id[:8], n)
	return id
}

// scripted returns a Sequencer that replays ids in order and fails the
// test when it runs dry.
func scripted(t *testing.T, ids ...uuid.UUID) Sequencer {
	t.Helper()
	i := 0
	return func() uuid.UUID {
		if i >= len(ids) {
			t.Fatalf("scripted sequencer exhausted after %d ids", len(ids))
		}
		id := ids[i]
		i++
		return id
	}
}

func TestIncrementIsStrictlyMonotonic(t *testing.T) {
	tok := New()
	instance := tok.Instance()
	prev := tok.Sequence()
	prevID := tok.SequenceID()

	for i := 0; i < 100_000; i++ {
		tok.Increment()

		cur := tok.Sequence()
		if bytes.Compare(cur[:], prev[:]) <= 0 {
			t.Fatalf("sequence id not strictly increasing at increment %d", i)
		}
		curID := tok.SequenceID()
		if curID <= prevID {
			t.Fatalf("encoded sequence id not strictly increasing at increment %d: %q <= %q", i, curID, prevID)
		}
		if tok.Instance() != instance {
			t.Fatalf("instance id changed at increment %d without clock regression", i)
		}
		prev = cur
		prevID = curID
	}
}

func TestClockRegressionMintsNewInstance(t *testing.T) {
	seq := scripted(t,
		seqAt(100),
		seqAt(200),
		seqAt(150), // moves backward
		seqAt(160),
		seqAt(170),
	)

	tok := NewWith(seq)
	first := tok.Instance()

	tok.IncrementWith(seq)
	require.Equal(t, first, tok.Instance(), "forward step must keep the instance id")
	require.Equal(t, seqAt(200), tok.Sequence())

	tok.IncrementWith(seq)
	require.NotEqual(t, first, tok.Instance(), "regression must mint a new instance id")
	require.Equal(t, seqAt(150), tok.Sequence())
	resynced := tok.Instance()

	tok.IncrementWith(seq)
	require.Equal(t, resynced, tok.Instance(), "growth must resume under the new instance id")
	tok.IncrementWith(seq)
	require.Equal(t, resynced, tok.Instance())
	require.Equal(t, seqAt(170), tok.Sequence())
}

func TestRepeatedSequenceCountsAsRegression(t *testing.T) {
	seq := scripted(t, seqAt(5), seqAt(5))

	tok := NewWith(seq)
	first := tok.Instance()

	tok.IncrementWith(seq)
	require.NotEqual(t, first, tok.Instance(), "an equal sequence id must also reset the epoch")
	require.Equal(t, seqAt(5), tok.Sequence())
}

func TestNewMintsDistinctInstances(t *testing.T) {
	a := New()
	b := New()
	require.NotEqual(t, a.Instance(), b.Instance())
}

func TestSetAdoptsSnapshot(t *testing.T) {
	a := New()
	b := New()

	b.Set(a)
	require.Equal(t, a.Instance(), b.Instance())
	require.Equal(t, a.Sequence(), b.Sequence())
	require.Equal(t, a.InstanceID(), b.InstanceID())
	require.Equal(t, a.SequenceID(), b.SequenceID())
}

func TestEncodeIDLengthAndAlphabet(t *testing.T) {
	require.Equal(t, "00000000000000000000000000", EncodeID(uuid.UUID{}))

	for i := 0; i < 100; i++ {
		id := uuid.New()
		s := EncodeID(id)
		require.Len(t, s, EncodedIDLen)
		for _, c := range s {
			require.True(t, (c >= '0' && c <= '9') || (c >= 'A' && c <= 'V'), "unexpected character %q in %q", c, s)
		}
	}
}

func TestEncodeIDRoundTrip(t *testing.T) {
	for _, id := range []uuid.UUID{{}, seqAt(1), seqAt(1 << 40), uuid.New(), uuid.Must(uuid.NewV7())} {
		got, err := DecodeID(EncodeID(id))
		require.NoError(t, err)
		require.Equal(t, id, got)
	}
}

func TestEncodeIDPreservesOrder(t *testing.T) {
	ids := make([]uuid.UUID, 0, 64)
	for i := 0; i < 32; i++ {
		ids = append(ids, uuid.New())
	}
	for i := uint64(0); i < 32; i++ {
		ids = append(ids, seqAt(i*977))
	}

	byBytes := make([]uuid.UUID, len(ids))
	copy(byBytes, ids)
	sort.Slice(byBytes, func(i, j int) bool { return bytes.Compare(byBytes[i][:], byBytes[j][:]) < 0 })

	encoded := make([]string, len(ids))
	for i, id := range ids {
		encoded[i] = EncodeID(id)
	}
	sort.Strings(encoded)

	for i, id := range byBytes {
		require.Equal(t, EncodeID(id), encoded[i], "encoded order diverges from byte order at %d", i)
	}
}

func TestDecodeIDRejectsMalformedInput(t *testing.T) {
	_, err := DecodeID("")
	require.Error(t, err)

	_, err = DecodeID("TOOSHORT")
	require.Error(t, err)

	_, err = DecodeID("!!!!!!!!!!!!!!!!!!!!!!!!!!")
	require.Error(t, err)
}
