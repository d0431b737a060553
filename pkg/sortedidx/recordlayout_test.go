package sortedidx

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	raw := make([]byte, Stride*2)

	want := RecordControl{
		Key:      makeKey("hello"),
		Flags:    FlagRemoved,
		DataSize: 1234,
		DiskSize: 5678,
		Position: 999,
	}

	Encode(raw, 1, want)
	got := Decode(raw, 1)

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}

	// Slot 0 was never written and must decode to the zero value.
	require.Equal(t, RecordControl{}, Decode(raw, 0))
}

func TestRawIsRemovedMatchesDecodedRemoved(t *testing.T) {
	raw := make([]byte, Stride)
	Encode(raw, 0, RecordControl{Key: makeKey("K"), Flags: FlagRemoved})

	require.True(t, RawIsRemoved(RawFlagsAt(raw, 0)))
	require.True(t, Decode(raw, 0).Removed())

	Encode(raw, 0, RecordControl{Key: makeKey("K")})
	require.False(t, RawIsRemoved(RawFlagsAt(raw, 0)))
}

func TestValidateRejectsOutOfRangePosition(t *testing.T) {
	rc := RecordControl{DiskSize: uint64(Stride), Position: 1000}
	require.True(t, Validate(rc, 2000))
	require.False(t, Validate(rc, 500))
}

func TestValidateRejectsDiskSizeSmallerThanDataSize(t *testing.T) {
	rc := RecordControl{DataSize: 100, DiskSize: 50}
	require.False(t, Validate(rc, -1))
}

func TestValidateRejectsUnalignedDiskSize(t *testing.T) {
	rc := RecordControl{DiskSize: uint64(Stride) + 1}
	require.False(t, Validate(rc, -1))
}

func TestValidateRejectsUnknownFlagBits(t *testing.T) {
	rc := RecordControl{Flags: 0x80, DiskSize: uint64(Stride)}
	require.False(t, Validate(rc, -1))
}

func TestNumEntries(t *testing.T) {
	require.Equal(t, 3, NumEntries(3*Stride))
	require.Equal(t, 0, NumEntries(0))
}
