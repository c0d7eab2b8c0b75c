package buffer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClockReplacer(t *testing.T) {
	clockReplacer := NewClockReplacer(7)

	// Scenario: unpin six frames, i.e. add them to the replacer.
	clockReplacer.Unpin(1)
	clockReplacer.Unpin(2)
	clockReplacer.Unpin(3)
	clockReplacer.Unpin(4)
	clockReplacer.Unpin(5)
	clockReplacer.Unpin(6)
	clockReplacer.Unpin(1)
	require.Equal(t, uint32(6), clockReplacer.Size())

	// Scenario: get three victims from the clock. The first sweep clears
	// every reference bit, so victims come out in ring order.
	value := clockReplacer.Victim()
	require.NotNil(t, value)
	require.Equal(t, FrameID(1), *value)
	value = clockReplacer.Victim()
	require.NotNil(t, value)
	require.Equal(t, FrameID(2), *value)
	value = clockReplacer.Victim()
	require.NotNil(t, value)
	require.Equal(t, FrameID(3), *value)

	// Scenario: pin frames in the replacer.
	// 3 has already been victimized, so pinning 3 has no effect.
	clockReplacer.Pin(3)
	clockReplacer.Pin(4)
	require.Equal(t, uint32(2), clockReplacer.Size())

	// Scenario: unpin 4. Its reference bit is set again.
	clockReplacer.Unpin(4)

	// Scenario: continue looking for victims. 4 gets a second chance, so 5
	// and 6 go first.
	value = clockReplacer.Victim()
	require.NotNil(t, value)
	require.Equal(t, FrameID(5), *value)
	value = clockReplacer.Victim()
	require.NotNil(t, value)
	require.Equal(t, FrameID(6), *value)
	value = clockReplacer.Victim()
	require.NotNil(t, value)
	require.Equal(t, FrameID(4), *value)

	// Scenario: nothing left.
	require.Equal(t, uint32(0), clockReplacer.Size())
	require.Nil(t, clockReplacer.Victim())
}

func TestClockReplacerPinOrdering(t *testing.T) {
	clockReplacer := NewClockReplacer(3)

	clockReplacer.Unpin(0)
	clockReplacer.Unpin(1)
	clockReplacer.Unpin(2)
	require.Equal(t, uint32(3), clockReplacer.Size())

	clockReplacer.Pin(1)
	require.Equal(t, uint32(2), clockReplacer.Size())

	// Frame 1 is pinned: the two victims are 0 and 2 in hand order, then
	// the replacer is empty.
	first := clockReplacer.Victim()
	require.NotNil(t, first)
	require.Equal(t, FrameID(0), *first)

	second := clockReplacer.Victim()
	require.NotNil(t, second)
	require.Equal(t, FrameID(2), *second)

	require.Nil(t, clockReplacer.Victim())
}

func TestClockReplacerIdempotentPinUnpin(t *testing.T) {
	clockReplacer := NewClockReplacer(2)

	// Pin on a frame that is not a candidate is a no-op.
	clockReplacer.Pin(0)
	require.Equal(t, uint32(0), clockReplacer.Size())

	// Double unpin counts once.
	clockReplacer.Unpin(0)
	clockReplacer.Unpin(0)
	require.Equal(t, uint32(1), clockReplacer.Size())

	// Double pin counts once.
	clockReplacer.Pin(0)
	clockReplacer.Pin(0)
	require.Equal(t, uint32(0), clockReplacer.Size())
}
