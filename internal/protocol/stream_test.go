package protocol

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testFrame(dest, payload string) []byte {
	return Encode(&Packet{
		Destination: dest,
		Source:      "msh-01",
		Type:        TypeData,
		Header:      Header{Limit: 3},
		Payload:     []byte(payload),
	})
}

// TestDeframerBackToBack verifies that two frames arriving in a single read
// come out as exactly two frames, in order.
func TestDeframerBackToBack(t *testing.T) {
	first := testFrame("node-A", "one")
	second := testFrame("node-B", "two")

	var d Deframer
	d.Push(append(append([]byte{}, first...), second...))

	got, ok := d.Next()
	require.True(t, ok)
	require.Equal(t, first, got)

	got, ok = d.Next()
	require.True(t, ok)
	require.Equal(t, second, got)

	_, ok = d.Next()
	require.False(t, ok)
	require.Zero(t, d.Pending())
}

// TestDeframerFragmentedReads verifies frame extraction is independent of
// how the byte stream is chopped up: even byte-at-a-time delivery yields the
// same frames in the same order.
func TestDeframerFragmentedReads(t *testing.T) {
	frames := [][]byte{
		testFrame("node-A", "alpha"),
		testFrame("node-B", "beta"),
		testFrame("node-C", "gamma"),
	}
	var stream []byte
	for _, f := range frames {
		stream = append(stream, f...)
	}

	for _, chunk := range []int{1, 3, 7, len(stream)} {
		var d Deframer
		var got [][]byte
		for off := 0; off < len(stream); off += chunk {
			end := off + chunk
			if end > len(stream) {
				end = len(stream)
			}
			d.Push(stream[off:end])
			for {
				f, ok := d.Next()
				if !ok {
					break
				}
				got = append(got, f)
			}
		}
		require.Equal(t, frames, got, "chunk size %d", chunk)
		require.Zero(t, d.Pending())
	}
}

// TestDeframerKeepsPartialFrame verifies that bytes after the end marker
// stay buffered until the rest of the frame arrives.
func TestDeframerKeepsPartialFrame(t *testing.T) {
	frame := testFrame("node-A", "whole")
	partial := testFrame("node-B", "later")

	var d Deframer
	d.Push(append(append([]byte{}, frame...), partial[:4]...))

	got, ok := d.Next()
	require.True(t, ok)
	require.Equal(t, frame, got)

	_, ok = d.Next()
	require.False(t, ok)
	require.Equal(t, 4, d.Pending())

	d.Push(partial[4:])
	got, ok = d.Next()
	require.True(t, ok)
	require.Equal(t, partial, got)
}
