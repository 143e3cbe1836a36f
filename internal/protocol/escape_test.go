package protocol

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestEscapeRoundTrip verifies byte stuffing is lossless for payloads
// containing any mix of reserved bytes.
func TestEscapeRoundTrip(t *testing.T) {
	testCases := []struct {
		name    string
		payload []byte
	}{
		{"no reserved bytes", []byte("plain text payload")},
		{"end marker", []byte{0x45, FrameEnd, 0x00}},
		{"payload separator", []byte{PayloadSep, PayloadSep}},
		{"escape byte itself", []byte{escByte, 0x01, escByte}},
		{"all reserved bytes", []byte{FrameEnd, PayloadSep, escByte}},
		{"empty", nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			escaped := EscapePayload(tc.payload)
			require.Equal(t, -1, bytes.IndexByte(escaped, FrameEnd))
			require.Equal(t, -1, bytes.IndexByte(escaped, PayloadSep))

			got, err := UnescapePayload(escaped)
			require.NoError(t, err)
			require.Equal(t, tc.payload, got)
		})
	}
}

// TestEscapeNoCopyWhenClean verifies a clean payload passes through without
// allocation.
func TestEscapeNoCopyWhenClean(t *testing.T) {
	payload := []byte("nothing reserved here")
	escaped := EscapePayload(payload)
	require.Same(t, &payload[0], &escaped[0])
}

// TestEscapedPayloadSurvivesFraming verifies the point of the whole scheme:
// a datagram containing the end-marker byte travels through encode, the
// deframer and decode without corrupting framing.
func TestEscapedPayloadSurvivesFraming(t *testing.T) {
	datagram := []byte{0x45, 0x00, FrameEnd, PayloadSep, 0xff, FrameEnd}

	frame := Encode(&Packet{
		Destination: "node-A",
		Source:      "msh-01",
		Type:        TypeData,
		Header:      Header{Limit: 3},
		Payload:     EscapePayload(datagram),
	})

	var d Deframer
	d.Push(frame)
	got, ok := d.Next()
	require.True(t, ok)
	require.Equal(t, frame, got, "frame must end at the real end marker")

	pkt, err := Decode(got)
	require.NoError(t, err)
	restored, err := UnescapePayload(pkt.Payload)
	require.NoError(t, err)
	require.Equal(t, datagram, restored)
}

// TestUnescapeRejectsMalformed verifies truncated or invalid escape
// sequences are errors rather than silent corruption.
func TestUnescapeRejectsMalformed(t *testing.T) {
	testCases := []struct {
		name    string
		payload []byte
	}{
		{"trailing escape", []byte{0x01, escByte}},
		{"invalid stuffed byte", []byte{escByte, 0x00}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := UnescapePayload(tc.payload)
			require.Error(t, err)
		})
	}
}
