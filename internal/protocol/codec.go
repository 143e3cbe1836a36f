package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Encode serializes a Packet into one self-delimited frame for serial
// transmission. Destination and source tokens are emitted only when non-empty.
func Encode(pkt *Packet) []byte {
	var buf bytes.Buffer
	buf.WriteByte(Preamble)
	buf.WriteByte(FrameStart)
	if pkt.Destination != "" {
		buf.WriteString(pkt.Destination)
		buf.WriteByte(AddressSep)
	}
	if pkt.Source != "" {
		buf.WriteString(pkt.Source)
		buf.WriteByte(AddressSep)
	}
	buf.WriteString(string(pkt.Type))
	buf.WriteByte(PayloadSep)
	header, _ := json.Marshal(pkt.Header)
	buf.Write(header)
	buf.WriteByte(PayloadSep)
	buf.Write(pkt.Payload)
	buf.WriteByte(FrameEnd)
	return buf.Bytes()
}

// Decode parses one complete frame back into a Packet. The input must span
// exactly one frame, preamble through end marker, as produced by a Deframer.
// Any framing, header or packet-type violation is an error; the caller is
// expected to log and drop the frame.
func Decode(data []byte) (*Packet, error) {
	if len(data) < 3 || data[0] != Preamble || data[1] != FrameStart {
		return nil, fmt.Errorf("frame does not start with %c%c", Preamble, FrameStart)
	}
	if data[len(data)-1] != FrameEnd {
		return nil, fmt.Errorf("frame does not end with %c", FrameEnd)
	}

	body := data[2 : len(data)-1]
	parts := bytes.SplitN(body, []byte{PayloadSep}, 3)
	if len(parts) != 3 {
		return nil, fmt.Errorf("frame has %d sections, want 3", len(parts))
	}

	// The address section holds optional destination and source tokens with
	// the packet type last.
	tokens := bytes.Split(parts[0], []byte{AddressSep})
	kind := PacketType(tokens[len(tokens)-1])
	if !kind.valid() {
		return nil, fmt.Errorf("unknown packet type %q", tokens[len(tokens)-1])
	}
	addr := tokens[:len(tokens)-1]

	pkt := &Packet{Type: kind}
	if len(addr) > 0 {
		pkt.Destination = string(addr[0])
	}
	if len(addr) > 1 {
		pkt.Source = string(addr[1])
	}

	if err := json.Unmarshal(parts[1], &pkt.Header); err != nil {
		return nil, fmt.Errorf("frame header: %w", err)
	}

	// Copy the payload so the packet does not alias the deframer's buffer.
	// An empty payload section stays nil.
	if len(parts[2]) > 0 {
		pkt.Payload = make([]byte, len(parts[2]))
		copy(pkt.Payload, parts[2])
	}
	return pkt, nil
}
