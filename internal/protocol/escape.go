package protocol

import (
	"bytes"
	"fmt"
)

// Escaped framing is an opt-in fix for the wire format's framing hazard: a
// DATA payload byte equal to FrameEnd or PayloadSep corrupts framing. When
// both peers enable it, payloads are byte-stuffed before encoding and
// unstuffed after decoding; the frame structure itself is unchanged, so an
// escaped-mode peer still interoperates with plain-mode peers for payloads
// that contain no reserved bytes.
const (
	escByte byte = 0x1b // introduces a stuffed byte
	escXOR  byte = 0x20 // transposition applied to the stuffed byte
)

func needsEscape(b byte) bool {
	return b == FrameEnd || b == PayloadSep || b == escByte
}

// EscapePayload returns p with every reserved byte replaced by an escape
// sequence. The input is returned as-is when nothing needs stuffing.
func EscapePayload(p []byte) []byte {
	n := 0
	for _, b := range p {
		if needsEscape(b) {
			n++
		}
	}
	if n == 0 {
		return p
	}
	out := make([]byte, 0, len(p)+n)
	for _, b := range p {
		if needsEscape(b) {
			out = append(out, escByte, b^escXOR)
		} else {
			out = append(out, b)
		}
	}
	return out
}

// UnescapePayload reverses EscapePayload. A trailing or malformed escape
// sequence is an error; the caller drops the packet.
func UnescapePayload(p []byte) ([]byte, error) {
	if bytes.IndexByte(p, escByte) < 0 {
		return p, nil
	}
	out := make([]byte, 0, len(p))
	for i := 0; i < len(p); i++ {
		b := p[i]
		if b != escByte {
			out = append(out, b)
			continue
		}
		i++
		if i == len(p) {
			return nil, fmt.Errorf("truncated escape sequence")
		}
		unstuffed := p[i] ^ escXOR
		if !needsEscape(unstuffed) {
			return nil, fmt.Errorf("invalid escape sequence 0x%02x 0x%02x", escByte, p[i])
		}
		out = append(out, unstuffed)
	}
	return out, nil
}
