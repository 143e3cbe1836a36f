package protocol

import "bytes"

// Deframer accumulates the fragmented byte stream read from the serial link
// and slices complete frames off the front. It is goroutine-local (used
// inside the link read loop) and needs no locking. The buffer is unbounded:
// a peer that never sends an end marker will grow it until memory runs out,
// matching the wire format's lack of a length field.
type Deframer struct {
	buf []byte
}

// Push appends freshly read bytes to the buffer.
func (d *Deframer) Push(p []byte) {
	d.buf = append(d.buf, p...)
}

// Next returns the next complete frame, everything up to and including the
// first end marker, or false if no full frame is buffered yet. Bytes after
// the marker stay buffered for the following call.
func (d *Deframer) Next() ([]byte, bool) {
	i := bytes.IndexByte(d.buf, FrameEnd)
	if i < 0 {
		return nil, false
	}
	frame := make([]byte, i+1)
	copy(frame, d.buf[:i+1])
	d.buf = d.buf[i+1:]
	return frame, true
}

// Pending reports how many bytes are buffered without a complete frame.
func (d *Deframer) Pending() int {
	return len(d.buf)
}
