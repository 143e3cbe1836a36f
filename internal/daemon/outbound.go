package daemon

import (
	"context"
	"fmt"
	"strings"

	"meshtund/internal/protocol"
	"meshtund/internal/util"
)

// linkReadChunk is the per-read buffer size for the serial link. Frames may
// arrive fragmented across any number of reads.
const linkReadChunk = 4096

// radioToTun accumulates serial bytes, slices out complete frames and
// dispatches each by packet type. Malformed frames are dropped; a serial
// read error or a TUN write error is fatal.
func (d *Daemon) radioToTun(ctx context.Context) {
	defer d.wg.Done()

	var deframer protocol.Deframer
	buf := make([]byte, linkReadChunk)
	for ctx.Err() == nil {
		n, err := d.link.Read(buf)
		if err != nil {
			if ctx.Err() == nil {
				d.fatal(fmt.Errorf("serial read: %w", err))
			}
			return
		}
		if n == 0 {
			// Read timeout — gives this loop its shutdown latency bound.
			continue
		}
		deframer.Push(buf[:n])

		for {
			frame, ok := deframer.Next()
			if !ok {
				break
			}
			if !d.handleFrame(frame) {
				return
			}
		}
	}
}

// handleFrame decodes one frame and dispatches it. It returns false only on
// a fatal TUN write error.
func (d *Daemon) handleFrame(frame []byte) bool {
	pkt, err := protocol.Decode(frame)
	if err != nil {
		util.LogWarning("dropping malformed frame (%d bytes): %v", len(frame), err)
		util.Stats.AddDropped()
		return true
	}
	util.Stats.AddFromRadio(len(frame))

	switch pkt.Type {
	case protocol.TypeNodeInfo:
		d.handleNodeInfo(pkt)
	case protocol.TypeData:
		return d.injectDatagram(pkt)
	case protocol.TypeText:
		text := strings.ToValidUTF8(string(pkt.Payload), "�")
		util.LogInfo("text from %s: %s", nodeLabel(pkt.Source), text)
	}
	return true
}

// handleNodeInfo merges a peer announcement into the node table. Discovery
// requests also arrive as NODE_INFO; they carry no node_id/ip_address pair
// and are ignored here.
func (d *Daemon) handleNodeInfo(pkt *protocol.Packet) {
	info, err := protocol.UnmarshalNodeInfo(pkt.Payload)
	if err != nil {
		util.LogWarning("malformed node info from %s: %v", nodeLabel(pkt.Source), err)
		return
	}
	if info.NodeID == "" || info.IPAddress == "" {
		util.LogDebug("node info from %s without id/address, ignoring", nodeLabel(pkt.Source))
		return
	}
	d.table.Record(info.NodeID, info.IPAddress)
	util.LogInfo("node info: %s -> %s", info.NodeID, info.IPAddress)
}

// injectDatagram writes a DATA payload into the virtual interface. The
// declared source must already be known (static entry or prior NODE_INFO) —
// unlike the TUN→radio direction, no dynamic mapping is derived here, so an
// unannounced peer cannot populate the table by sending traffic.
func (d *Daemon) injectDatagram(pkt *protocol.Packet) bool {
	if pkt.Source == "" {
		util.LogWarning("DATA frame without source node, dropping")
		util.Stats.AddDropped()
		return true
	}
	if _, known := d.table.LookupIP(pkt.Source); !known {
		util.LogWarning("no address known for node %s, dropping DATA frame", pkt.Source)
		util.Stats.AddDropped()
		return true
	}

	payload := pkt.Payload
	if d.opts.EscapedFraming {
		var err error
		if payload, err = protocol.UnescapePayload(pkt.Payload); err != nil {
			util.LogWarning("bad escaped payload from %s, dropping: %v", pkt.Source, err)
			util.Stats.AddDropped()
			return true
		}
	}

	if _, err := d.dev.Write(payload); err != nil {
		d.fatal(fmt.Errorf("tun write: %w", err))
		return false
	}
	util.LogDebug("injected %d bytes from node %s", len(payload), pkt.Source)
	return true
}

func nodeLabel(source string) string {
	if source == "" {
		return "(unknown)"
	}
	return source
}
