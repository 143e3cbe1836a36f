package daemon

import (
	"context"
	"fmt"
	"net"

	"meshtund/internal/protocol"
	"meshtund/internal/util"
)

// ipv4DstOffset is where the destination address sits in a standard IPv4
// header (bytes 16..19 of the datagram).
const ipv4DstOffset = 16

// tunToRadio reads IP datagrams from the virtual interface, resolves each
// destination to a node id and writes the encoded DATA frame to the serial
// link. Unresolvable or truncated datagrams are dropped; I/O errors on
// either handle are fatal.
func (d *Daemon) tunToRadio(ctx context.Context) {
	defer d.wg.Done()

	buf := make([]byte, d.opts.MTU)
	for ctx.Err() == nil {
		n, err := d.dev.Read(buf)
		if err != nil {
			if ctx.Err() == nil {
				d.fatal(fmt.Errorf("tun read: %w", err))
			}
			return
		}
		if n == 0 {
			continue
		}
		if !d.forwardDatagram(buf[:n]) {
			return
		}
	}
}

// forwardDatagram encodes one TUN datagram onto the link. It returns false
// only on a fatal serial write error.
func (d *Daemon) forwardDatagram(datagram []byte) bool {
	if len(datagram) < ipv4DstOffset+4 {
		util.LogWarning("datagram too short for an IPv4 header (%d bytes), dropping", len(datagram))
		util.Stats.AddDropped()
		return true
	}
	dstIP := net.IP(datagram[ipv4DstOffset : ipv4DstOffset+4]).String()

	dstNode, err := d.table.NodeIDForIP(dstIP)
	if err != nil {
		util.LogWarning("no node for destination %s, dropping datagram: %v", dstIP, err)
		util.Stats.AddDropped()
		return true
	}

	payload := datagram
	if d.opts.EscapedFraming {
		payload = protocol.EscapePayload(datagram)
	}
	frame := protocol.Encode(&protocol.Packet{
		Destination: dstNode,
		Source:      d.opts.NodeID,
		Type:        protocol.TypeData,
		Header:      protocol.Header{Limit: protocol.DefaultHopLimit},
		Payload:     payload,
	})

	if _, err := d.link.Write(frame); err != nil {
		d.fatal(fmt.Errorf("serial write: %w", err))
		return false
	}
	util.Stats.AddToRadio(len(frame))
	util.LogDebug("forwarded %d bytes to node %s", len(datagram), dstNode)
	return true
}
