package daemon

import (
	"context"
	"time"

	"meshtund/internal/protocol"
	"meshtund/internal/util"
)

// discoveryLoop periodically broadcasts a NODE_INFO request so peers can
// announce themselves. The request carries no destination (broadcast) and no
// delivery guarantee, so a write failure here is logged but not fatal.
func (d *Daemon) discoveryLoop(ctx context.Context) {
	defer d.wg.Done()

	frame := protocol.Encode(&protocol.Packet{
		Type:    protocol.TypeNodeInfo,
		Header:  protocol.Header{Limit: protocol.DefaultHopLimit},
		Payload: protocol.DiscoveryPayload(),
	})

	ticker := time.NewTicker(d.opts.DiscoveryInterval)
	defer ticker.Stop()
	for {
		if _, err := d.link.Write(frame); err != nil {
			util.LogWarning("discovery broadcast failed: %v", err)
		} else {
			util.Stats.AddToRadio(len(frame))
			util.LogDebug("sent discovery broadcast")
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}
