// Package daemon wires the TUN device, the serial radio link and the node
// table into the three concurrent bridging loops and supervises their
// lifecycle.
package daemon

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"meshtund/internal/nodetable"
	"meshtund/internal/util"
)

// Device is the virtual network interface handle. Read and Write move whole
// IP datagrams.
type Device interface {
	io.ReadWriteCloser
	Name() string
}

// Link is the serial radio link: an unstructured byte stream in each
// direction. Reads are expected to return (0, nil) on a short timeout so the
// read loop can observe shutdown within one iteration.
type Link interface {
	io.ReadWriteCloser
}

// Options are the runtime parameters the bridges need.
type Options struct {
	NodeID            string // this node's identifier on the radio link
	MTU               int    // read size for TUN datagrams
	DiscoveryInterval time.Duration
	EscapedFraming    bool // byte-stuff DATA payloads (both peers must agree)
}

// shutdownTimeout bounds how long Run waits for the loops after cancellation
// before closing the handles anyway.
const shutdownTimeout = time.Second

// Daemon owns the two I/O handles and the shared node table, and runs the
// three loops: TUN→radio, radio→TUN, and periodic discovery.
//
// Any I/O fault on either handle is fatal to the whole daemon: the first
// failing loop cancels the shared context and all three wind down. Malformed
// frames and unresolvable addresses are logged and dropped without affecting
// the run.
type Daemon struct {
	opts  Options
	dev   Device
	link  Link
	table *nodetable.Table

	cancel context.CancelFunc
	wg     sync.WaitGroup

	errMu sync.Mutex
	err   error // first fatal error, nil on external shutdown
}

// New assembles a daemon from opened handles and a pre-loaded node table.
// The daemon takes ownership of both handles; Run closes them.
func New(opts Options, dev Device, link Link, table *nodetable.Table) *Daemon {
	return &Daemon{
		opts:  opts,
		dev:   dev,
		link:  link,
		table: table,
	}
}

// Run starts the three loops and blocks until ctx is cancelled or a loop
// hits a fatal I/O error, then waits (bounded) for the loops and closes both
// handles. It returns the first fatal error, or nil on external shutdown.
func (d *Daemon) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	defer cancel()

	d.wg.Add(3)
	go d.tunToRadio(runCtx)
	go d.radioToTun(runCtx)
	go d.discoveryLoop(runCtx)

	<-runCtx.Done()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(shutdownTimeout):
		util.LogWarning("bridge loops did not exit within %s, closing handles", shutdownTimeout)
	}

	if cerr := errors.Join(d.dev.Close(), d.link.Close()); cerr != nil {
		util.LogWarning("closing handles: %v", cerr)
	}

	d.errMu.Lock()
	defer d.errMu.Unlock()
	return d.err
}

// fatal records the first fatal error and cancels the shared context so all
// loops observe shutdown within one iteration.
func (d *Daemon) fatal(err error) {
	d.errMu.Lock()
	if d.err == nil {
		d.err = err
		util.LogError("fatal: %v", err)
	}
	d.errMu.Unlock()
	d.cancel()
}
