// Package serialio opens the serial port the radio modem is attached to.
package serialio

import (
	"fmt"
	"time"

	"go.bug.st/serial"

	"meshtund/internal/util"
)

// ReadTimeout bounds each blocking read so the link read loop can observe
// shutdown within one iteration. A timed-out read returns (0, nil).
const ReadTimeout = 100 * time.Millisecond

// Open opens the port at the given baud rate in 8N1 mode with the short read
// timeout the bridge loops rely on.
func Open(port string, baud int) (serial.Port, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	p, err := serial.Open(port, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", port, err)
	}
	if err := p.SetReadTimeout(ReadTimeout); err != nil {
		p.Close()
		return nil, fmt.Errorf("set read timeout on %s: %w", port, err)
	}
	util.LogInfo("serial port %s open at %d baud", port, baud)
	return p, nil
}
