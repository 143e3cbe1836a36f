package util

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/pterm/pterm"
)

// ──────────────────────────────────────────────────────────────────────────────
// Global stats singleton
// ──────────────────────────────────────────────────────────────────────────────

// Stats is the process-wide link traffic counter.
var Stats = &stats{}

type stats struct {
	FramesToRadio   atomic.Int64 // frames written to the serial link
	FramesFromRadio atomic.Int64 // frames decoded from the serial link
	BytesToRadio    atomic.Int64 // bytes written to the serial link
	BytesFromRadio  atomic.Int64 // bytes read from the serial link
	Dropped         atomic.Int64 // datagrams/frames dropped (unresolved, malformed)
}

func (s *stats) AddToRadio(n int) {
	s.FramesToRadio.Add(1)
	s.BytesToRadio.Add(int64(n))
}

func (s *stats) AddFromRadio(n int) {
	s.FramesFromRadio.Add(1)
	s.BytesFromRadio.Add(int64(n))
}

func (s *stats) AddDropped() { s.Dropped.Add(1) }

// ──────────────────────────────────────────────────────────────────────────────
// Periodic reporter
// ──────────────────────────────────────────────────────────────────────────────

const reportInterval = 10 * time.Second

// StartStatsReporter launches a goroutine that logs link statistics every
// 10 seconds while there is traffic. It stops when ctx is cancelled.
func StartStatsReporter(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(reportInterval)
		defer ticker.Stop()

		var prevTo, prevFrom, prevDropped int64
		for {
			select {
			case <-ticker.C:
				to := Stats.BytesToRadio.Load()
				from := Stats.BytesFromRadio.Load()
				dropped := Stats.Dropped.Load()

				toRate := float64(to-prevTo) / reportInterval.Seconds()
				fromRate := float64(from-prevFrom) / reportInterval.Seconds()

				if to != prevTo || from != prevFrom || dropped != prevDropped {
					pterm.DefaultLogger.Info(fmt.Sprintf(
						"Radio out: %s/s | Radio in: %s/s | Dropped: %d",
						formatBytes(toRate), formatBytes(fromRate), dropped))
				}

				prevTo = to
				prevFrom = from
				prevDropped = dropped

			case <-ctx.Done():
				return
			}
		}
	}()
}

// byteUnits defines the units for formatting byte counts in a human-readable way.
var byteUnits = []string{"B", "KiB", "MiB", "GiB", "TiB", "PiB"}

// formatBytes formats a byte count into a human-readable string with fixed width
// for example: "99.0   B", " 1.5 KiB", " 0.1 MiB", "98.9 GiB", etc.
func formatBytes(b float64) string {
	unitIdx := 0

	// to prevent "100.0 KiB", which is 9 chars
	for b > 99 && unitIdx < 5 {
		b /= 1024
		unitIdx++
	}

	return fmt.Sprintf("%4.1f %3s", b, byteUnits[unitIdx])
}
