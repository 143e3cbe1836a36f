// Package nodetable maintains the bidirectional mapping between radio node
// identifiers and IPv4 addresses that both bridge directions consult.
package nodetable

import (
	"fmt"
	"net"
	"sync"

	"meshtund/internal/util"
)

// IDPrefix is prepended to dynamically derived node identifiers.
const IDPrefix = "msh"

// Table maps node identifiers to IPv4 addresses. A single mutex guards every
// operation; critical sections are lookup/insert only and are never held
// across I/O or logging. Entries are never evicted.
//
// The forward direction (id → IP) is unique by construction. The reverse
// direction is resolved by linear scan and, on a miss, by a deterministic
// heuristic that derives an identifier from the address's last octet.
type Table struct {
	mu      sync.Mutex
	entries map[string]string // node id → IPv4 address
}

// New returns an empty table.
func New() *Table {
	return &Table{entries: make(map[string]string)}
}

// LoadStatic bulk-inserts the configured static mappings. Called once at
// startup, before the bridge loops run.
func (t *Table) LoadStatic(entries map[string]string) {
	t.mu.Lock()
	for id, ip := range entries {
		t.entries[id] = ip
	}
	t.mu.Unlock()
	for id, ip := range entries {
		util.LogInfo("static node mapping: %s -> %s", id, ip)
	}
}

// LookupIP resolves a node identifier to its known address. It is a pure
// lookup: no dynamic mapping is ever created here.
func (t *Table) LookupIP(nodeID string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ip, ok := t.entries[nodeID]
	return ip, ok
}

// Record upserts a mapping announced by a peer, overwriting any prior entry
// for that identifier.
func (t *Table) Record(nodeID, ip string) {
	t.mu.Lock()
	t.entries[nodeID] = ip
	t.mu.Unlock()
}

// NodeIDForIP resolves an IPv4 address to a node identifier. Existing entries
// take precedence; otherwise an identifier is derived from the address's last
// octet (zero-padded hex) and recorded as a dynamic mapping. Only a malformed
// address fails.
//
// Note the derived id is not guaranteed to round-trip: nothing maps an
// identifier's suffix back to an address, so LookupIP on a derived id finds
// only what this call inserted.
func (t *Table) NodeIDForIP(ip string) (string, error) {
	addr := net.ParseIP(ip)
	if addr == nil || addr.To4() == nil {
		return "", fmt.Errorf("not an IPv4 address: %q", ip)
	}

	t.mu.Lock()
	for id, known := range t.entries {
		if known == ip {
			t.mu.Unlock()
			return id, nil
		}
	}
	derived := fmt.Sprintf("%s-%02x", IDPrefix, addr.To4()[3])
	_, taken := t.entries[derived]
	if !taken {
		t.entries[derived] = ip
	}
	t.mu.Unlock()

	if !taken {
		util.LogWarning("dynamically mapped %s to node %s", ip, derived)
	}
	return derived, nil
}

// Len reports the number of stored entries.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
