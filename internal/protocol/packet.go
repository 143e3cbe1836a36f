// Package protocol defines the delimited frame format spoken on the serial
// radio link and the codec for it.
package protocol

import "encoding/json"

// Frame delimiter bytes. A frame on the wire looks like:
//
//	!<[dest:][source:]KIND|{"hop":0,"limit":3}|payload>
//
// The payload is written verbatim, so a payload containing FrameEnd or
// PayloadSep corrupts framing unless escaped framing is enabled on both ends.
const (
	Preamble   byte = '!'
	FrameStart byte = '<'
	FrameEnd   byte = '>'
	AddressSep byte = ':' // between destination and source tokens
	PayloadSep byte = '|' // between address section, header and payload
)

// PacketType selects how a received packet is dispatched.
type PacketType string

const (
	TypeData     PacketType = "DATA"      // payload is a raw IP datagram
	TypeNodeInfo PacketType = "NODE_INFO" // payload is a NodeInfo record
	TypeText     PacketType = "TEXT"      // payload is UTF-8 text
)

func (t PacketType) valid() bool {
	switch t {
	case TypeData, TypeNodeInfo, TypeText:
		return true
	}
	return false
}

// DefaultHopLimit is the hop limit stamped on locally originated packets.
// Hop fields are carried on the wire but not used for forwarding.
const DefaultHopLimit = 3

// Header carries the hop accounting fields of a frame.
type Header struct {
	Hop   int `json:"hop"`
	Limit int `json:"limit"`
}

// Packet is one decoded unit of traffic on the radio link.
type Packet struct {
	Destination string // target node id; empty means broadcast
	Source      string // originating node id; may be empty
	Type        PacketType
	Header      Header
	Payload     []byte
}

// NodeInfo is the structured payload of a NODE_INFO announcement.
type NodeInfo struct {
	NodeID    string `json:"node_id"`
	IPAddress string `json:"ip_address"`
}

// MarshalNodeInfo serializes a node announcement payload.
func MarshalNodeInfo(info NodeInfo) []byte {
	b, _ := json.Marshal(info)
	return b
}

// UnmarshalNodeInfo parses a NODE_INFO payload.
func UnmarshalNodeInfo(payload []byte) (NodeInfo, error) {
	var info NodeInfo
	err := json.Unmarshal(payload, &info)
	return info, err
}

// discoveryRequest is the payload of a broadcast "who's there" NODE_INFO.
// Peers that do not announce themselves simply ignore it.
type discoveryRequest struct {
	Request string `json:"request"`
}

// DiscoveryPayload returns the payload carried by a discovery broadcast.
func DiscoveryPayload() []byte {
	b, _ := json.Marshal(discoveryRequest{Request: "node_info"})
	return b
}
