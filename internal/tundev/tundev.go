// Package tundev creates and provisions the virtual network interface the
// daemon bridges to the radio link.
package tundev

// Config describes the interface to create.
type Config struct {
	Name    string
	Address string // IPv4 address assigned to the interface
	Netmask string // dotted-quad netmask, e.g. 255.255.255.0
	MTU     int
}
