//go:build !linux

package tundev

import "fmt"

// Device is a provisioned TUN interface.
type Device struct{}

// Open is unsupported off Linux: interface provisioning relies on netlink.
func Open(cfg Config) (*Device, error) {
	return nil, fmt.Errorf("TUN device support requires linux")
}

func (d *Device) Read(p []byte) (int, error) {
	return 0, fmt.Errorf("unsupported platform")
}

func (d *Device) Write(p []byte) (int, error) {
	return 0, fmt.Errorf("unsupported platform")
}

func (d *Device) Name() string { return "" }

func (d *Device) Close() error { return nil }
