//go:build linux

package tundev

import (
	"fmt"
	"net"

	"github.com/songgao/water"
	"github.com/vishvananda/netlink"

	"meshtund/internal/util"
)

// Device is a provisioned TUN interface. Read and Write move whole IP
// datagrams.
type Device struct {
	*water.Interface
	link netlink.Link
}

// Open creates the TUN interface, assigns its address and MTU, and brings
// the link up.
func Open(cfg Config) (dev *Device, err error) {
	iface, err := water.New(water.Config{
		DeviceType: water.TUN,
		PlatformSpecificParams: water.PlatformSpecificParams{
			Name:    cfg.Name,
			Persist: false,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create TUN device: %w", err)
	}
	defer func() {
		if err != nil {
			iface.Close()
		}
	}()

	link, err := netlink.LinkByName(iface.Name())
	if err != nil {
		return nil, fmt.Errorf("TUN device %q not found after creation: %w", iface.Name(), err)
	}

	mask := net.IPMask(net.ParseIP(cfg.Netmask).To4())
	if mask == nil {
		return nil, fmt.Errorf("netmask %q is not a valid dotted quad", cfg.Netmask)
	}
	ones, _ := mask.Size()
	addr, err := netlink.ParseAddr(fmt.Sprintf("%s/%d", cfg.Address, ones))
	if err != nil {
		return nil, fmt.Errorf("interface address %q: %w", cfg.Address, err)
	}
	if err := netlink.AddrAdd(link, addr); err != nil {
		return nil, fmt.Errorf("assign %s to %s: %w", addr, iface.Name(), err)
	}
	if err := netlink.LinkSetMTU(link, cfg.MTU); err != nil {
		return nil, fmt.Errorf("set MTU %d on %s: %w", cfg.MTU, iface.Name(), err)
	}
	if err := netlink.LinkSetUp(link); err != nil {
		return nil, fmt.Errorf("bring %s up: %w", iface.Name(), err)
	}

	util.LogInfo("TUN interface %s up: %s/%d mtu %d", iface.Name(), cfg.Address, ones, cfg.MTU)
	return &Device{Interface: iface, link: link}, nil
}

// Close brings the link down before releasing the device.
func (d *Device) Close() error {
	if err := netlink.LinkSetDown(d.link); err != nil {
		util.LogWarning("bringing %s down: %v", d.Name(), err)
	}
	return d.Interface.Close()
}
