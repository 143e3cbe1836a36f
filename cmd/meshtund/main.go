// Meshtund — CLI entry point.
//
// This daemon bridges IP traffic between a TUN interface and a low-bandwidth
// packet-radio link attached over a serial port, translating between IP
// addresses and radio node identifiers.
//
// It needs root to create the TUN interface. On first run (no config file)
// it writes a default configuration and exits so the operator can review it.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"

	"meshtund/internal/config"
	"meshtund/internal/daemon"
	"meshtund/internal/nodetable"
	"meshtund/internal/serialio"
	"meshtund/internal/tundev"
	"meshtund/internal/util"
)

var version = "dev"

func main() {
	// Root context — cancelled on Ctrl+C / SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	configPath := flag.String("config", "config.yaml", "Path to the YAML configuration file")
	debugMode := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	if *debugMode {
		util.EnableDebug()
	}

	pterm.Info.Println(fmt.Sprintf("Meshtund — v%s", version))

	if os.Geteuid() != 0 {
		util.LogError("meshtund requires root privileges to create the TUN interface")
		os.Exit(1)
	}

	// First run: write a default config for the operator to adjust.
	if _, err := os.Stat(*configPath); os.IsNotExist(err) {
		if err := config.Default().Write(*configPath); err != nil {
			util.LogError("writing default configuration: %v", err)
			os.Exit(1)
		}
		util.LogInfo("default configuration written to %s — review and restart", *configPath)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		util.LogError("%v", err)
		os.Exit(1)
	}

	dev, err := tundev.Open(tundev.Config{
		Name:    cfg.Tun.Name,
		Address: cfg.Tun.Address,
		Netmask: cfg.Tun.Netmask,
		MTU:     cfg.Tun.MTU,
	})
	if err != nil {
		util.LogError("%v", err)
		os.Exit(1)
	}

	link, err := serialio.Open(cfg.Serial.Port, cfg.Serial.Baud)
	if err != nil {
		dev.Close()
		util.LogError("%v", err)
		os.Exit(1)
	}

	table := nodetable.New()
	table.LoadStatic(cfg.NodeMapping)

	d := daemon.New(daemon.Options{
		NodeID:            cfg.Node.ID,
		MTU:               cfg.Tun.MTU,
		DiscoveryInterval: cfg.DiscoveryInterval(),
		EscapedFraming:    cfg.EscapedFraming(),
	}, dev, link, table)

	util.StartStatsReporter(ctx)
	util.LogInfo("bridging %s <-> %s as node %s", cfg.Tun.Name, cfg.Serial.Port, cfg.Node.ID)

	// Run owns both handles from here on and closes them on exit.
	if err := d.Run(ctx); err != nil {
		util.LogError("daemon stopped: %v", err)
		os.Exit(1)
	}
	util.LogInfo("meshtund stopped")
}
