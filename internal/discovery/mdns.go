// ABOUTME: mDNS advertisement for the remote control endpoint
// ABOUTME: Announces _loopdeck._tcp so remotes find the deck on the LAN
package discovery

import (
	"context"
	"fmt"
	"net"

	"github.com/hashicorp/mdns"

	"github.com/loopdeck/loopdeck-go/internal/log"
)

// ServiceType is the advertised mDNS service type.
const ServiceType = "_loopdeck._tcp"

// Config holds advertisement configuration.
type Config struct {
	// ServiceName is the human-readable instance name.
	ServiceName string

	// Port is the remote control port being advertised.
	Port int
}

// Manager handles the mDNS advertisement lifecycle.
type Manager struct {
	config Config
	ctx    context.Context
	cancel context.CancelFunc
}

// NewManager creates an advertisement manager.
func NewManager(config Config) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		config: config,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Advertise announces the remote control endpoint via mDNS.
func (m *Manager) Advertise() error {
	ips, err := getLocalIPs()
	if err != nil {
		return fmt.Errorf("failed to get local IPs: %w", err)
	}

	service, err := mdns.NewMDNSService(
		m.config.ServiceName,
		ServiceType,
		"",
		"",
		m.config.Port,
		ips,
		[]string{"path=/loopdeck"},
	)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return fmt.Errorf("failed to create mdns server: %w", err)
	}

	log.Component("discovery").
		WithField("service", m.config.ServiceName).
		WithField("port", m.config.Port).
		Info("advertising remote control endpoint")

	go func() {
		<-m.ctx.Done()
		server.Shutdown()
	}()

	return nil
}

// Stop withdraws the advertisement.
func (m *Manager) Stop() {
	m.cancel()
}

// getLocalIPs returns the non-loopback IPv4 addresses of up interfaces.
func getLocalIPs() ([]net.IP, error) {
	var ips []net.IP

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
				if ipnet.IP.To4() != nil {
					ips = append(ips, ipnet.IP)
				}
			}
		}
	}

	return ips, nil
}
