// Package discovery finds a dev server on the local network over mDNS.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/hashicorp/mdns"
)

const ServiceType = "_hexhive._tcp"

var ErrNotFound = errors.New("discovery: no server found")

// Advertise announces a server listening on port until the returned server is
// shut down.
func Advertise(instance string, port int) (*mdns.Server, error) {
	if instance == "" {
		host, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("discovery: hostname: %w", err)
		}
		instance = host
	}
	service, err := mdns.NewMDNSService(instance, ServiceType, "", "", port, nil, []string{"path=/ws"})
	if err != nil {
		return nil, fmt.Errorf("discovery: service: %w", err)
	}
	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("discovery: server: %w", err)
	}
	return server, nil
}

// Browse returns the websocket URL of the first server that answers within
// timeout.
func Browse(ctx context.Context, timeout time.Duration) (string, error) {
	entries := make(chan *mdns.ServiceEntry, 8)
	params := mdns.DefaultParams(ServiceType)
	params.Entries = entries
	params.Timeout = timeout
	params.DisableIPv6 = true

	errc := make(chan error, 1)
	go func() {
		errc <- mdns.Query(params)
		close(entries)
	}()

	for {
		select {
		case e, ok := <-entries:
			if !ok {
				if err := <-errc; err != nil {
					return "", fmt.Errorf("discovery: query: %w", err)
				}
				return "", ErrNotFound
			}
			if u := entryURL(e); u != "" {
				go drain(entries)
				return u, nil
			}
		case <-ctx.Done():
			go drain(entries)
			return "", ctx.Err()
		}
	}
}

func entryURL(e *mdns.ServiceEntry) string {
	if e == nil || e.AddrV4 == nil || e.Port == 0 {
		return ""
	}
	return "ws://" + net.JoinHostPort(e.AddrV4.String(), fmt.Sprint(e.Port)) + "/ws"
}

// drain keeps the query goroutine from blocking once we stop listening.
func drain(entries <-chan *mdns.ServiceEntry) {
	for range entries {
	}
}
