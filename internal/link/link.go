// Package link exposes network connectivity as a boolean signal.
package link

import (
	"log"
	"net"
	"sync"
	"time"
)

// Link reports whether the network is up.
type Link interface {
	Connected() bool
}

// Static is a Link with a fixed answer.
type Static bool

func (s Static) Connected() bool { return bool(s) }

// Probe treats the network as up when a TCP connection to Addr succeeds.
// Results are cached for TTL so frequent callers do not dial every time.
type Probe struct {
	Addr    string
	Timeout time.Duration
	TTL     time.Duration

	dial func(network, address string, timeout time.Duration) (net.Conn, error)

	mu      sync.Mutex
	checked time.Time
	up      bool
}

// NewProbe creates a Probe for addr (host:port).
func NewProbe(addr string) *Probe {
	return &Probe{
		Addr:    addr,
		Timeout: 2 * time.Second,
		TTL:     5 * time.Second,
		dial:    net.DialTimeout,
	}
}

func (p *Probe) Connected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.checked.IsZero() && time.Since(p.checked) < p.TTL {
		return p.up
	}

	conn, err := p.dial("tcp", p.Addr, p.Timeout)
	up := err == nil
	if up {
		_ = conn.Close()
	}
	if up != p.up || p.checked.IsZero() {
		log.Printf("INFO: link: %s connected=%t", p.Addr, up)
	}
	p.up = up
	p.checked = time.Now()
	return up
}
