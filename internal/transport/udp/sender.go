// SPDX-License-Identifier: MIT
// Package udp sends ensemble decisions as compact binary packets over
// UDP, for consumers that want fixed-rate data without a websocket
// handshake (LED controllers, visualizers).
package udp

import (
	"fmt"
	"net"
	"sync"

	"emberlight/internal/log"
)

// Sender owns one UDP connection to a fixed target address.
type Sender struct {
	conn       *net.UDPConn
	targetAddr *net.UDPAddr
	mu         sync.Mutex
	closed     bool
}

// NewSender resolves the target address and opens the connection.
func NewSender(target string) (*Sender, error) {
	addr, err := net.ResolveUDPAddr("udp", target)
	if err != nil {
		return nil, fmt.Errorf("udp: resolve %q: %w", target, err)
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("udp: dial %q: %w", target, err)
	}
	log.Infof("udp: sending to %s", target)
	return &Sender{conn: conn, targetAddr: addr}, nil
}

// Send transmits one packet. Errors are returned but non-fatal; UDP
// consumers are expected to tolerate loss.
func (s *Sender) Send(packet []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("udp: sender closed")
	}
	if _, err := s.conn.Write(packet); err != nil {
		return fmt.Errorf("udp: write: %w", err)
	}
	return nil
}

// Close shuts the connection down. Safe to call more than once.
func (s *Sender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.conn.Close()
}
