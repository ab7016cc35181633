// SPDX-License-Identifier: MIT
package udp

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	applog "lipsync/internal/log"
)

// ErrSenderClosed is returned by Send after Close.
var ErrSenderClosed = errors.New("udp sender closed")

// SenderStats counts datagrams written and failed since the sender opened.
type SenderStats struct {
	Sent   uint64
	Failed uint64
}

// UDPSender writes viseme packets to a single connected peer.
type UDPSender struct {
	target *net.UDPAddr

	mu   sync.Mutex // serialises Write with Close
	conn *net.UDPConn

	sent   atomic.Uint64
	failed atomic.Uint64
}

// NewUDPSender connects to addr, given as "host:port".
func NewUDPSender(addr string) (*UDPSender, error) {
	target, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", addr, err)
	}
	conn, err := net.DialUDP("udp", nil, target)
	if err != nil {
		return nil, fmt.Errorf("dial %q: %w", addr, err)
	}
	applog.Infof("UDPSender: connected %s -> %s", conn.LocalAddr(), target)
	return &UDPSender{target: target, conn: conn}, nil
}

// Target returns the resolved destination.
func (s *UDPSender) Target() *net.UDPAddr {
	return s.target
}

// Stats returns the packet counters.
func (s *UDPSender) Stats() SenderStats {
	return SenderStats{Sent: s.sent.Load(), Failed: s.failed.Load()}
}

// Send writes packet as one datagram. A refused or dropped datagram is
// counted and returned; the caller decides whether to keep going.
func (s *UDPSender) Send(packet []byte) error {
	s.mu.Lock()
	conn := s.conn
	if conn == nil {
		s.mu.Unlock()
		return ErrSenderClosed
	}
	_, err := conn.Write(packet)
	s.mu.Unlock()

	if err != nil {
		if n := s.failed.Add(1); n == 1 || n%100 == 0 {
			applog.Debugf("UDPSender: write to %s failed (%d so far): %v", s.target, n, err)
		}
		return fmt.Errorf("send to %s: %w", s.target, err)
	}
	s.sent.Add(1)
	return nil
}

// Close releases the socket. Later calls are no-ops.
func (s *UDPSender) Close() error {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()

	if conn == nil {
		return nil
	}
	stats := s.Stats()
	applog.Debugf("UDPSender: closing %s after %d sent, %d failed", s.target, stats.Sent, stats.Failed)
	return conn.Close()
}
