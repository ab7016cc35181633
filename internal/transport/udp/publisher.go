// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	applog "lipsync/internal/log"
	"lipsync/internal/viseme"
)

// PacketSize is the length of every label packet.
const PacketSize = 4 + 8 + 1

// LabelSource exposes the latest label to another goroutine.
type LabelSource interface {
	Load() (viseme.Label, uint64)
}

// PacketSender is satisfied by UDPSender.
type PacketSender interface {
	Send(data []byte) error
}

// UDPPublisher periodically reads the current label, packs it into a
// fixed binary format, and sends it over UDP. It runs in a separate
// goroutine managed by Start and Stop.
type UDPPublisher struct {
	sender   PacketSender
	source   LabelSource
	interval time.Duration

	ticker   *time.Ticker   // Ticker that triggers packet sending.
	doneChan chan struct{}  // Channel used to signal the publisher goroutine to stop.
	stopOnce sync.Once      // Ensures the stop logic runs only once per Start/Stop cycle.
	wg       sync.WaitGroup // Waits for the publisher goroutine to finish during Stop.
	mu       sync.Mutex     // Protects access to ticker and doneChan during Start/Stop.

	sequenceNum  uint32        // Monotonically increasing sequence number for packets.
	packetBuffer *bytes.Buffer // Reusable buffer for constructing the binary packet.
}

// NewUDPPublisher creates and initializes a new UDPPublisher.
// If the provided interval is invalid (<= 0), it defaults to 33ms (~30Hz).
func NewUDPPublisher(interval time.Duration, sender PacketSender, source LabelSource) (*UDPPublisher, error) {
	if sender == nil {
		return nil, fmt.Errorf("UDPPublisher: UDP sender cannot be nil")
	}
	if source == nil {
		return nil, fmt.Errorf("UDPPublisher: label source cannot be nil")
	}

	if interval <= 0 {
		interval = 33 * time.Millisecond
		applog.Warnf("UDPPublisher: Invalid interval provided, defaulting to %s", interval)
	}

	return &UDPPublisher{
		sender:       sender,
		source:       source,
		interval:     interval,
		packetBuffer: bytes.NewBuffer(make([]byte, 0, PacketSize)),
	}, nil
}

// Start begins the periodic publishing process.
// It is safe to call Start multiple times; subsequent calls are no-ops if already started.
func (p *UDPPublisher) Start() {
	p.mu.Lock()
	if p.ticker != nil {
		p.mu.Unlock()
		applog.Warnf("UDPPublisher: Start called but already running.")
		return
	}

	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{}

	// Capture local variables for the goroutine to avoid data races on p.ticker/p.doneChan
	ticker := p.ticker
	doneChan := p.doneChan

	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		applog.Debugf("UDPPublisher: Publisher goroutine started (Interval: %s)", p.interval)
		for {
			select {
			case now := <-ticker.C:
				p.buildAndSendPacket(now)
			case <-doneChan:
				return
			}
		}
	}()
}

// Stop signals the publisher goroutine to terminate and waits for it to exit.
// It is safe to call Stop multiple times; subsequent calls are no-ops.
func (p *UDPPublisher) Stop() error {
	p.mu.Lock()
	if p.ticker == nil {
		p.mu.Unlock()
		return nil
	}

	p.stopOnce.Do(func() {
		close(p.doneChan)
		p.ticker.Stop()
		p.ticker = nil
	})

	p.mu.Unlock()

	p.wg.Wait()
	applog.Debugf("UDPPublisher: Publisher goroutine finished after %d packets.", p.sequenceNum)
	return nil
}

/*
UDP Packet Structure (BigEndian)

|<---- 4 Bytes ---->|<------ 8 Bytes ------>|<- 1 Byte ->|
+-------------------+-----------------------+------------+
|  Sequence Number  |       Timestamp       |   Label    |
|      (uint32)     |  (int64, unix millis) |  (uint8)   |
+-------------------+-----------------------+------------+

Label values follow viseme.Label: 0 Closed, 1 Ah, 2 Ee, 3 Oo, 4 FV, 5 S,
6 MBP, 7 LTD, 8 ChJ.
*/

// buildPacket packs one label into the reusable buffer.
func (p *UDPPublisher) buildPacket(label viseme.Label, now time.Time) ([]byte, error) {
	p.sequenceNum++
	p.packetBuffer.Reset()

	err := binary.Write(p.packetBuffer, binary.BigEndian, p.sequenceNum)
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, now.UnixMilli())
	}
	if err == nil {
		err = p.packetBuffer.WriteByte(uint8(label))
	}
	if err != nil {
		return nil, err
	}
	return p.packetBuffer.Bytes(), nil
}

func (p *UDPPublisher) buildAndSendPacket(now time.Time) {
	label, _ := p.source.Load()
	packet, err := p.buildPacket(label, now)
	if err != nil {
		applog.Errorf("UDPPublisher: Error packing label: %v", err)
		return
	}
	// Send errors are already logged by the sender.
	_ = p.sender.Send(packet)
}

// DecodePacket parses a packet produced by the publisher.
func DecodePacket(b []byte) (seq uint32, timestamp time.Time, label viseme.Label, err error) {
	if len(b) != PacketSize {
		return 0, time.Time{}, 0, fmt.Errorf("packet is %d bytes, want %d", len(b), PacketSize)
	}
	seq = binary.BigEndian.Uint32(b[0:4])
	timestamp = time.UnixMilli(int64(binary.BigEndian.Uint64(b[4:12])))
	label = viseme.Label(b[12])
	if !label.Valid() {
		return 0, time.Time{}, 0, fmt.Errorf("packet carries invalid label %d", b[12])
	}
	return seq, timestamp, label, nil
}

// Close implements the io.Closer interface. It gracefully stops the publisher goroutine.
func (p *UDPPublisher) Close() error {
	return p.Stop()
}

// Ensure UDPPublisher satisfies the io.Closer interface at compile time.
var _ interface{ Close() error } = (*UDPPublisher)(nil)
