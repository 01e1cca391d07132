// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"emberlight/internal/detect"
	"emberlight/internal/log"
)

/*
Packet layout (BigEndian):

	| Field       | Type    | Bytes |
	|-------------|---------|-------|
	| Sequence    | uint32  | 4     |
	| Timestamp   | int64   | 8     | nanoseconds since epoch
	| Strength    | float32 | 4     |
	| Confidence  | float32 | 4     |
	| Agreement   | uint8   | 1     |
	| Dominant    | int8    | 1     | detector index, -1 = none
*/

// OutputProvider returns the latest ensemble decision. Implementations
// must be safe to call from the publisher goroutine.
type OutputProvider func() detect.Output

// Publisher periodically fetches the latest ensemble output, packs it
// into the binary format above, and sends it through a Sender. It runs
// in its own goroutine between Start and Stop.
type Publisher struct {
	sender   *Sender
	provider OutputProvider
	interval time.Duration

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	mu       sync.Mutex

	sequenceNum  uint32
	packetBuffer *bytes.Buffer
}

// NewPublisher creates a publisher. An interval <= 0 defaults to 16 ms
// (~60 Hz, the ensemble frame rate).
func NewPublisher(interval time.Duration, sender *Sender, provider OutputProvider) (*Publisher, error) {
	if sender == nil {
		return nil, fmt.Errorf("udp publisher: sender cannot be nil")
	}
	if provider == nil {
		return nil, fmt.Errorf("udp publisher: output provider cannot be nil")
	}
	if interval <= 0 {
		interval = 16 * time.Millisecond
		log.Warnf("udp publisher: invalid interval, defaulting to %s", interval)
	}
	return &Publisher{
		sender:       sender,
		provider:     provider,
		interval:     interval,
		packetBuffer: new(bytes.Buffer),
	}, nil
}

// Start launches the publisher goroutine. Safe to call when already
// running (no-op).
func (p *Publisher) Start() {
	p.mu.Lock()
	if p.ticker != nil {
		p.mu.Unlock()
		log.Warnf("udp publisher: start called but already running")
		return
	}
	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{}

	ticker := p.ticker
	doneChan := p.doneChan
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		log.Infof("udp publisher: started (interval %s)", p.interval)
		for {
			select {
			case <-ticker.C:
				p.buildAndSendPacket()
			case <-doneChan:
				return
			}
		}
	}()
}

// Stop signals the goroutine to exit and waits for it. Safe to call
// more than once.
func (p *Publisher) Stop() error {
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
	log.Infof("udp publisher: stopped")
	return nil
}

func (p *Publisher) buildAndSendPacket() {
	out := p.provider()

	p.sequenceNum++
	p.packetBuffer.Reset()

	err := binary.Write(p.packetBuffer, binary.BigEndian, p.sequenceNum)
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, time.Now().UnixNano())
	}
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, float32(out.TransientStrength))
	}
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, float32(out.Confidence))
	}
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, uint8(out.Agreement))
	}
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, int8(out.Dominant))
	}
	if err != nil {
		log.Errorf("udp publisher: pack error: %v", err)
		return
	}

	if err := p.sender.Send(p.packetBuffer.Bytes()); err != nil {
		log.Debugf("udp publisher: send error: %v", err)
	}
}

// Close implements io.Closer by stopping the publisher.
func (p *Publisher) Close() error { return p.Stop() }
