package serial

import (
	"bytes"
	"errors"
	"sync"
)

// MockPort is an in-memory Port for tests. Writes are captured, and an
// optional OnWrite hook scripts the board's reply, which later Reads return.
type MockPort struct {
	mu     sync.Mutex
	rx     bytes.Buffer
	tx     bytes.Buffer
	closed bool

	// OnWrite, if set, is called with each written chunk and its return
	// value is queued as read data.
	OnWrite func(data []byte) []byte
}

// NewMockPort creates an open mock port.
func NewMockPort() *MockPort {
	return &MockPort{}
}

// Read returns queued reply data. An empty queue reads as (0, nil), matching
// a timed-out native read.
func (p *MockPort) Read(buf []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, errors.New("serial: port closed")
	}
	if p.rx.Len() == 0 {
		return 0, nil
	}
	return p.rx.Read(buf)
}

// Write captures outgoing data and queues any scripted reply.
func (p *MockPort) Write(data []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, errors.New("serial: port closed")
	}
	n, err := p.tx.Write(data)
	if err == nil && p.OnWrite != nil {
		if reply := p.OnWrite(data); len(reply) > 0 {
			p.rx.Write(reply)
		}
	}
	return n, err
}

// Flush discards any queued reply data.
func (p *MockPort) Flush() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rx.Reset()
	return nil
}

// Close marks the port closed; further I/O errors.
func (p *MockPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// Written returns everything written to the port so far.
func (p *MockPort) Written() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]byte(nil), p.tx.Bytes()...)
}
