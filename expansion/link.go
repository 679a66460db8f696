package expansion

// Daisy-chained I/O expander link
//
// A chain of up to MaxBoards 8-bit expander boards hangs off one SPI bus.
// The master clocks a full-duplex exchange on a divided sample schedule:
// the outgoing frame carries the output image (one byte per board), the
// incoming frame carries the input image the chain captured during the
// previous cycle. Each board adds one byte of shift latency, which is how
// discovery counts the chain.

import (
	"errors"

	"stepcore/core"
)

const (
	// MaxBoards is the longest supported chain.
	MaxBoards = 8

	// PinsPerBoard is the number of I/O points on one expander board.
	PinsPerBoard = 8

	// discoveryMarker is the pattern used to measure chain length.
	discoveryMarker = 0xA5

	// DefaultErrorLimit is the number of consecutive bad exchanges before
	// the link reports a fault.
	DefaultErrorLimit = 5
)

var (
	ErrNoBoards   = errors.New("expansion: no boards detected")
	ErrBadPin     = errors.New("expansion: pin outside detected chain")
	ErrLinkFailed = errors.New("expansion: link offline")
	errMarkerLost = errors.New("expansion: discovery marker not returned")
)

// Pin addresses one I/O point on the chain.
type Pin struct {
	Board uint8
	Bit   uint8
}

// Link drives one expander chain. Register it as a connector to scan on the
// sample clock, or call Exchange directly from a task loop.
type Link struct {
	bus    interface{}
	boards uint8
	seq    uint8

	// RefreshDivisor runs the exchange every Nth sample tick. Zero or one
	// exchanges every tick.
	RefreshDivisor uint16
	divCount       uint16

	// ErrorLimit is the number of consecutive CRC failures tolerated before
	// OnFault fires. The counter resets on any good exchange.
	ErrorLimit uint8
	errorRun   uint8
	offline    bool

	// OnFault is invoked once when the error run reaches ErrorLimit.
	// Typically wired to the board fault latch.
	OnFault func()

	outputs [MaxBoards]uint8
	inputs  [MaxBoards]uint8

	tx [MaxBoards + frameOverhead + MaxBoards]byte
	rx [MaxBoards + frameOverhead + MaxBoards]byte
}

// OpenLink configures the SPI bus and discovers the attached chain.
func OpenLink(cfg core.SPIConfig) (*Link, error) {
	bus, err := core.MustSPI().ConfigureBus(cfg)
	if err != nil {
		return nil, err
	}

	l := &Link{
		bus:        bus,
		ErrorLimit: DefaultErrorLimit,
	}
	if err := l.discover(); err != nil {
		return nil, err
	}
	return l, nil
}

// Boards returns the detected chain length.
func (l *Link) Boards() uint8 {
	return l.boards
}

// Online reports whether the link is exchanging valid frames.
func (l *Link) Online() bool {
	return !l.offline
}

// SetOutput stages one output point; the change reaches the hardware on the
// next exchange.
func (l *Link) SetOutput(pin Pin, on bool) error {
	if pin.Board >= l.boards || pin.Bit >= PinsPerBoard {
		return ErrBadPin
	}
	if on {
		l.outputs[pin.Board] |= 1 << pin.Bit
	} else {
		l.outputs[pin.Board] &^= 1 << pin.Bit
	}
	return nil
}

// Input returns the input point captured by the most recent exchange.
func (l *Link) Input(pin Pin) (bool, error) {
	if pin.Board >= l.boards || pin.Bit >= PinsPerBoard {
		return false, ErrBadPin
	}
	return l.inputs[pin.Board]&(1<<pin.Bit) != 0, nil
}

// InputImage returns the raw input byte of one board.
func (l *Link) InputImage(board uint8) uint8 {
	if board >= l.boards {
		return 0
	}
	return l.inputs[board]
}

// Refresh runs the divided exchange schedule. Part of the core Connector
// interface.
func (l *Link) Refresh() {
	if l.RefreshDivisor > 1 {
		l.divCount++
		if l.divCount < l.RefreshDivisor {
			return
		}
		l.divCount = 0
	}
	_ = l.Exchange()
}

// Exchange performs one full-duplex frame exchange with the chain and
// updates the input image. A CRC failure keeps the previous image; a run of
// failures takes the link offline and fires OnFault.
func (l *Link) Exchange() error {
	if l.offline {
		return ErrLinkFailed
	}

	n := int(l.boards)
	l.seq = (l.seq + 1) & 0x0F
	frameLen := EncodeFrame(l.tx[:], l.seq, l.outputs[:n])

	// The chain delays the reply by one byte per board
	total := frameLen + n
	for i := frameLen; i < total; i++ {
		l.tx[i] = 0
	}
	if err := core.MustSPI().Transfer(l.bus, l.tx[:total], l.rx[:total]); err != nil {
		l.recordError()
		return err
	}

	_, payload, err := DecodeFrame(l.rx[n:total])
	if err != nil {
		l.recordError()
		return err
	}

	copy(l.inputs[:n], payload)
	l.errorRun = 0
	return nil
}

// Reset clears the error state and puts the link back online. Call after the
// fault cause is resolved; the next exchange revalidates the chain.
func (l *Link) Reset() {
	l.errorRun = 0
	l.offline = false
}

func (l *Link) recordError() {
	l.errorRun++
	if l.errorRun >= l.ErrorLimit {
		l.offline = true
		l.errorRun = 0
		if l.OnFault != nil {
			l.OnFault()
		}
	}
}

// discover measures the chain length by clocking a marker pattern through
// the chain and finding how far it shifted.
func (l *Link) discover() error {
	for i := range l.tx {
		l.tx[i] = 0
	}
	l.tx[0] = discoveryMarker
	l.tx[1] = ^uint8(discoveryMarker)

	probe := 2 + MaxBoards
	if err := core.MustSPI().Transfer(l.bus, l.tx[:probe], l.rx[:probe]); err != nil {
		return err
	}

	for shift := 1; shift <= MaxBoards; shift++ {
		if l.rx[shift] == discoveryMarker && l.rx[shift+1] == ^uint8(discoveryMarker) {
			l.boards = uint8(shift)
			return nil
		}
	}
	if l.rx[0] == discoveryMarker {
		// Marker came straight back: nothing in the chain
		return ErrNoBoards
	}
	return errMarkerLost
}
