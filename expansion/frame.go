package expansion

// Expansion link frame format
//
// Every SPI exchange with the expander chain moves one fixed-layout frame in
// each direction:
//
//	[len] [seq] [payload ...] [crc hi] [crc lo] [sync]
//
// len counts the whole frame. The CRC covers len, seq and the payload. The
// trailing sync byte lets the master resynchronize after a corrupted
// exchange by scanning for it.

import "errors"

const (
	FrameSync        = 0x7E
	frameHeaderSize  = 2 // len + seq
	frameTrailerSize = 3 // crc16 + sync
	frameOverhead    = frameHeaderSize + frameTrailerSize

	framePosLen = 0
	framePosSeq = 1
)

var (
	ErrFrameShort = errors.New("expansion: frame truncated")
	ErrFrameSync  = errors.New("expansion: missing sync byte")
	ErrFrameCRC   = errors.New("expansion: CRC mismatch")
	ErrFrameLen   = errors.New("expansion: bad length field")
)

// FrameLen returns the encoded size of a frame carrying n payload bytes.
func FrameLen(n int) int {
	return n + frameOverhead
}

// EncodeFrame writes a frame into buf and returns the encoded length.
// buf must hold at least FrameLen(len(payload)) bytes.
func EncodeFrame(buf []byte, seq uint8, payload []byte) int {
	total := FrameLen(len(payload))
	buf[framePosLen] = uint8(total)
	buf[framePosSeq] = seq
	copy(buf[frameHeaderSize:], payload)

	crc := CRC16(buf[:frameHeaderSize+len(payload)])
	buf[total-3] = uint8(crc >> 8)
	buf[total-2] = uint8(crc & 0xFF)
	buf[total-1] = FrameSync
	return total
}

// DecodeFrame validates buf and returns the sequence byte and payload.
// The payload aliases buf.
func DecodeFrame(buf []byte) (uint8, []byte, error) {
	if len(buf) < frameOverhead {
		return 0, nil, ErrFrameShort
	}
	total := int(buf[framePosLen])
	if total < frameOverhead || total > len(buf) {
		return 0, nil, ErrFrameLen
	}
	if buf[total-1] != FrameSync {
		return 0, nil, ErrFrameSync
	}

	wantCRC := uint16(buf[total-3])<<8 | uint16(buf[total-2])
	if CRC16(buf[:total-frameTrailerSize]) != wantCRC {
		return 0, nil, ErrFrameCRC
	}
	return buf[framePosSeq], buf[frameHeaderSize : total-frameTrailerSize], nil
}
