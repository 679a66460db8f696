package expansion

import (
	"bytes"
	"testing"
)

func TestCRC16Empty(t *testing.T) {
	if crc := CRC16(nil); crc != 0xFFFF {
		t.Errorf("CRC16(empty) = %04X, want FFFF", crc)
	}
}

func TestCRC16Consistency(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04, 0x05}
	if CRC16(data) != CRC16(data) {
		t.Error("CRC16 not deterministic")
	}
}

func TestCRC16Different(t *testing.T) {
	crc1 := CRC16([]byte{0x01, 0x02, 0x03})
	crc2 := CRC16([]byte{0x01, 0x02, 0x04})
	if crc1 == crc2 {
		t.Errorf("CRC16 collision: both inputs produced %04X", crc1)
	}
}

func TestFrameRoundTrip(t *testing.T) {
	payload := []byte{0x11, 0x22, 0x33, 0x44}
	buf := make([]byte, FrameLen(len(payload)))

	n := EncodeFrame(buf, 7, payload)
	if n != len(buf) {
		t.Fatalf("EncodeFrame wrote %d bytes, want %d", n, len(buf))
	}
	if buf[n-1] != FrameSync {
		t.Error("frame does not end with the sync byte")
	}

	seq, got, err := DecodeFrame(buf)
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if seq != 7 {
		t.Errorf("seq = %d, want 7", seq)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("payload = %v, want %v", got, payload)
	}
}

func TestFrameEmptyPayload(t *testing.T) {
	buf := make([]byte, FrameLen(0))
	EncodeFrame(buf, 1, nil)
	_, payload, err := DecodeFrame(buf)
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if len(payload) != 0 {
		t.Errorf("payload length %d, want 0", len(payload))
	}
}

func TestFrameRejectsCorruption(t *testing.T) {
	payload := []byte{0xAA, 0xBB}
	good := make([]byte, FrameLen(len(payload)))
	EncodeFrame(good, 3, payload)

	// Flip one payload bit
	buf := append([]byte(nil), good...)
	buf[2] ^= 0x01
	if _, _, err := DecodeFrame(buf); err != ErrFrameCRC {
		t.Errorf("corrupt payload: err = %v, want %v", err, ErrFrameCRC)
	}

	// Break the trailing sync byte
	buf = append([]byte(nil), good...)
	buf[len(buf)-1] = 0x00
	if _, _, err := DecodeFrame(buf); err != ErrFrameSync {
		t.Errorf("broken sync: err = %v, want %v", err, ErrFrameSync)
	}

	// Truncated input
	if _, _, err := DecodeFrame(good[:3]); err != ErrFrameShort {
		t.Errorf("short input: err = %v, want %v", err, ErrFrameShort)
	}

	// Length field larger than the buffer
	buf = append([]byte(nil), good...)
	buf[0] = uint8(len(buf) + 10)
	if _, _, err := DecodeFrame(buf); err != ErrFrameLen {
		t.Errorf("oversized length: err = %v, want %v", err, ErrFrameLen)
	}
}
