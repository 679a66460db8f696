package serial

import (
	"bytes"
	"testing"
)

func TestMockPortRoundTrip(t *testing.T) {
	p := NewMockPort()
	p.OnWrite = func(data []byte) []byte {
		if bytes.HasSuffix(data, []byte("\n")) {
			return []byte("ok\n")
		}
		return nil
	}

	if _, err := p.Write([]byte("move 0 100\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := string(p.Written()); got != "move 0 100\n" {
		t.Errorf("Written() = %q", got)
	}

	buf := make([]byte, 16)
	n, err := p.Read(buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(buf[:n]) != "ok\n" {
		t.Errorf("reply = %q", buf[:n])
	}

	// An empty queue reads like a timed-out native read
	n, err = p.Read(buf)
	if n != 0 || err != nil {
		t.Errorf("empty read = (%d, %v)", n, err)
	}
}

func TestMockPortFlushAndClose(t *testing.T) {
	p := NewMockPort()
	p.OnWrite = func(data []byte) []byte { return []byte("stale\n") }

	p.Write([]byte("x\n"))
	p.Flush()

	buf := make([]byte, 16)
	if n, _ := p.Read(buf); n != 0 {
		t.Errorf("read %d bytes after flush", n)
	}

	p.Close()
	if _, err := p.Write([]byte("y\n")); err == nil {
		t.Error("write on closed port did not error")
	}
	if _, err := p.Read(buf); err == nil {
		t.Error("read on closed port did not error")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("/dev/ttyACM0")
	if cfg.Device != "/dev/ttyACM0" || cfg.Baud != 115200 {
		t.Errorf("DefaultConfig = %+v", cfg)
	}
}
