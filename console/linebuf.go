package console

// LineBuffer assembles complete lines from a serial byte stream. Bytes arrive
// from the UART receive interrupt through Feed; the console task pops whole
// lines with NextLine. The ring holds raw bytes so the interrupt side never
// allocates.
type LineBuffer struct {
	buf   []byte
	read  int
	write int
	size  int
	lines int
}

// NewLineBuffer creates a LineBuffer with the specified capacity.
func NewLineBuffer(capacity int) *LineBuffer {
	return &LineBuffer{
		buf:  make([]byte, capacity),
		size: capacity,
	}
}

// Feed appends incoming bytes. Returns the number of bytes accepted; bytes
// beyond the free space are dropped.
func (l *LineBuffer) Feed(data []byte) int {
	written := 0
	for _, b := range data {
		if b == '\r' {
			continue
		}
		nextWrite := (l.write + 1) % l.size
		if nextWrite == l.read {
			// Buffer full
			break
		}
		l.buf[l.write] = b
		l.write = nextWrite
		written++
		if b == '\n' {
			l.lines++
		}
	}
	return written
}

// HasLine reports whether a complete line is buffered.
func (l *LineBuffer) HasLine() bool {
	return l.lines > 0
}

// NextLine pops one complete line, without its newline. Returns false when
// no full line is buffered.
func (l *LineBuffer) NextLine() (string, bool) {
	if l.lines == 0 {
		return "", false
	}

	out := make([]byte, 0, 32)
	for l.read != l.write {
		b := l.buf[l.read]
		l.read = (l.read + 1) % l.size
		if b == '\n' {
			l.lines--
			return string(out), true
		}
		out = append(out, b)
	}
	// Newline accounting got ahead of the data; should not happen
	l.lines = 0
	return string(out), false
}

// Available returns the number of buffered bytes.
func (l *LineBuffer) Available() int {
	if l.write >= l.read {
		return l.write - l.read
	}
	return l.size - l.read + l.write
}

// Free returns the number of bytes that Feed can still accept.
func (l *LineBuffer) Free() int {
	return l.size - l.Available() - 1
}

// Reset discards all buffered data.
func (l *LineBuffer) Reset() {
	l.read = 0
	l.write = 0
	l.lines = 0
}
