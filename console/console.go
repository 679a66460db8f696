package console

import "io"

// Console ties a line buffer to the command registry. The serial receive
// path calls Feed from interrupt context; the main loop calls Poll to run
// any complete commands and write their replies.
type Console struct {
	reg   *Registry
	lines *LineBuffer
	out   io.Writer
}

// New creates a console writing replies to out, using the global registry.
func New(out io.Writer) *Console {
	return &Console{
		reg:   globalRegistry,
		lines: NewLineBuffer(512),
		out:   out,
	}
}

// Feed accepts raw serial bytes. Safe to call from the receive interrupt.
func (c *Console) Feed(data []byte) {
	c.lines.Feed(data)
}

// Poll executes every complete buffered line. Command errors are reported on
// the console output rather than aborting the loop.
func (c *Console) Poll() {
	for {
		line, ok := c.lines.NextLine()
		if !ok {
			return
		}
		if err := c.reg.Dispatch(line, c.out); err != nil {
			io.WriteString(c.out, "err "+err.Error()+"\n")
		}
	}
}
