// Package console implements the line-based ASCII command console exposed
// over the board's serial port. One line is one command: a name followed by
// whitespace-separated arguments, shell-style quoting allowed.
package console

import (
	"errors"
	"strconv"
	"strings"

	"github.com/google/shlex"
)

var (
	ErrEmptyLine = errors.New("console: empty line")
	ErrBadArg    = errors.New("console: bad argument")
	ErrArgCount  = errors.New("console: wrong argument count")
)

// Command is one parsed console line.
type Command struct {
	Name string
	Args []string
}

// ParseLine tokenizes one console line. Comments start with '#' and run to
// the end of the line. Returns nil for blank lines and pure comments.
func ParseLine(line string) (*Command, error) {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, nil
	}

	tokens, err := shlex.Split(line)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, nil
	}
	return &Command{
		Name: strings.ToLower(tokens[0]),
		Args: tokens[1:],
	}, nil
}

// Int32Arg parses argument i as a signed 32-bit integer.
func (c *Command) Int32Arg(i int) (int32, error) {
	if i >= len(c.Args) {
		return 0, ErrArgCount
	}
	v, err := strconv.ParseInt(c.Args[i], 10, 32)
	if err != nil {
		return 0, ErrBadArg
	}
	return int32(v), nil
}

// UintArg parses argument i as an unsigned 32-bit integer.
func (c *Command) UintArg(i int) (uint32, error) {
	if i >= len(c.Args) {
		return 0, ErrArgCount
	}
	v, err := strconv.ParseUint(c.Args[i], 10, 32)
	if err != nil {
		return 0, ErrBadArg
	}
	return uint32(v), nil
}

// StringArg returns argument i, or the default when absent.
func (c *Command) StringArg(i int, def string) string {
	if i >= len(c.Args) {
		return def
	}
	return c.Args[i]
}
