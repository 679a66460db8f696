package console

import (
	"errors"
	"io"
	"sync"
)

// Handler executes one console command and writes its reply to w.
type Handler func(cmd *Command, w io.Writer) error

// Registry maps command names to handlers.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

var globalRegistry = NewRegistry()

// NewRegistry creates an empty command registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register adds a command handler. Later registrations of the same name win,
// so applications can override the built-in commands.
func Register(name string, handler Handler) {
	globalRegistry.Register(name, handler)
}

// Register adds a command handler to this registry.
func (r *Registry) Register(name string, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = handler
}

// Dispatch parses one line and runs its handler.
func Dispatch(line string, w io.Writer) error {
	return globalRegistry.Dispatch(line, w)
}

// Dispatch parses one line and runs its handler.
func (r *Registry) Dispatch(line string, w io.Writer) error {
	cmd, err := ParseLine(line)
	if err != nil {
		return err
	}
	if cmd == nil {
		return nil
	}

	r.mu.RLock()
	handler, ok := r.handlers[cmd.Name]
	r.mu.RUnlock()
	if !ok {
		return errors.New("console: unknown command " + cmd.Name)
	}
	return handler(cmd, w)
}
