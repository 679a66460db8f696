package core

import "errors"

// Connector registry
//
// Every hardware connector on the board (motor axes, digital and analog I/O,
// the expansion link) registers itself here and is refreshed once per sample
// tick, in registration order. The registry is a fixed array; connectors are
// created at program start and live for the process lifetime.

// Connector is the per-sample refresh interface shared by all connectors.
type Connector interface {
	// Refresh advances the connector by one sample period. Runs in the
	// sample interrupt; must be fast and must not allocate.
	Refresh()
}

// MaxConnectors is the size of the connector registry.
const MaxConnectors = 32

var (
	connectors     [MaxConnectors]Connector
	connectorCount uint8
)

// RegisterConnector adds a connector to the sample refresh loop.
func RegisterConnector(c Connector) error {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	if connectorCount >= MaxConnectors {
		return errors.New("connector registry full")
	}
	connectors[connectorCount] = c
	connectorCount++
	return nil
}

// ResetConnectors clears the registry (for tests and reinitialization).
func ResetConnectors() {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	for i := range connectors {
		connectors[i] = nil
	}
	connectorCount = 0
}

// refreshConnectors walks the registry once. Called from SampleTick.
func refreshConnectors() {
	for i := uint8(0); i < connectorCount; i++ {
		connectors[i].Refresh()
	}
}
