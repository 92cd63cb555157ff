package circuit

import (
	"fmt"
)

// LogicValue represents the possible values for a wire
type LogicValue int

const (
	X    LogicValue = iota // Unknown/unset
	Zero                   // Logic 0
	One                    // Logic 1
)

// FromBool converts a boolean into a logic value
func FromBool(b bool) LogicValue {
	if b {
		return One
	}
	return Zero
}

// Bool returns the boolean form of the value; ok is false for X
func (v LogicValue) Bool() (value bool, ok bool) {
	switch v {
	case Zero:
		return false, true
	case One:
		return true, true
	default:
		return false, false
	}
}

// Not returns the complement of the value. X stays X.
func (v LogicValue) Not() LogicValue {
	switch v {
	case Zero:
		return One
	case One:
		return Zero
	default:
		return X
	}
}

// IsAssigned returns true if the value is 0 or 1
func (v LogicValue) IsAssigned() bool {
	return v == Zero || v == One
}

// String returns a string representation of the logic value
func (v LogicValue) String() string {
	switch v {
	case X:
		return "X"
	case Zero:
		return "0"
	case One:
		return "1"
	default:
		return "?"
	}
}

// WireKind represents the classification of a wire in the circuit
type WireKind int

const (
	Internal WireKind = iota // "zed" wire between gates
	PrimaryInput
	PrimaryOutput
)

// String returns a string representation of the wire kind
func (k WireKind) String() string {
	switch k {
	case Internal:
		return "internal"
	case PrimaryInput:
		return "input"
	case PrimaryOutput:
		return "output"
	default:
		return "unknown"
	}
}

// Wire represents a named signal in the circuit
type Wire struct {
	Name   string     // Name of the wire
	Kind   WireKind   // Input, output or internal
	Value  LogicValue // Current value
	Driver string     // Name of the gate producing this wire ("" for inputs)
	Fanout []string   // Names of gates reading this wire
}

// NewWire creates a new unset wire
func NewWire(name string, kind WireKind) *Wire {
	return &Wire{
		Name:   name,
		Kind:   kind,
		Value:  X,
		Fanout: make([]string, 0),
	}
}

// Reset resets the wire value to X
func (w *Wire) Reset() {
	w.Value = X
}

// IsAssigned returns true if the wire has a definite value (not X)
func (w *Wire) IsAssigned() bool {
	return w.Value.IsAssigned()
}

// String returns a string representation of the wire
func (w *Wire) String() string {
	return fmt.Sprintf("%s=%s", w.Name, w.Value)
}

func (w *Wire) addFanout(gate string) {
	for _, g := range w.Fanout {
		if g == gate {
			return
		}
	}
	w.Fanout = append(w.Fanout, gate)
}
