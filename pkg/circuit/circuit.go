package circuit

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDuplicateGate is returned when two gates share an instance name
	ErrDuplicateGate = errors.New("duplicate gate name")
	// ErrMultipleDrivers is returned when a wire is produced by more than one gate
	ErrMultipleDrivers = errors.New("wire has multiple drivers")
	// ErrDrivesInput is returned when a gate produces a declared input
	ErrDrivesInput = errors.New("gate drives a primary input")
)

// GateDecl is one gate declaration of a system description
type GateDecl struct {
	Type   string   // Gate type token, e.g. "and3" or "inverter"
	Name   string   // Instance name
	Output string   // Produced wire
	Inputs []string // Input wire references
}

// Description is the structural form of a system file
type Description struct {
	Name    string
	Inputs  []string
	Outputs []string
	Gates   []GateDecl
}

// Circuit represents a combinational system of gates and wires
type Circuit struct {
	Name      string
	Gates     map[string]*Gate
	Wires     map[string]*Wire
	Inputs    []*Wire
	Outputs   []*Wire
	Internals []*Wire  // Internal ("zed") wires in declaration order
	GateOrder []string // Gate names in declaration order
}

// NewCircuit creates a new circuit with the given name
func NewCircuit(name string) *Circuit {
	return &Circuit{
		Name:      name,
		Gates:     make(map[string]*Gate),
		Wires:     make(map[string]*Wire),
		Inputs:    make([]*Wire, 0),
		Outputs:   make([]*Wire, 0),
		Internals: make([]*Wire, 0),
		GateOrder: make([]string, 0),
	}
}

// Build turns a description into a circuit. Any error aborts the build and
// no circuit is returned.
func Build(desc Description) (*Circuit, error) {
	c := NewCircuit(desc.Name)

	for _, name := range desc.Inputs {
		c.AddInput(name)
	}
	for _, name := range desc.Outputs {
		c.AddOutput(name)
	}

	for _, decl := range desc.Gates {
		gateType, count, err := ParseGateToken(decl.Type)
		if err != nil {
			return nil, fmt.Errorf("gate %s: %w", decl.Name, err)
		}
		if len(decl.Inputs) < count {
			return nil, fmt.Errorf("%w: gate %s declares %d inputs, lists %d",
				ErrArity, decl.Name, count, len(decl.Inputs))
		}

		gate, err := NewGate(decl.Name, gateType, decl.Output, decl.Inputs[:count])
		if err != nil {
			return nil, err
		}
		if err := c.AddGate(gate); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// AddInput declares a primary input wire
func (c *Circuit) AddInput(name string) *Wire {
	w := c.wire(name, PrimaryInput)
	w.Kind = PrimaryInput
	c.Inputs = append(c.Inputs, w)
	return w
}

// AddOutput declares a primary output wire
func (c *Circuit) AddOutput(name string) *Wire {
	w := c.wire(name, PrimaryOutput)
	w.Kind = PrimaryOutput
	c.Outputs = append(c.Outputs, w)
	return w
}

// AddGate places a gate in the circuit. A produced wire that is not a
// declared output becomes an internal wire.
func (c *Circuit) AddGate(gate *Gate) error {
	if _, exists := c.Gates[gate.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateGate, gate.Name)
	}

	out := c.wire(gate.Output, Internal)
	switch {
	case out.Kind == PrimaryInput:
		return fmt.Errorf("%w: %s drives %s", ErrDrivesInput, gate.Name, out.Name)
	case out.Driver != "":
		return fmt.Errorf("%w: %s driven by %s and %s", ErrMultipleDrivers, out.Name, out.Driver, gate.Name)
	}
	out.Driver = gate.Name

	for _, name := range gate.inputs {
		c.wire(name, Internal).addFanout(gate.Name)
	}

	c.Gates[gate.Name] = gate
	c.GateOrder = append(c.GateOrder, gate.Name)
	return nil
}

// wire returns the named wire, creating it with the given kind if needed.
// New internal wires are appended to Internals.
func (c *Circuit) wire(name string, kind WireKind) *Wire {
	if w, exists := c.Wires[name]; exists {
		if w.Kind == Internal && kind != Internal {
			c.dropInternal(name)
		}
		return w
	}
	w := NewWire(name, kind)
	c.Wires[name] = w
	if kind == Internal {
		c.Internals = append(c.Internals, w)
	}
	return w
}

func (c *Circuit) dropInternal(name string) {
	for i, w := range c.Internals {
		if w.Name == name {
			c.Internals = append(c.Internals[:i], c.Internals[i+1:]...)
			return
		}
	}
}

// GetGate returns a gate by name
func (c *Circuit) GetGate(name string) *Gate {
	return c.Gates[name]
}

// GetWire returns a wire by name
func (c *Circuit) GetWire(name string) *Wire {
	return c.Wires[name]
}

// Driver returns the gate producing the named wire, or nil
func (c *Circuit) Driver(wire string) *Gate {
	w, ok := c.Wires[wire]
	if !ok || w.Driver == "" {
		return nil
	}
	return c.Gates[w.Driver]
}

// InputNames returns declared input names in order
func (c *Circuit) InputNames() []string {
	return wireNames(c.Inputs)
}

// OutputNames returns declared output names in order
func (c *Circuit) OutputNames() []string {
	return wireNames(c.Outputs)
}

func wireNames(wires []*Wire) []string {
	names := make([]string, len(wires))
	for i, w := range wires {
		names[i] = w.Name
	}
	return names
}

// Reset clears internal and output wires and all gate state to X.
// Input wires keep their values.
func (c *Circuit) Reset() {
	for _, w := range c.Wires {
		if w.Kind != PrimaryInput {
			w.Reset()
		}
	}
	for _, g := range c.Gates {
		g.Reset()
	}
}

// Clone returns an independent copy sharing no mutable state with c
func (c *Circuit) Clone() *Circuit {
	clone := NewCircuit(c.Name)
	for name, w := range c.Wires {
		cw := *w
		cw.Fanout = append([]string(nil), w.Fanout...)
		clone.Wires[name] = &cw
	}
	for _, w := range c.Inputs {
		clone.Inputs = append(clone.Inputs, clone.Wires[w.Name])
	}
	for _, w := range c.Outputs {
		clone.Outputs = append(clone.Outputs, clone.Wires[w.Name])
	}
	for _, w := range c.Internals {
		clone.Internals = append(clone.Internals, clone.Wires[w.Name])
	}
	for _, name := range c.GateOrder {
		clone.Gates[name] = c.Gates[name].clone()
		clone.GateOrder = append(clone.GateOrder, name)
	}
	return clone
}

// Values returns the current value of every wire
func (c *Circuit) Values() map[string]LogicValue {
	values := make(map[string]LogicValue, len(c.Wires))
	for name, w := range c.Wires {
		values[name] = w.Value
	}
	return values
}

// String returns a string representation of the circuit state
func (c *Circuit) String() string {
	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("Circuit: %s\n", c.Name))

	builder.WriteString("Inputs: ")
	for _, in := range c.Inputs {
		builder.WriteString(fmt.Sprintf("%s ", in))
	}

	builder.WriteString("\nOutputs: ")
	for _, out := range c.Outputs {
		builder.WriteString(fmt.Sprintf("%s ", out))
	}

	builder.WriteString("\nInternal: ")
	for _, z := range c.Internals {
		builder.WriteString(fmt.Sprintf("%s ", z))
	}

	builder.WriteString("\nGates: ")
	for _, name := range c.GateOrder {
		builder.WriteString(fmt.Sprintf("%s ", c.Gates[name]))
	}

	return builder.String()
}
