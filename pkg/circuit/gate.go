package circuit

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrUnknownGateType is returned for gate tokens that name no known variant
	ErrUnknownGateType = errors.New("unknown gate type")
	// ErrArity is returned when a gate gets an input count it cannot take
	ErrArity = errors.New("invalid gate arity")
)

// GateType represents the type of logic gate
type GateType int

const (
	AND GateType = iota
	OR
	NAND
	NOR
	XOR
	BUFFER
	INVERTER
)

// String returns a string representation of the gate type
func (gt GateType) String() string {
	switch gt {
	case AND:
		return "AND"
	case OR:
		return "OR"
	case NAND:
		return "NAND"
	case NOR:
		return "NOR"
	case XOR:
		return "XOR"
	case BUFFER:
		return "BUFFER"
	case INVERTER:
		return "INVERTER"
	default:
		return "UNKNOWN"
	}
}

// IsUnary reports whether the gate type takes exactly one input
func (gt GateType) IsUnary() bool {
	return gt == BUFFER || gt == INVERTER
}

// ParseGateType converts a type prefix such as "nand" into a GateType
func ParseGateType(token string) (GateType, error) {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "and":
		return AND, nil
	case "or":
		return OR, nil
	case "nand":
		return NAND, nil
	case "nor":
		return NOR, nil
	case "xor":
		return XOR, nil
	case "buffer":
		return BUFFER, nil
	case "inverter":
		return INVERTER, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownGateType, token)
	}
}

// ParseGateToken splits a token like "and3" into its type and input count.
// Tokens without a digit suffix ("inverter") take one input.
func ParseGateToken(token string) (GateType, int, error) {
	token = strings.TrimSpace(token)
	idx := strings.IndexAny(token, "0123456789")
	if idx < 0 {
		gt, err := ParseGateType(token)
		return gt, 1, err
	}

	gt, err := ParseGateType(token[:idx])
	if err != nil {
		return 0, 0, err
	}
	n, err := strconv.Atoi(token[idx:])
	if err != nil || n < 1 {
		return 0, 0, fmt.Errorf("%w: bad input count in %q", ErrArity, token)
	}
	return gt, n, nil
}

// Gate represents one placed logic gate in the circuit
type Gate struct {
	Name   string   // Instance name, e.g. "gate27"
	Type   GateType // Type of the gate
	Output string   // Name of the wire this gate produces

	inputs []string     // Input wire names in declaration order
	values []LogicValue // Current value of each input pin
	out    LogicValue   // Cached output
}

// NewGate creates a gate reading the given wires. Unary types must get
// exactly one input, the rest at least one.
func NewGate(name string, gateType GateType, output string, inputs []string) (*Gate, error) {
	if gateType < AND || gateType > INVERTER {
		return nil, fmt.Errorf("%w: %d", ErrUnknownGateType, int(gateType))
	}
	if gateType.IsUnary() && len(inputs) != 1 {
		return nil, fmt.Errorf("%w: %s %s takes 1 input, got %d", ErrArity, gateType, name, len(inputs))
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: %s %s has no inputs", ErrArity, gateType, name)
	}

	g := &Gate{
		Name:   name,
		Type:   gateType,
		Output: output,
		inputs: append([]string(nil), inputs...),
		values: make([]LogicValue, len(inputs)),
	}
	g.Evaluate()
	return g, nil
}

// String returns a string representation of the gate
func (g *Gate) String() string {
	return fmt.Sprintf("%s(%s)", g.Name, g.Type.String())
}

// Inputs returns the input wire names in declaration order
func (g *Gate) Inputs() []string {
	return append([]string(nil), g.inputs...)
}

// InputValues returns the current value of every distinct input wire
func (g *Gate) InputValues() map[string]LogicValue {
	values := make(map[string]LogicValue, len(g.inputs))
	for i, wire := range g.inputs {
		values[wire] = g.values[i]
	}
	return values
}

// Input returns the current value of an input wire
func (g *Gate) Input(wire string) (LogicValue, bool) {
	for i, name := range g.inputs {
		if name == wire {
			return g.values[i], true
		}
	}
	return X, false
}

// SetInput assigns a value to every pin bound to wire and recomputes the
// output. It returns false if the gate does not read wire.
func (g *Gate) SetInput(wire string, value LogicValue) bool {
	found := false
	for i, name := range g.inputs {
		if name == wire {
			g.values[i] = value
			found = true
		}
	}
	if found {
		g.Evaluate()
	}
	return found
}

// Value returns the cached output
func (g *Gate) Value() LogicValue {
	return g.out
}

// Invert flips the cached output. It is undone by the next SetInput.
func (g *Gate) Invert() {
	g.out = g.out.Not()
}

// Reset clears all input values and the output to X
func (g *Gate) Reset() {
	for i := range g.values {
		g.values[i] = X
	}
	g.out = X
}

// Evaluate computes the output value of the gate based on its inputs
func (g *Gate) Evaluate() LogicValue {
	switch g.Type {
	case AND:
		g.out = g.evaluateAND()
	case OR:
		g.out = g.evaluateOR()
	case NAND:
		g.out = g.evaluateAND().Not()
	case NOR:
		g.out = g.evaluateOR().Not()
	case XOR:
		g.out = g.evaluateXOR()
	case BUFFER:
		g.out = g.values[0]
	case INVERTER:
		g.out = g.values[0].Not()
	default:
		g.out = X
	}
	return g.out
}

func (g *Gate) evaluateAND() LogicValue {
	result := One
	for _, v := range g.values {
		switch v {
		case Zero:
			return Zero // Short-circuit for AND gate
		case X:
			result = X
		}
	}
	return result
}

func (g *Gate) evaluateOR() LogicValue {
	result := Zero
	for _, v := range g.values {
		switch v {
		case One:
			return One // Short-circuit for OR gate
		case X:
			result = X
		}
	}
	return result
}

// evaluateXOR is odd parity over any number of inputs
func (g *Gate) evaluateXOR() LogicValue {
	ones := 0
	for _, v := range g.values {
		switch v {
		case X:
			return X
		case One:
			ones++
		}
	}
	if ones%2 == 1 {
		return One
	}
	return Zero
}

// IsInputsAssigned returns true if all inputs have non-X values
func (g *Gate) IsInputsAssigned() bool {
	for _, v := range g.values {
		if !v.IsAssigned() {
			return false
		}
	}
	return true
}

func (g *Gate) clone() *Gate {
	return &Gate{
		Name:   g.Name,
		Type:   g.Type,
		Output: g.Output,
		inputs: append([]string(nil), g.inputs...),
		values: append([]LogicValue(nil), g.values...),
		out:    g.out,
	}
}
