package algorithm

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/fyerfyer/fault-diag/pkg/circuit"
	"github.com/fyerfyer/fault-diag/pkg/utils"
)

var (
	// ErrMissingInput is returned when a declared input has no assigned value
	ErrMissingInput = errors.New("missing input assignment")
	// ErrUndrivenWire is returned when a referenced wire is neither an input nor produced by a gate
	ErrUndrivenWire = errors.New("wire has no driver")
	// ErrUnresolved is returned when a gate output cannot be computed
	ErrUnresolved = errors.New("gate output unresolved")
)

// FaultSet is a set of gate names whose output is inverted during a pass
type FaultSet map[string]struct{}

// NewFaultSet creates a fault set from gate names
func NewFaultSet(gates ...string) FaultSet {
	fs := make(FaultSet, len(gates))
	for _, g := range gates {
		fs[g] = struct{}{}
	}
	return fs
}

// Contains reports whether gate is faulty. A nil set contains nothing.
func (fs FaultSet) Contains(gate string) bool {
	_, ok := fs[gate]
	return ok
}

// Names returns the faulty gate names in sorted order
func (fs FaultSet) Names() []string {
	names := make([]string, 0, len(fs))
	for name := range fs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TraceFunc is called once for every gate resolved during a pass with the
// value that was memoized (after any fault inversion)
type TraceFunc func(gate *circuit.Gate, value bool, faulty bool)

// Stats contains statistics about simulator usage
type Stats struct {
	Passes          int           // Number of evaluation passes
	GateEvaluations int           // Number of gate resolutions
	MemoHits        int           // Wire reads served from the per-pass memo
	FaultsInjected  int           // Number of gate outputs inverted
	TotalTime       time.Duration // Total time spent evaluating
}

// Simulator evaluates a circuit for input assignments and fault hypotheses.
// It mutates the circuit in place and must not be used from more than one
// goroutine; see EvaluateBatch for concurrent evaluation.
type Simulator struct {
	Circuit *circuit.Circuit
	Logger  *utils.Logger
	Trace   TraceFunc
	Stats   Stats
}

// NewSimulator creates a simulator for the circuit. A nil logger disables logging.
func NewSimulator(c *circuit.Circuit, logger *utils.Logger) *Simulator {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &Simulator{
		Circuit: c,
		Logger:  logger,
	}
}

// pass holds the state of one evaluation
type pass struct {
	sim    *Simulator
	inputs map[string]bool
	faults FaultSet
	memo   map[string]bool
}

// Evaluate computes every declared output for the given inputs, inverting
// the output of each gate in faults. On success all resolved wires of the
// circuit hold this pass's values until the next call.
func (s *Simulator) Evaluate(inputs map[string]bool, faults FaultSet) (map[string]bool, error) {
	start := time.Now()
	defer func() {
		s.Stats.TotalTime += time.Since(start)
	}()
	s.Stats.Passes++

	c := s.Circuit
	c.Reset()

	for _, in := range c.Inputs {
		v, ok := inputs[in.Name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingInput, in.Name)
		}
		in.Value = circuit.FromBool(v)
	}

	p := &pass{
		sim:    s,
		inputs: inputs,
		faults: faults,
		memo:   make(map[string]bool, len(c.Wires)),
	}

	outputs := make(map[string]bool, len(c.Outputs))
	for _, out := range c.Outputs {
		v, err := p.resolveWire(out.Name)
		if err != nil {
			return nil, err
		}
		outputs[out.Name] = v
	}

	for name, v := range p.memo {
		c.Wires[name].Value = circuit.FromBool(v)
	}

	s.Logger.Algorithm("evaluation pass complete",
		zap.String("circuit", c.Name),
		zap.Int("resolved", len(p.memo)),
		zap.Strings("faults", faults.Names()))
	return outputs, nil
}

// resolveWire returns the value of a wire, computing its driver on a memo miss
func (p *pass) resolveWire(name string) (bool, error) {
	wire := p.sim.Circuit.GetWire(name)
	if wire != nil && wire.Kind == circuit.PrimaryInput {
		v, ok := p.inputs[name]
		if !ok {
			return false, fmt.Errorf("%w: %s", ErrMissingInput, name)
		}
		return v, nil
	}

	if v, ok := p.memo[name]; ok {
		p.sim.Stats.MemoHits++
		return v, nil
	}

	gate := p.sim.Circuit.Driver(name)
	if gate == nil {
		return false, fmt.Errorf("%w: %s", ErrUndrivenWire, name)
	}
	v, err := p.resolveGate(gate)
	if err != nil {
		return false, err
	}
	p.memo[name] = v
	return v, nil
}

// resolveGate writes every resolved input into the gate and returns its
// output, inverted when the gate is in the fault set
func (p *pass) resolveGate(gate *circuit.Gate) (bool, error) {
	for _, wire := range gate.Inputs() {
		v, err := p.resolveWire(wire)
		if err != nil {
			return false, err
		}
		gate.SetInput(wire, circuit.FromBool(v))
	}

	gate.Evaluate()
	faulty := p.faults.Contains(gate.Name)
	if faulty {
		gate.Invert()
		p.sim.Stats.FaultsInjected++
	}

	v, ok := gate.Value().Bool()
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnresolved, gate.Name)
	}

	p.sim.Stats.GateEvaluations++
	p.sim.Logger.Trace("gate resolved",
		zap.String("gate", gate.Name),
		zap.String("wire", gate.Output),
		zap.Bool("value", v),
		zap.Bool("faulty", faulty))
	if p.sim.Trace != nil {
		p.sim.Trace(gate, v, faulty)
	}
	return v, nil
}

// FaultEffect evaluates the circuit without and then with faults. It returns
// the faulty outputs and the names of the outputs that differ; the circuit
// is left holding the faulty pass.
func (s *Simulator) FaultEffect(inputs map[string]bool, faults FaultSet) (map[string]bool, []string, error) {
	good, err := s.Evaluate(inputs, nil)
	if err != nil {
		return nil, nil, err
	}
	bad, err := s.Evaluate(inputs, faults)
	if err != nil {
		return nil, nil, err
	}

	diff := make([]string, 0)
	for _, name := range s.Circuit.OutputNames() {
		if good[name] != bad[name] {
			diff = append(diff, name)
		}
	}
	return bad, diff, nil
}

// Mismatches returns the outputs whose simulated value differs from observed.
// Outputs missing from observed are ignored.
func Mismatches(simulated, observed map[string]bool) []string {
	diff := make([]string, 0)
	for name, want := range observed {
		if got, ok := simulated[name]; ok && got != want {
			diff = append(diff, name)
		}
	}
	sort.Strings(diff)
	return diff
}
