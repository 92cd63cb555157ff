package circuit

import (
	"sort"
)

// Topology contains information about the circuit structure
type Topology struct {
	Circuit      *Circuit
	LevelMap     map[string]int // Wire name to its level; inputs are level 0
	MaxLevel     int            // Maximum level in the circuit
	FanoutPoints []string       // Wires read by more than one gate
	Unleveled    []string       // Wires that never got a level (cyclic or undriven)
}

// NewTopology creates a new topology analyzer for the given circuit
func NewTopology(c *Circuit) *Topology {
	return &Topology{
		Circuit:  c,
		LevelMap: make(map[string]int),
	}
}

// Analyze performs a complete topological analysis of the circuit
func (t *Topology) Analyze() {
	t.ComputeLevels()
	t.IdentifyFanoutPoints()
	t.IdentifyUnleveled()
}

// ComputeLevels assigns a level to each wire in the circuit.
// Primary inputs are level 0, and levels increase toward outputs.
func (t *Topology) ComputeLevels() {
	t.LevelMap = make(map[string]int)
	t.MaxLevel = 0
	for _, input := range t.Circuit.Inputs {
		t.LevelMap[input.Name] = 0
	}

	// Keep processing gates until no more wires get levels
	changed := true
	for changed {
		changed = false

		for _, name := range t.Circuit.GateOrder {
			gate := t.Circuit.Gates[name]
			if _, hasLevel := t.LevelMap[gate.Output]; hasLevel {
				continue
			}

			allInputsHaveLevels := true
			maxInputLevel := -1
			for _, input := range gate.inputs {
				level, exists := t.LevelMap[input]
				if !exists {
					allInputsHaveLevels = false
					break
				}
				if level > maxInputLevel {
					maxInputLevel = level
				}
			}

			if allInputsHaveLevels {
				t.LevelMap[gate.Output] = maxInputLevel + 1
				if maxInputLevel+1 > t.MaxLevel {
					t.MaxLevel = maxInputLevel + 1
				}
				changed = true
			}
		}
	}
}

// IdentifyFanoutPoints identifies all wires feeding more than one gate
func (t *Topology) IdentifyFanoutPoints() {
	t.FanoutPoints = make([]string, 0)
	for name, wire := range t.Circuit.Wires {
		if len(wire.Fanout) > 1 {
			t.FanoutPoints = append(t.FanoutPoints, name)
		}
	}
	sort.Strings(t.FanoutPoints)
}

// IdentifyUnleveled lists wires left without a level by ComputeLevels.
// Evaluating an output that depends on one of them does not terminate
// (cycle) or fails (undriven wire).
func (t *Topology) IdentifyUnleveled() {
	t.Unleveled = make([]string, 0)
	for name := range t.Circuit.Wires {
		if _, ok := t.LevelMap[name]; !ok {
			t.Unleveled = append(t.Unleveled, name)
		}
	}
	sort.Strings(t.Unleveled)
}

// GatesByLevel returns gate names sorted by the level of the wire they
// produce, ties broken by declaration order
func (t *Topology) GatesByLevel() []string {
	order := make(map[string]int, len(t.Circuit.GateOrder))
	names := make([]string, 0, len(t.Circuit.GateOrder))
	for i, name := range t.Circuit.GateOrder {
		if _, ok := t.LevelMap[t.Circuit.Gates[name].Output]; !ok {
			continue
		}
		order[name] = i
		names = append(names, name)
	}

	sort.Slice(names, func(i, j int) bool {
		li := t.LevelMap[t.Circuit.Gates[names[i]].Output]
		lj := t.LevelMap[t.Circuit.Gates[names[j]].Output]
		if li != lj {
			return li < lj
		}
		return order[names[i]] < order[names[j]]
	})
	return names
}

// FanIn returns the names of all gates in the transitive fan-in of a wire
func (t *Topology) FanIn(wire string) []string {
	visited := make(map[string]bool)
	queue := []string{wire}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		gate := t.Circuit.Driver(current)
		if gate == nil || visited[gate.Name] {
			continue
		}
		visited[gate.Name] = true
		queue = append(queue, gate.inputs...)
	}

	gates := make([]string, 0, len(visited))
	for name := range visited {
		gates = append(gates, name)
	}
	sort.Strings(gates)
	return gates
}
