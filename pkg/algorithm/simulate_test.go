package algorithm

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/fyerfyer/fault-diag/pkg/circuit"
	"github.com/fyerfyer/fault-diag/pkg/utils"
)

// reconvergentSystem: z1 feeds gate2 and gate3, which reconverge at gate4.
// o1 = (!i1 & i2) | (!i1 & i3), o2 = !o1
const reconvergentSystem = `reconv.
[i1,i2,i3].
[o1,o2].
[[or2,gate4,o1,z2,z3],
[and2,gate2,z2,z1,i2],
[and2,gate3,z3,z1,i3],
[inverter,gate1,z1,i1],
[inverter,gate5,o2,o1]].`

func buildSystem(t *testing.T, text string) *circuit.Circuit {
	t.Helper()
	desc, err := utils.ParseSystem(text)
	require.NoError(t, err)
	c, err := circuit.Build(desc)
	require.NoError(t, err)
	return c
}

func newTestSimulator(t *testing.T, text string) *Simulator {
	t.Helper()
	return NewSimulator(buildSystem(t, text), utils.Wrap(zaptest.NewLogger(t)))
}

func assignment(names []string, row int) map[string]bool {
	a := make(map[string]bool, len(names))
	for i, name := range names {
		a[name] = row&(1<<i) != 0
	}
	return a
}

func TestEvaluateAndGate(t *testing.T) {
	sim := newTestSimulator(t, "S.[i1,i2].[o1].[and2,gate1,o1,i1,i2].")

	out, err := sim.Evaluate(map[string]bool{"i1": true, "i2": false}, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"o1": false}, out)

	out, err = sim.Evaluate(map[string]bool{"i1": true, "i2": true}, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"o1": true}, out)

	out, err = sim.Evaluate(map[string]bool{"i1": true, "i2": true}, NewFaultSet("gate1"))
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"o1": false}, out)
}

func TestEvaluateReconvergent(t *testing.T) {
	sim := newTestSimulator(t, reconvergentSystem)
	names := sim.Circuit.InputNames()

	for row := 0; row < 8; row++ {
		in := assignment(names, row)
		want := (!in["i1"] && in["i2"]) || (!in["i1"] && in["i3"])

		out, err := sim.Evaluate(in, nil)
		require.NoError(t, err)
		assert.Equal(t, want, out["o1"], "row %d", row)
		assert.Equal(t, !want, out["o2"], "row %d", row)
	}
}

func TestSharedWireComputedOnce(t *testing.T) {
	sim := newTestSimulator(t, reconvergentSystem)
	counts := make(map[string]int)
	sim.Trace = func(g *circuit.Gate, value bool, faulty bool) {
		counts[g.Name]++
	}

	for pass := 1; pass <= 3; pass++ {
		_, err := sim.Evaluate(map[string]bool{"i1": false, "i2": true, "i3": true}, nil)
		require.NoError(t, err)
		for _, name := range sim.Circuit.GateOrder {
			assert.Equal(t, pass, counts[name], "gate %s after pass %d", name, pass)
		}
	}

	assert.Equal(t, 3, sim.Stats.Passes)
	assert.Equal(t, 15, sim.Stats.GateEvaluations)
	// Per pass: gate3 reads the memoized z1 and gate5 the memoized o1
	assert.Equal(t, 6, sim.Stats.MemoHits)
}

func TestFaultOnSharedWireIsConsistent(t *testing.T) {
	sim := newTestSimulator(t, reconvergentSystem)
	in := map[string]bool{"i1": true, "i2": true, "i3": false}

	_, err := sim.Evaluate(in, NewFaultSet("gate1"))
	require.NoError(t, err)

	// !i1 is 0; the faulty inverter drives 1 to both readers
	for _, reader := range []string{"gate2", "gate3"} {
		v, ok := sim.Circuit.GetGate(reader).Input("z1")
		require.True(t, ok)
		assert.Equal(t, circuit.One, v, "%s sees the faulty z1", reader)
	}
	assert.Equal(t, circuit.One, sim.Circuit.GetWire("z1").Value)
	assert.Equal(t, circuit.One, sim.Circuit.GetWire("z2").Value)
	assert.Equal(t, circuit.Zero, sim.Circuit.GetWire("z3").Value)
	assert.Equal(t, 1, sim.Stats.FaultsInjected)
}

func TestFaultComplementsGateContribution(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	sim := NewSimulator(buildSystem(t, reconvergentSystem), nil)
	names := sim.Circuit.InputNames()

	properties.Property("a faulty gate drives the complement of its good value", prop.ForAll(
		func(row int, gateIdx int) bool {
			in := assignment(names, row)
			gate := sim.Circuit.GateOrder[gateIdx]
			wire := sim.Circuit.GetGate(gate).Output

			if _, err := sim.Evaluate(in, nil); err != nil {
				return false
			}
			good := sim.Circuit.Values()

			if _, err := sim.Evaluate(in, NewFaultSet(gate)); err != nil {
				return false
			}
			bad := sim.Circuit.Values()

			if bad[wire] != good[wire].Not() {
				return false
			}
			// Wires outside the faulty gate's fan-out are untouched
			for _, other := range sim.Circuit.GateOrder {
				w := sim.Circuit.GetGate(other).Output
				if !dependsOn(sim.Circuit, w, wire) && w != wire && bad[w] != good[w] {
					return false
				}
			}
			return true
		},
		gen.IntRange(0, 7),
		gen.IntRange(0, len(sim.Circuit.GateOrder)-1),
	))

	properties.TestingRun(t)
}

// dependsOn reports whether wire w is in the transitive fan-out of src
func dependsOn(c *circuit.Circuit, w, src string) bool {
	g := c.Driver(w)
	if g == nil {
		return false
	}
	for _, in := range g.Inputs() {
		if in == src || dependsOn(c, in, src) {
			return true
		}
	}
	return false
}

func TestOutputFaultInvertsOutput(t *testing.T) {
	sim := newTestSimulator(t, reconvergentSystem)
	names := sim.Circuit.InputNames()

	for row := 0; row < 8; row++ {
		in := assignment(names, row)
		good, err := sim.Evaluate(in, nil)
		require.NoError(t, err)
		bad, affected, err := sim.FaultEffect(in, NewFaultSet("gate5"))
		require.NoError(t, err)

		assert.Equal(t, good["o1"], bad["o1"])
		assert.Equal(t, !good["o2"], bad["o2"])
		assert.Equal(t, []string{"o2"}, affected)
	}
}

func TestDeclarationOrderIndependent(t *testing.T) {
	base := buildSystem(t, reconvergentSystem)
	desc, err := utils.ParseSystem(reconvergentSystem)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(7))
	for shuffle := 0; shuffle < 10; shuffle++ {
		rng.Shuffle(len(desc.Gates), func(i, j int) {
			desc.Gates[i], desc.Gates[j] = desc.Gates[j], desc.Gates[i]
		})
		shuffled, err := circuit.Build(desc)
		require.NoError(t, err)

		a, b := NewSimulator(base, nil), NewSimulator(shuffled, nil)
		for row := 0; row < 8; row++ {
			in := assignment(base.InputNames(), row)
			want, err := a.Evaluate(in, NewFaultSet("gate2"))
			require.NoError(t, err)
			got, err := b.Evaluate(in, NewFaultSet("gate2"))
			require.NoError(t, err)
			assert.Equal(t, want, got, "shuffle %d row %d", shuffle, row)
		}
	}
}

func TestInternalWiresObservable(t *testing.T) {
	sim := newTestSimulator(t, reconvergentSystem)

	_, err := sim.Evaluate(map[string]bool{"i1": false, "i2": true, "i3": false}, nil)
	require.NoError(t, err)
	assert.Equal(t, circuit.One, sim.Circuit.GetWire("z1").Value)
	assert.Equal(t, circuit.One, sim.Circuit.GetWire("z2").Value)
	assert.Equal(t, circuit.Zero, sim.Circuit.GetWire("z3").Value)

	// A new pass recomputes rather than reusing stale values
	_, err = sim.Evaluate(map[string]bool{"i1": true, "i2": true, "i3": false}, nil)
	require.NoError(t, err)
	assert.Equal(t, circuit.Zero, sim.Circuit.GetWire("z1").Value)
	assert.Equal(t, circuit.Zero, sim.Circuit.GetWire("z2").Value)
	assert.Equal(t, circuit.One, sim.Circuit.GetWire("o2").Value)
}

func TestEvaluateErrors(t *testing.T) {
	sim := newTestSimulator(t, reconvergentSystem)
	_, err := sim.Evaluate(map[string]bool{"i1": true, "i2": true}, nil)
	assert.ErrorIs(t, err, ErrMissingInput)

	dangling := newTestSimulator(t, "D.[i1].[o1].[and2,gate1,o1,i1,z7].")
	_, err = dangling.Evaluate(map[string]bool{"i1": true}, nil)
	assert.ErrorIs(t, err, ErrUndrivenWire)
	assert.Contains(t, err.Error(), "z7")
}

func TestExtraAssignmentsIgnored(t *testing.T) {
	sim := newTestSimulator(t, "S.[i1].[o1].[inverter,gate1,o1,i1].")
	out, err := sim.Evaluate(map[string]bool{"i1": true, "o1": true, "i9": false}, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"o1": false}, out)
}

func TestMismatches(t *testing.T) {
	simulated := map[string]bool{"o1": true, "o2": false, "o3": true}
	observed := map[string]bool{"o1": true, "o2": true, "o3": false, "o4": true}
	assert.Equal(t, []string{"o2", "o3"}, Mismatches(simulated, observed))
	assert.Empty(t, Mismatches(simulated, simulated))
}

func TestFaultSet(t *testing.T) {
	var none FaultSet
	assert.False(t, none.Contains("gate1"))
	assert.Empty(t, none.Names())

	fs := NewFaultSet("gate9", "gate1", "gate9")
	assert.True(t, fs.Contains("gate1"))
	assert.Equal(t, []string{"gate1", "gate9"}, fs.Names())
}

func ExampleSimulator_Evaluate() {
	desc, _ := utils.ParseSystem("S.[i1,i2].[o1].[and2,gate1,o1,i1,i2].")
	c, _ := circuit.Build(desc)
	sim := NewSimulator(c, nil)

	out, _ := sim.Evaluate(map[string]bool{"i1": true, "i2": true}, nil)
	fmt.Println(out["o1"])
	out, _ = sim.Evaluate(map[string]bool{"i1": true, "i2": true}, NewFaultSet("gate1"))
	fmt.Println(out["o1"])
	// Output:
	// true
	// false
}
