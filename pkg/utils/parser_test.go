package utils

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyerfyer/fault-diag/pkg/circuit"
)

const sampleSystem = `74182.
[i1,i2,i3].
[o1,o2].
[[nand2,gate1,z1,i1,i2],
 [inverter,gate2,z2,i3],
 [or3,gate3,o1,z1,z2,i1],
 [buffer,gate4,o2,z1]].`

func TestParseSystem(t *testing.T) {
	desc, err := ParseSystem(sampleSystem)
	require.NoError(t, err)

	want := circuit.Description{
		Name:    "74182",
		Inputs:  []string{"i1", "i2", "i3"},
		Outputs: []string{"o1", "o2"},
		Gates: []circuit.GateDecl{
			{Type: "nand2", Name: "gate1", Output: "z1", Inputs: []string{"i1", "i2"}},
			{Type: "inverter", Name: "gate2", Output: "z2", Inputs: []string{"i3"}},
			{Type: "or3", Name: "gate3", Output: "o1", Inputs: []string{"z1", "z2", "i1"}},
			{Type: "buffer", Name: "gate4", Output: "o2", Inputs: []string{"z1"}},
		},
	}
	if diff := cmp.Diff(want, desc); diff != "" {
		t.Errorf("ParseSystem mismatch (-want +got):\n%s", diff)
	}
}

func TestParseSystemSingleGate(t *testing.T) {
	desc, err := ParseSystem("S.[i1,i2].[o1].[and2,gate1,o1,i1,i2].")
	require.NoError(t, err)
	require.Len(t, desc.Gates, 1)
	assert.Equal(t, circuit.GateDecl{Type: "and2", Name: "gate1", Output: "o1", Inputs: []string{"i1", "i2"}}, desc.Gates[0])
}

func TestParseSystemErrors(t *testing.T) {
	_, err := ParseSystem("S.[i1].[o1]")
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = ParseSystem("S.[i1].[o1].[[and2,gate1]].")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestLoadCircuit(t *testing.T) {
	dir := t.TempDir()
	sysFile := filepath.Join(dir, "74182.sys")
	require.NoError(t, os.WriteFile(sysFile, []byte(sampleSystem), 0644))

	c, err := LoadCircuit(sysFile)
	require.NoError(t, err)
	assert.Equal(t, "74182", c.Name)
	assert.Len(t, c.Gates, 4)
	assert.Len(t, c.Internals, 2)

	bad := filepath.Join(dir, "bad.sys")
	require.NoError(t, os.WriteFile(bad, []byte("B.[i1].[o1].[[mux2,gate1,o1,i1,i1]]."), 0644))
	_, err = LoadCircuit(bad)
	assert.ErrorIs(t, err, circuit.ErrUnknownGateType)

	_, err = LoadCircuit(filepath.Join(dir, "74182.txt"))
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = LoadCircuit(filepath.Join(dir, "missing.sys"))
	assert.Error(t, err)
}

func TestParseObservations(t *testing.T) {
	text := `[74182,1,[-i1,i2,-i3,o1,-o2]].
[74182,2,
 [i1,i2,i3,-o1,o2]].
`
	obs, err := ParseObservations(text)
	require.NoError(t, err)
	require.Len(t, obs, 2)

	assert.Equal(t, Observation{
		System:  "74182",
		Index:   1,
		Inputs:  map[string]bool{"i1": false, "i2": true, "i3": false},
		Outputs: map[string]bool{"o1": true, "o2": false},
	}, obs[0])
	assert.Equal(t, 2, obs[1].Index)
	assert.Equal(t, map[string]bool{"o1": false, "o2": true}, obs[1].Outputs)
}

func TestParseObservationsErrors(t *testing.T) {
	_, err := ParseObservations("[74182,x,[i1,o1]].")
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = ParseObservations("[74182,1].")
	assert.ErrorIs(t, err, ErrMalformed)

	obs, err := ParseObservations("\n\n")
	require.NoError(t, err)
	assert.Empty(t, obs)
}

func TestParseObservationsFile(t *testing.T) {
	obsFile := filepath.Join(t.TempDir(), "74182.obs")
	require.NoError(t, os.WriteFile(obsFile, []byte("[74182,3,[i1,-o1]].\r\n"), 0644))

	obs, err := ParseObservationsFile(obsFile)
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.Equal(t, 3, obs[0].Index)
	assert.Equal(t, map[string]bool{"i1": true}, obs[0].Inputs)
}

func TestParseAssignment(t *testing.T) {
	a, err := ParseAssignment("i1=1, i2=0,i3=1")
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"i1": true, "i2": false, "i3": true}, a)

	_, err = ParseAssignment("i1")
	assert.Error(t, err)
	_, err = ParseAssignment("i1=x")
	assert.Error(t, err)

	assert.Equal(t, []string{"gate1", "gate7"}, ParseGateList(" gate1 ,gate7,"))
	assert.Empty(t, ParseGateList(""))
}

func TestWriteReport(t *testing.T) {
	var buf bytes.Buffer
	err := WriteReport(&buf, map[string]any{"system": "S", "outputs": map[string]bool{"o1": true}})
	require.NoError(t, err)
	assert.Equal(t, "outputs:\n  o1: true\nsystem: S\n", buf.String())
}
