package utils

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/fyerfyer/fault-diag/pkg/circuit"
)

const (
	// SystemFileExt is the extension of system description files
	SystemFileExt = ".sys"
	// ObservationFileExt is the extension of observation files
	ObservationFileExt = ".obs"
)

// ErrMalformed is returned for descriptions that cannot be split into fields
var ErrMalformed = errors.New("malformed description")

// Observation is one observed input/output assignment
type Observation struct {
	System  string          `yaml:"system"`
	Index   int             `yaml:"index"`
	Inputs  map[string]bool `yaml:"inputs"`
	Outputs map[string]bool `yaml:"outputs"`
}

// ParseSystemFile reads a .sys file and returns its description
func ParseSystemFile(filename string) (circuit.Description, error) {
	if !strings.HasSuffix(filename, SystemFileExt) {
		return circuit.Description{}, fmt.Errorf("%w: %s is not a %s file", ErrMalformed, filename, SystemFileExt)
	}
	text, err := readJoined(filename)
	if err != nil {
		return circuit.Description{}, err
	}
	return ParseSystem(text)
}

// LoadCircuit parses and builds the circuit described by a .sys file
func LoadCircuit(filename string) (*circuit.Circuit, error) {
	desc, err := ParseSystemFile(filename)
	if err != nil {
		return nil, err
	}
	c, err := circuit.Build(desc)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s: %w", filename, err)
	}
	return c, nil
}

// ParseSystem parses a system description of the form
// name.[i1,...].[o1,...].[[type,name,out,in1,...],...].
func ParseSystem(text string) (circuit.Description, error) {
	sections := strings.Split(joinLines(text), ".")
	if len(sections) < 4 {
		return circuit.Description{}, fmt.Errorf("%w: expected 4 sections, got %d", ErrMalformed, len(sections))
	}

	desc := circuit.Description{
		Name:    strings.TrimSpace(strings.Trim(sections[0], "[] ")),
		Inputs:  splitList(sections[1]),
		Outputs: splitList(sections[2]),
	}

	gates := strings.TrimSpace(sections[3])
	if len(gates) >= 2 && gates[0] == '[' && gates[len(gates)-1] == ']' {
		gates = gates[1 : len(gates)-1]
	}
	for _, gateStr := range strings.Split(gates, "],") {
		params := splitList(gateStr)
		if len(params) == 0 {
			continue
		}
		if len(params) < 4 {
			return circuit.Description{}, fmt.Errorf("%w: gate declaration %q is too short", ErrMalformed, gateStr)
		}
		desc.Gates = append(desc.Gates, circuit.GateDecl{
			Type:   params[0],
			Name:   params[1],
			Output: params[2],
			Inputs: params[3:],
		})
	}

	return desc, nil
}

// ParseObservationsFile reads a .obs file
func ParseObservationsFile(filename string) ([]Observation, error) {
	text, err := readJoined(filename)
	if err != nil {
		return nil, err
	}
	return ParseObservations(text)
}

// ParseObservations parses records of the form [system,index,[-i1,i2,o1,...]].
// A leading '-' marks a 0; tokens starting with 'i' are inputs.
func ParseObservations(text string) ([]Observation, error) {
	observations := make([]Observation, 0)

	for _, record := range strings.Split(joinLines(text), ".") {
		record = strings.TrimSpace(record)
		if len(record) <= 1 {
			continue
		}

		body := strings.TrimPrefix(record, "[")
		open := strings.Index(body, "[")
		if open < 0 {
			return nil, fmt.Errorf("%w: observation %q has no wire list", ErrMalformed, record)
		}
		header := splitList(body[:open])
		if len(header) < 2 {
			return nil, fmt.Errorf("%w: observation %q needs system and index", ErrMalformed, record)
		}
		index, err := strconv.Atoi(header[1])
		if err != nil {
			return nil, fmt.Errorf("%w: bad observation index %q", ErrMalformed, header[1])
		}

		wires := body[open+1:]
		if end := strings.Index(wires, "]"); end >= 0 {
			wires = wires[:end]
		}

		obs := Observation{
			System:  header[0],
			Index:   index,
			Inputs:  make(map[string]bool),
			Outputs: make(map[string]bool),
		}
		for _, token := range splitList(wires) {
			value := !strings.HasPrefix(token, "-")
			name := strings.TrimLeft(token, "-")
			if name == "" {
				return nil, fmt.Errorf("%w: empty wire token in observation %d", ErrMalformed, index)
			}
			if name[0] == 'i' {
				obs.Inputs[name] = value
			} else {
				obs.Outputs[name] = value
			}
		}
		observations = append(observations, obs)
	}

	return observations, nil
}

// ParseAssignment parses "i1=1,i2=0" into a wire assignment
func ParseAssignment(s string) (map[string]bool, error) {
	assignment := make(map[string]bool)
	for _, pair := range splitList(s) {
		name, value, found := strings.Cut(pair, "=")
		if !found {
			return nil, fmt.Errorf("invalid assignment %q (expected: wire=value)", pair)
		}
		switch strings.TrimSpace(value) {
		case "0":
			assignment[strings.TrimSpace(name)] = false
		case "1":
			assignment[strings.TrimSpace(name)] = true
		default:
			return nil, fmt.Errorf("invalid value %q for %s (expected: 0 or 1)", value, name)
		}
	}
	return assignment, nil
}

// ParseGateList parses "gate1,gate7" into gate names
func ParseGateList(s string) []string {
	return splitList(s)
}

// WriteReport writes v to w as YAML
func WriteReport(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return enc.Close()
}

// readJoined reads a file and joins its trimmed lines into one string
func readJoined(filename string) (string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var builder strings.Builder
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		builder.WriteString(strings.TrimSpace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("error reading file: %w", err)
	}
	return builder.String(), nil
}

func joinLines(text string) string {
	var builder strings.Builder
	for _, line := range strings.Split(text, "\n") {
		builder.WriteString(strings.TrimSpace(line))
	}
	return builder.String()
}

// splitList strips brackets and splits on commas, dropping empty tokens
func splitList(s string) []string {
	s = strings.Trim(strings.TrimSpace(s), "[] ")
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	list := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(strings.Trim(p, "[] "))
		if p != "" {
			list = append(list, p)
		}
	}
	return list
}
