package algorithm

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// MaxOutputs bounds the table size at 2^MaxOutputs entries
const MaxOutputs = 24

// DefaultReliability is the per-bit probability that a sensor reads correctly
const DefaultReliability = 0.9

var (
	// ErrReliability is returned for a reliability outside (0,1)
	ErrReliability = errors.New("reliability must be in (0,1)")
	// ErrMissingObservation is returned when an output has no observed value
	ErrMissingObservation = errors.New("missing observed output")
	// ErrTooManyOutputs is returned when the table would exceed 2^MaxOutputs entries
	ErrTooManyOutputs = errors.New("too many outputs")
)

// ProbabilityTable maps an output bit-vector such as "0110" to its likelihood
type ProbabilityTable map[string]float64

// GenerateOutputProbabilities enumerates every output vector for the
// observed outputs o1..ok, where k is the number of observed outputs.
// Bit i of a key (from the left, 1-based) is output "o<i>".
func GenerateOutputProbabilities(observed map[string]bool, reliability float64) (ProbabilityTable, error) {
	names := make([]string, len(observed))
	for i := range names {
		names[i] = "o" + strconv.Itoa(i+1)
	}
	return OutputProbabilities(names, observed, reliability)
}

// OutputProbabilities enumerates all 2^k vectors over names in binary
// counting order. Each bit contributes reliability when it agrees with the
// observed value and 1-reliability otherwise.
func OutputProbabilities(names []string, observed map[string]bool, reliability float64) (ProbabilityTable, error) {
	if !(reliability > 0 && reliability < 1) {
		return nil, fmt.Errorf("%w: got %v", ErrReliability, reliability)
	}
	k := len(names)
	if k > MaxOutputs {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyOutputs, k, MaxOutputs)
	}

	want := make([]bool, k)
	for i, name := range names {
		v, ok := observed[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingObservation, name)
		}
		want[i] = v
	}

	combos := 1 << k
	table := make(ProbabilityTable, combos)
	factors := make([]float64, k)
	for i := 0; i < combos; i++ {
		key := VectorKey(i, k)
		for pos := 0; pos < k; pos++ {
			if (key[pos] == '1') == want[pos] {
				factors[pos] = reliability
			} else {
				factors[pos] = 1 - reliability
			}
		}
		table[key] = floats.Prod(factors)
	}

	return table, nil
}

// VectorKey renders n as a binary string zero-padded to width. Width 0 is
// the empty vector.
func VectorKey(n, width int) string {
	if width == 0 {
		return ""
	}
	s := strconv.FormatInt(int64(n), 2)
	if len(s) < width {
		s = strings.Repeat("0", width-len(s)) + s
	}
	return s
}

// EncodeVector renders an output assignment in the key format of a table
func EncodeVector(names []string, values map[string]bool) string {
	var builder strings.Builder
	for _, name := range names {
		if values[name] {
			builder.WriteByte('1')
		} else {
			builder.WriteByte('0')
		}
	}
	return builder.String()
}

// Width returns the vector width of the table
func (t ProbabilityTable) Width() int {
	for key := range t {
		return len(key)
	}
	return 0
}

// Keys returns the table keys in binary counting order
func (t ProbabilityTable) Keys() []string {
	width := t.Width()
	keys := make([]string, 0, len(t))
	for i := 0; i < 1<<width; i++ {
		if key := VectorKey(i, width); t.has(key) {
			keys = append(keys, key)
		}
	}
	return keys
}

func (t ProbabilityTable) has(key string) bool {
	_, ok := t[key]
	return ok
}

// Total returns the sum of all entries; a full table sums to 1
func (t ProbabilityTable) Total() float64 {
	values := make([]float64, 0, len(t))
	for _, key := range t.Keys() {
		values = append(values, t[key])
	}
	return floats.Sum(values)
}

// MostLikely returns the highest-probability vector, the earliest in
// counting order on ties
func (t ProbabilityTable) MostLikely() (string, float64) {
	best, bestP := "", -1.0
	for _, key := range t.Keys() {
		if t[key] > bestP {
			best, bestP = key, t[key]
		}
	}
	return best, bestP
}
