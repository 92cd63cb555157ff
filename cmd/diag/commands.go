package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyerfyer/fault-diag/internal/config"
	"github.com/fyerfyer/fault-diag/pkg/algorithm"
	"github.com/fyerfyer/fault-diag/pkg/circuit"
	"github.com/fyerfyer/fault-diag/pkg/utils"
)

type simulateReport struct {
	System   string          `yaml:"system"`
	Faults   []string        `yaml:"faults,omitempty"`
	Outputs  map[string]bool `yaml:"outputs"`
	Internal map[string]bool `yaml:"internal"`
	Affected []string        `yaml:"affected_outputs,omitempty"`
}

func newSimulateCmd() *cobra.Command {
	var systemFile, inputs, faults string

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Evaluate a system for one input assignment",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := utils.LoadCircuit(systemFile)
			if err != nil {
				return err
			}
			assignment, err := utils.ParseAssignment(inputs)
			if err != nil {
				return err
			}
			faultSet := algorithm.NewFaultSet(utils.ParseGateList(faults)...)
			for _, name := range faultSet.Names() {
				if c.GetGate(name) == nil {
					return fmt.Errorf("unknown gate in fault set: %s", name)
				}
			}

			sim := algorithm.NewSimulator(c, logger)
			outputs, affected, err := sim.FaultEffect(assignment, faultSet)
			if err != nil {
				return err
			}

			report := simulateReport{
				System:   c.Name,
				Faults:   faultSet.Names(),
				Outputs:  outputs,
				Internal: make(map[string]bool),
			}
			if len(faultSet) > 0 {
				report.Affected = affected
			}
			for _, z := range c.Internals {
				if v, ok := z.Value.Bool(); ok {
					report.Internal[z.Name] = v
				}
			}

			logger.Info("simulation complete",
				zap.String("system", c.Name),
				zap.Int("gate_evaluations", sim.Stats.GateEvaluations),
				zap.Int("memo_hits", sim.Stats.MemoHits))
			return utils.WriteReport(cmd.OutOrStdout(), report)
		},
	}

	cmd.Flags().StringVar(&systemFile, "system", "", "System description (.sys)")
	cmd.Flags().StringVar(&inputs, "inputs", "", "Input assignment, e.g. i1=1,i2=0")
	cmd.Flags().StringVar(&faults, "faults", "", "Comma-separated faulty gate names")
	_ = cmd.MarkFlagRequired("system")
	_ = cmd.MarkFlagRequired("inputs")
	return cmd
}

type observeEntry struct {
	Index      int             `yaml:"index"`
	Simulated  map[string]bool `yaml:"simulated,omitempty"`
	Mismatches []string        `yaml:"mismatches,omitempty"`
	Likelihood float64         `yaml:"likelihood,omitempty"`
	Error      string          `yaml:"error,omitempty"`
}

func newObserveCmd() *cobra.Command {
	var systemFile, obsFile, faults string
	var reliability float64
	var workers int

	cmd := &cobra.Command{
		Use:   "observe",
		Short: "Replay observations through a system and report mismatching outputs",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := utils.LoadCircuit(systemFile)
			if err != nil {
				return err
			}
			observations, err := utils.ParseObservationsFile(obsFile)
			if err != nil {
				return err
			}
			faultSet := algorithm.NewFaultSet(utils.ParseGateList(faults)...)

			jobs := make([]algorithm.Job, len(observations))
			for i, obs := range observations {
				jobs[i] = algorithm.Job{Inputs: obs.Inputs, Faults: faultSet}
			}
			results, err := algorithm.EvaluateBatch(cmd.Context(), c, jobs, workers, logger)
			if err != nil {
				return err
			}

			names := c.OutputNames()
			entries := make([]observeEntry, len(observations))
			for i, obs := range observations {
				entries[i].Index = obs.Index
				if results[i].Err != nil {
					entries[i].Error = results[i].Err.Error()
					continue
				}
				entries[i].Simulated = results[i].Outputs
				entries[i].Mismatches = algorithm.Mismatches(results[i].Outputs, obs.Outputs)

				table, err := algorithm.OutputProbabilities(names, obs.Outputs, reliability)
				if err != nil {
					if errors.Is(err, algorithm.ErrReliability) {
						return err
					}
					logger.Warn("no likelihood for observation", zap.Int("index", obs.Index), zap.Error(err))
					continue
				}
				entries[i].Likelihood = table[algorithm.EncodeVector(names, results[i].Outputs)]
			}

			return utils.WriteReport(cmd.OutOrStdout(), entries)
		},
	}

	cmd.Flags().StringVar(&systemFile, "system", "", "System description (.sys)")
	cmd.Flags().StringVar(&obsFile, "obs", "", "Observation file (.obs)")
	cmd.Flags().StringVar(&faults, "faults", "", "Comma-separated faulty gate names")
	cmd.Flags().Float64Var(&reliability, "reliability", config.Reliability(), "Per-bit sensor reliability")
	cmd.Flags().IntVar(&workers, "workers", config.Workers(), "Concurrent evaluation workers")
	_ = cmd.MarkFlagRequired("system")
	_ = cmd.MarkFlagRequired("obs")
	return cmd
}

type probabilityEntry struct {
	Vector      string  `yaml:"vector"`
	Probability float64 `yaml:"probability"`
}

type probabilityReport struct {
	Index   int                `yaml:"index"`
	Table   []probabilityEntry `yaml:"table"`
	Total   float64            `yaml:"total"`
	Likely  string             `yaml:"most_likely"`
	Outputs int                `yaml:"outputs"`
}

func newProbabilitiesCmd() *cobra.Command {
	var obsFile string
	var reliability float64
	var index int

	cmd := &cobra.Command{
		Use:   "probabilities",
		Short: "Generate output-vector likelihoods for observations",
		RunE: func(cmd *cobra.Command, args []string) error {
			observations, err := utils.ParseObservationsFile(obsFile)
			if err != nil {
				return err
			}

			reports := make([]probabilityReport, 0, len(observations))
			for _, obs := range observations {
				if index > 0 && obs.Index != index {
					continue
				}
				table, err := algorithm.GenerateOutputProbabilities(obs.Outputs, reliability)
				if err != nil {
					return fmt.Errorf("observation %d: %w", obs.Index, err)
				}

				report := probabilityReport{Index: obs.Index, Total: table.Total(), Outputs: len(obs.Outputs)}
				for _, key := range table.Keys() {
					report.Table = append(report.Table, probabilityEntry{Vector: key, Probability: table[key]})
				}
				report.Likely, _ = table.MostLikely()
				reports = append(reports, report)
			}

			return utils.WriteReport(cmd.OutOrStdout(), reports)
		},
	}

	cmd.Flags().StringVar(&obsFile, "obs", "", "Observation file (.obs)")
	cmd.Flags().Float64Var(&reliability, "reliability", config.Reliability(), "Per-bit sensor reliability")
	cmd.Flags().IntVar(&index, "index", 0, "Only this observation index (0: all)")
	_ = cmd.MarkFlagRequired("obs")
	return cmd
}

type describeReport struct {
	System    string         `yaml:"system"`
	Inputs    []string       `yaml:"inputs"`
	Outputs   []string       `yaml:"outputs"`
	GateTypes map[string]int `yaml:"gate_types"`
	Levels    int            `yaml:"levels"`
	Order     []string       `yaml:"gates_by_level"`
	Fanout    []string       `yaml:"fanout_wires,omitempty"`
	Cones     map[string]int `yaml:"output_cone_sizes"`
	Unleveled []string       `yaml:"unleveled_wires,omitempty"`
}

func newDescribeCmd() *cobra.Command {
	var systemFile string

	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Report the structure of a system",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := utils.LoadCircuit(systemFile)
			if err != nil {
				return err
			}
			topo := circuit.NewTopology(c)
			topo.Analyze()

			report := describeReport{
				System:    c.Name,
				Inputs:    c.InputNames(),
				Outputs:   c.OutputNames(),
				GateTypes: make(map[string]int),
				Levels:    topo.MaxLevel,
				Order:     topo.GatesByLevel(),
				Fanout:    topo.FanoutPoints,
				Cones:     make(map[string]int),
				Unleveled: topo.Unleveled,
			}
			for _, g := range c.Gates {
				report.GateTypes[g.Type.String()]++
			}
			for _, out := range report.Outputs {
				report.Cones[out] = len(topo.FanIn(out))
			}
			if len(topo.Unleveled) > 0 {
				logger.Warn("wires without a level; evaluation may not terminate",
					zap.Strings("wires", topo.Unleveled))
			}

			return utils.WriteReport(cmd.OutOrStdout(), report)
		},
	}

	cmd.Flags().StringVar(&systemFile, "system", "", "System description (.sys)")
	_ = cmd.MarkFlagRequired("system")
	return cmd
}
