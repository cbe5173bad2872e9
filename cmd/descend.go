package main

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/mlvis/internal/descent"
	"github.com/cwbudde/mlvis/internal/opt"
	"github.com/cwbudde/mlvis/internal/store"
)

var (
	descObjective string
	descLR        float64
	descIters     int
	descSeed      int64
	descTrace     string
	descAppend    bool
	descPatience  int
	descThreshold float64
	descReference bool
	descRefIters  int
	descRefPop    int
)

var descendCmd = &cobra.Command{
	Use:   "descend",
	Short: "Run gradient descent headless",
	Long: `Runs plain gradient descent on one of the built-in loss surfaces until the
iteration limit or a loss plateau, optionally exporting the trajectory as
JSON Lines and comparing the final loss with a mayfly swarm search.`,
	RunE: runDescend,
}

func init() {
	descendCmd.Flags().StringVar(&descObjective, "objective", descent.Rugged, "Loss surface: rugged or ackley")
	descendCmd.Flags().Float64Var(&descLR, "lr", descent.DefaultLearningRate, "Learning rate")
	descendCmd.Flags().IntVar(&descIters, "iters", 500, "Max iterations")
	descendCmd.Flags().Int64Var(&descSeed, "seed", descent.DefaultSeed, "Random seed for the start point")
	descendCmd.Flags().StringVar(&descTrace, "trace", "", "Write the trajectory to this JSONL file")
	descendCmd.Flags().BoolVar(&descAppend, "append", false, "Append to an existing trace instead of truncating it")
	descendCmd.Flags().IntVar(&descPatience, "patience", 25, "Stop after this many steps without improvement (0 = never)")
	descendCmd.Flags().Float64Var(&descThreshold, "threshold", 1e-6, "Minimum relative improvement that resets patience")
	descendCmd.Flags().BoolVar(&descReference, "reference", false, "Compare against a mayfly reference minimum")
	descendCmd.Flags().IntVar(&descRefIters, "ref-iters", 100, "Mayfly iterations for the reference search")
	descendCmd.Flags().IntVar(&descRefPop, "ref-pop", 30, "Mayfly population for the reference search")

	rootCmd.AddCommand(descendCmd)
}

// descendOptions carries the flag values into descend.
type descendOptions struct {
	Objective    string
	LearningRate float64
	Iters        int
	Seed         int64
	Convergence  descent.ConvergenceConfig
	TracePath    string
	Append       bool
	Reference    opt.Optimizer
}

// descendResult summarizes one headless run.
type descendResult struct {
	Objective  string
	Iterations int
	Converged  bool
	Start      descent.Point
	Final      descent.Point
	Best       float64
	Reference  *opt.Result
	Gap        float64
	Elapsed    time.Duration
}

func runDescend(cmd *cobra.Command, args []string) error {
	options := descendOptions{
		Objective:    descObjective,
		LearningRate: descLR,
		Iters:        descIters,
		Seed:         descSeed,
		Convergence: descent.ConvergenceConfig{
			Enabled:   descPatience > 0,
			Patience:  descPatience,
			Threshold: descThreshold,
		},
		TracePath: descTrace,
		Append:    descAppend,
	}
	if descReference {
		options.Reference = opt.NewMayfly(descRefIters, descRefPop, descSeed)
	}

	result, err := descend(options)
	if err != nil {
		return err
	}
	printDescendResult(cmd.OutOrStdout(), result)
	return nil
}

func descend(options descendOptions) (*descendResult, error) {
	if options.Iters <= 0 {
		return nil, fmt.Errorf("%w: iterations must be positive, got %d", descent.ErrInvalidArgument, options.Iters)
	}

	e, err := descent.New(descent.Config{
		Objective:    options.Objective,
		LearningRate: options.LearningRate,
		Seed:         options.Seed,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create descent engine: %w", err)
	}

	slog.Info("Starting descent",
		"objective", options.Objective,
		"learning_rate", options.LearningRate,
		"iters", options.Iters,
		"seed", options.Seed,
	)

	result := &descendResult{
		Objective: e.Objective().Name(),
		Start:     e.Position(),
	}
	tracker := descent.NewConvergenceTracker(options.Convergence)
	tracker.Update(result.Start.Z)

	start := time.Now()
	e.Start()
	for i := 0; i < options.Iters; i++ {
		p, err := e.Step()
		if err != nil {
			return nil, fmt.Errorf("descent step %d: %w", i+1, err)
		}
		if tracker.Update(p.Z) {
			result.Converged = true
			break
		}
	}
	e.Stop()
	result.Elapsed = time.Since(start)
	result.Iterations = e.Iteration()
	result.Final = e.Position()
	result.Best = tracker.Best()

	slog.Info("Descent complete",
		"iterations", result.Iterations,
		"converged", result.Converged,
		"final_loss", result.Final.Z,
		"elapsed", result.Elapsed,
	)

	if options.TracePath != "" {
		if err := writeTrace(options.TracePath, options.Append, e); err != nil {
			return nil, err
		}
		slog.Info("Wrote trace", "path", options.TracePath, "entries", len(e.Trajectory()))
	}

	if options.Reference != nil {
		ref, err := options.Reference.Minimize(e.Objective())
		if err != nil {
			return nil, fmt.Errorf("reference search failed: %w", err)
		}
		result.Reference = &ref
		result.Gap = opt.Gap(result.Final.Z, ref)
		slog.Info("Reference minimum", "x", ref.X, "y", ref.Y, "loss", ref.Loss, "gap", result.Gap)
	}

	return result, nil
}

func writeTrace(path string, append bool, e *descent.Engine) error {
	tw, err := store.NewTraceWriter(path, append)
	if err != nil {
		return err
	}
	if err := tw.WriteTrajectory(e.Objective().Name(), e.Trajectory(), time.Now()); err != nil {
		tw.Close()
		return fmt.Errorf("failed to write trace: %w", err)
	}
	return tw.Close()
}

func printDescendResult(out io.Writer, r *descendResult) {
	status := "iteration limit"
	if r.Converged {
		status = "converged"
	}
	fmt.Fprintf(out, "Objective:  %s\n", r.Objective)
	fmt.Fprintf(out, "Start:      (%.4f, %.4f) loss %.6f\n", r.Start.X, r.Start.Y, r.Start.Z)
	fmt.Fprintf(out, "Final:      (%.4f, %.4f) loss %.6f\n", r.Final.X, r.Final.Y, r.Final.Z)
	fmt.Fprintf(out, "Iterations: %d (%s)\n", r.Iterations, status)
	if r.Reference != nil {
		fmt.Fprintf(out, "Reference:  (%.4f, %.4f) loss %.6f\n", r.Reference.X, r.Reference.Y, r.Reference.Loss)
		fmt.Fprintf(out, "Gap:        %.6f\n", r.Gap)
	}
}
