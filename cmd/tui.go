package main

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/cwbudde/mlvis/internal/conv"
	"github.com/cwbudde/mlvis/internal/descent"
	"github.com/cwbudde/mlvis/internal/tui"
)

var (
	tuiPreset    string
	tuiObjective string
	tuiLR        float64
	tuiSeed      int64
	tuiCadenceMs int
)

var tuiCmd = &cobra.Command{
	Use:       "tui [conv1d|conv2d|descent]",
	Short:     "Run a demo interactively in the terminal",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"conv1d", "conv2d", "descent"},
	RunE:      runTUI,
}

func init() {
	tuiCmd.Flags().StringVar(&tuiPreset, "preset", "", "JSON preset for the convolution demos")
	tuiCmd.Flags().StringVar(&tuiObjective, "objective", descent.Rugged, "Initial loss surface for the descent demo")
	tuiCmd.Flags().Float64Var(&tuiLR, "lr", descent.DefaultLearningRate, "Initial learning rate for the descent demo")
	tuiCmd.Flags().Int64Var(&tuiSeed, "seed", descent.DefaultSeed, "Random seed for start points")
	tuiCmd.Flags().IntVar(&tuiCadenceMs, "cadence-ms", 0, "Milliseconds between descent steps (0 = every frame)")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	model, err := newDemoModel(args[0])
	if err != nil {
		return err
	}

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui failed: %w", err)
	}
	return nil
}

func newDemoModel(name string) (tea.Model, error) {
	switch name {
	case "conv1d":
		e, err := conv.Load1D(tuiPreset)
		if err != nil {
			return nil, fmt.Errorf("failed to load 1D preset: %w", err)
		}
		return tui.NewConv1D(e), nil
	case "conv2d":
		e, err := conv.Load2D(tuiPreset)
		if err != nil {
			return nil, fmt.Errorf("failed to load 2D preset: %w", err)
		}
		return tui.NewConv2D(e), nil
	case "descent":
		e, err := descent.New(descent.Config{
			Objective:    tuiObjective,
			LearningRate: tuiLR,
			Seed:         tuiSeed,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create descent engine: %w", err)
		}
		return tui.NewDescent(e, time.Duration(tuiCadenceMs)*time.Millisecond), nil
	default:
		return nil, fmt.Errorf("unknown demo: %s (expected conv1d, conv2d or descent)", name)
	}
}
