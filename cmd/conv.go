package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cwbudde/mlvis/internal/conv"
)

var (
	convPreset string
	convStep   int
	convAll    bool
)

var conv1DCmd = &cobra.Command{
	Use:   "conv1d",
	Short: "Print a 1D convolution and the calculation for one step",
	Long: `Computes a valid-mode 1D convolution (cross-correlation, no kernel flip)
and prints the output together with the products that make up one output
element. Without --preset the built-in classroom example is used.`,
	RunE: runConv1D,
}

var conv2DCmd = &cobra.Command{
	Use:   "conv2d",
	Short: "Print a 2D convolution and the calculation for one step",
	Long: `Computes a valid-mode 2D convolution (cross-correlation, no kernel flip)
and prints the output grid together with the products that make up one
output cell. Steps enumerate output cells in row-major order.`,
	RunE: runConv2D,
}

func init() {
	for _, c := range []*cobra.Command{conv1DCmd, conv2DCmd} {
		c.Flags().StringVar(&convPreset, "preset", "", "JSON file with input and kernel (default: built-in example)")
		c.Flags().IntVar(&convStep, "step", 0, "Step whose calculation is printed (clamped)")
		c.Flags().BoolVar(&convAll, "all", false, "Print the calculation for every step")
		rootCmd.AddCommand(c)
	}
}

func runConv1D(cmd *cobra.Command, args []string) error {
	e, err := conv.Load1D(convPreset)
	if err != nil {
		return fmt.Errorf("failed to load 1D preset: %w", err)
	}
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Input:  %s\n", formatRow(e.Input()))
	fmt.Fprintf(out, "Kernel: %s\n", formatRow(e.Kernel()))
	fmt.Fprintf(out, "Output: %s\n\n", formatRow(e.Compute()))

	return printSteps(out, e.TotalSteps(), e.SetStep, func(step int) string {
		return fmt.Sprintf("output[%d]", step)
	}, e.StepOperands)
}

func runConv2D(cmd *cobra.Command, args []string) error {
	e, err := conv.Load2D(convPreset)
	if err != nil {
		return fmt.Errorf("failed to load 2D preset: %w", err)
	}
	out := cmd.OutOrStdout()

	printGrid(out, "Input", e.InputRows())
	printGrid(out, "Kernel", e.KernelRows())
	printGrid(out, "Output", e.OutputRows())

	return printSteps(out, e.TotalSteps(), e.SetStep, func(step int) string {
		row, col := e.Position(step)
		return fmt.Sprintf("output[%d][%d]", row, col)
	}, e.StepOperands)
}

// printSteps prints the breakdown of the selected step, or of every step
// with --all.
func printSteps(out io.Writer, total int, setStep func(int) int, label func(int) string, operands func(int) conv.Breakdown) error {
	first, last := setStep(convStep), setStep(convStep)
	if convAll {
		first, last = 0, total-1
	}
	for step := first; step <= last; step++ {
		b := operands(step)
		terms := make([]string, len(b.Terms))
		for i, t := range b.Terms {
			terms[i] = fmt.Sprintf("%s×%s", formatNumber(t.Input), formatNumber(t.Kernel))
		}
		fmt.Fprintf(out, "Step %d/%d: %s = %s = %s\n",
			step+1, total, label(step), strings.Join(terms, " + "), formatNumber(b.Sum))
	}
	return nil
}

func printGrid(out io.Writer, title string, rows [][]float64) {
	fmt.Fprintf(out, "%s:\n", title)
	for _, row := range rows {
		fmt.Fprintf(out, "  %s\n", formatRow(row))
	}
	fmt.Fprintln(out)
}

func formatRow(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%4s", formatNumber(v))
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func formatNumber(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.3g", v)
}
