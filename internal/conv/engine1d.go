package conv

import "fmt"

// Engine1D holds a fixed input sequence and kernel, the cached valid-mode
// cross-correlation output, and the step currently being explained.
type Engine1D struct {
	input  []float64
	kernel []float64
	output []float64
	step   int
}

// New1D validates the operands and computes the output once.
func New1D(input, kernel []float64) (*Engine1D, error) {
	if len(input) == 0 || len(kernel) == 0 || len(kernel) > len(input) {
		return nil, fmt.Errorf("%w: input length %d, kernel length %d", ErrInvalidDimensions, len(input), len(kernel))
	}

	e := &Engine1D{
		input:  append([]float64(nil), input...),
		kernel: append([]float64(nil), kernel...),
	}

	e.output = make([]float64, len(input)-len(kernel)+1)
	for i := range e.output {
		e.output[i] = sumTerms(e.terms(i))
	}

	return e, nil
}

// terms lists input[i+j]*kernel[j] for every kernel tap.
func (e *Engine1D) terms(i int) []Term {
	terms := make([]Term, len(e.kernel))
	for j, k := range e.kernel {
		in := e.input[i+j]
		terms[j] = Term{
			InputCol:  i + j,
			KernelCol: j,
			Input:     in,
			Kernel:    k,
			Product:   in * k,
		}
	}
	return terms
}

// Input returns a copy of the input sequence.
func (e *Engine1D) Input() []float64 {
	return append([]float64(nil), e.input...)
}

// Kernel returns a copy of the kernel.
func (e *Engine1D) Kernel() []float64 {
	return append([]float64(nil), e.kernel...)
}

// Compute returns the cached output sequence.
func (e *Engine1D) Compute() []float64 {
	return append([]float64(nil), e.output...)
}

// TotalSteps returns len(output).
func (e *Engine1D) TotalSteps() int {
	return len(e.output)
}

// Step returns the output index currently highlighted.
func (e *Engine1D) Step() int {
	return e.step
}

// SetStep clamps n into [0, TotalSteps()-1] and stores it.
func (e *Engine1D) SetStep(n int) int {
	e.step = clampStep(n, len(e.output))
	return e.step
}

// Advance moves one step forward and reports whether the engine now sits on
// the last step. It never moves past the end.
func (e *Engine1D) Advance() bool {
	e.SetStep(e.step + 1)
	return e.AtEnd()
}

// AtEnd reports whether the current step is the last one.
func (e *Engine1D) AtEnd() bool {
	return e.step == len(e.output)-1
}

// Window returns the half-open input range [start, end) covered at step.
func (e *Engine1D) Window(step int) (start, end int) {
	step = clampStep(step, len(e.output))
	return step, step + len(e.kernel)
}

// StepOperands returns the breakdown for step, clamped into range.
func (e *Engine1D) StepOperands(step int) Breakdown {
	step = clampStep(step, len(e.output))
	terms := e.terms(step)
	return Breakdown{
		Step:  step,
		Col:   step,
		Terms: terms,
		Sum:   sumTerms(terms),
	}
}

// StepForOutputIndex returns the step that computes output[i].
func (e *Engine1D) StepForOutputIndex(i int) (int, bool) {
	if i < 0 || i >= len(e.output) {
		return 0, false
	}
	return i, true
}

// StepForInputIndex returns the step whose window is centred as closely as
// possible on input[i].
func (e *Engine1D) StepForInputIndex(i int) (int, bool) {
	if i < 0 || i >= len(e.input) {
		return 0, false
	}
	return clampStep(i-len(e.kernel)/2, len(e.output)), true
}
