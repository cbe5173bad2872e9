package conv

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Engine2D is the rectangular counterpart of Engine1D. Steps walk the output
// matrix in row-major order.
type Engine2D struct {
	input  *mat.Dense
	kernel *mat.Dense
	output *mat.Dense
	step   int
}

// New2D validates the operands and computes the output once. Both matrices
// are copied, so later changes to the arguments are not observed.
func New2D(input, kernel mat.Matrix) (*Engine2D, error) {
	if input == nil || kernel == nil {
		return nil, fmt.Errorf("%w: nil matrix", ErrInvalidDimensions)
	}

	rows, cols := input.Dims()
	kRows, kCols := kernel.Dims()
	if rows == 0 || cols == 0 || kRows == 0 || kCols == 0 || kRows > rows || kCols > cols {
		return nil, fmt.Errorf("%w: input %dx%d, kernel %dx%d", ErrInvalidDimensions, rows, cols, kRows, kCols)
	}

	e := &Engine2D{
		input:  mat.DenseCopyOf(input),
		kernel: mat.DenseCopyOf(kernel),
	}

	outRows, outCols := rows-kRows+1, cols-kCols+1
	e.output = mat.NewDense(outRows, outCols, nil)
	for r := 0; r < outRows; r++ {
		for c := 0; c < outCols; c++ {
			e.output.Set(r, c, sumTerms(e.terms(r, c)))
		}
	}

	return e, nil
}

// New2DFromRows is New2D for nested slices.
func New2DFromRows(input, kernel [][]float64) (*Engine2D, error) {
	in, err := denseFromRows(input)
	if err != nil {
		return nil, fmt.Errorf("input: %w", err)
	}
	k, err := denseFromRows(kernel)
	if err != nil {
		return nil, fmt.Errorf("kernel: %w", err)
	}
	return New2D(in, k)
}

func denseFromRows(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: empty matrix", ErrInvalidDimensions)
	}
	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrInvalidDimensions, i, len(row), cols)
		}
		data = append(data, row...)
	}
	return mat.NewDense(len(rows), cols, data), nil
}

func rowsOf(m *mat.Dense) [][]float64 {
	r, c := m.Dims()
	out := make([][]float64, r)
	for i := range out {
		out[i] = make([]float64, c)
		mat.Row(out[i], i, m)
	}
	return out
}

// terms lists the kernel-ordered products for output cell (r, c).
func (e *Engine2D) terms(r, c int) []Term {
	kRows, kCols := e.kernel.Dims()
	terms := make([]Term, 0, kRows*kCols)
	for ki := 0; ki < kRows; ki++ {
		for kj := 0; kj < kCols; kj++ {
			in := e.input.At(r+ki, c+kj)
			k := e.kernel.At(ki, kj)
			terms = append(terms, Term{
				InputRow:  r + ki,
				InputCol:  c + kj,
				KernelRow: ki,
				KernelCol: kj,
				Input:     in,
				Kernel:    k,
				Product:   in * k,
			})
		}
	}
	return terms
}

// Input returns a copy of the input matrix.
func (e *Engine2D) Input() *mat.Dense {
	return mat.DenseCopyOf(e.input)
}

// Kernel returns a copy of the kernel matrix.
func (e *Engine2D) Kernel() *mat.Dense {
	return mat.DenseCopyOf(e.kernel)
}

// Compute returns a copy of the cached output matrix.
func (e *Engine2D) Compute() *mat.Dense {
	return mat.DenseCopyOf(e.output)
}

// InputRows, KernelRows and OutputRows return nested-slice copies for
// serialization.
func (e *Engine2D) InputRows() [][]float64  { return rowsOf(e.input) }
func (e *Engine2D) KernelRows() [][]float64 { return rowsOf(e.kernel) }
func (e *Engine2D) OutputRows() [][]float64 { return rowsOf(e.output) }

// OutputDims returns the output matrix shape.
func (e *Engine2D) OutputDims() (rows, cols int) {
	return e.output.Dims()
}

// TotalSteps returns rowsOut*colsOut.
func (e *Engine2D) TotalSteps() int {
	r, c := e.output.Dims()
	return r * c
}

// Step returns the current step.
func (e *Engine2D) Step() int {
	return e.step
}

// SetStep clamps n into [0, TotalSteps()-1] and stores it.
func (e *Engine2D) SetStep(n int) int {
	e.step = clampStep(n, e.TotalSteps())
	return e.step
}

// Advance moves one step forward and reports whether the last step is reached.
func (e *Engine2D) Advance() bool {
	e.SetStep(e.step + 1)
	return e.AtEnd()
}

// AtEnd reports whether the current step is the last one.
func (e *Engine2D) AtEnd() bool {
	return e.step == e.TotalSteps()-1
}

// Position maps a step to its output (row, col).
func (e *Engine2D) Position(step int) (row, col int) {
	_, outCols := e.output.Dims()
	step = clampStep(step, e.TotalSteps())
	return step / outCols, step % outCols
}

// Window returns the input rectangle covered by the kernel at step, as
// half-open row and column ranges.
func (e *Engine2D) Window(step int) (rowStart, rowEnd, colStart, colEnd int) {
	kRows, kCols := e.kernel.Dims()
	r, c := e.Position(step)
	return r, r + kRows, c, c + kCols
}

// StepOperands returns the breakdown for step, clamped into range.
func (e *Engine2D) StepOperands(step int) Breakdown {
	step = clampStep(step, e.TotalSteps())
	r, c := e.Position(step)
	terms := e.terms(r, c)
	return Breakdown{
		Step:  step,
		Row:   r,
		Col:   c,
		Terms: terms,
		Sum:   sumTerms(terms),
	}
}

// StepForOutputCell returns the step that computes output[row][col].
func (e *Engine2D) StepForOutputCell(row, col int) (int, bool) {
	outRows, outCols := e.output.Dims()
	if row < 0 || row >= outRows || col < 0 || col >= outCols {
		return 0, false
	}
	return row*outCols + col, true
}

// StepForInputCell returns the step whose window is centred as closely as
// possible on input[row][col], clamping each axis independently.
func (e *Engine2D) StepForInputCell(row, col int) (int, bool) {
	rows, cols := e.input.Dims()
	if row < 0 || row >= rows || col < 0 || col >= cols {
		return 0, false
	}
	kRows, kCols := e.kernel.Dims()
	outRows, outCols := e.output.Dims()

	targetRow := clampStep(row-kRows/2, outRows)
	targetCol := clampStep(col-kCols/2, outCols)
	return targetRow*outCols + targetCol, true
}
