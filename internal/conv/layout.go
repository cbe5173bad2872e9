package conv

import "math"

// Layout1D describes where the 1D demo draws its rows of boxes, in logical
// canvas units. Only the geometry needed for hit-testing is kept here; all
// styling belongs to the presentation layer.
type Layout1D struct {
	Box     float64 `json:"box"`
	Padding float64 `json:"padding"`
	StartX  float64 `json:"startX"`
	KernelY float64 `json:"kernelY"`
	InputY  float64 `json:"inputY"`
	OutputY float64 `json:"outputY"`
}

// DefaultLayout1D centres the input row horizontally with the kernel above it
// and the output row below.
func (e *Engine1D) DefaultLayout1D(width, height float64) Layout1D {
	const box, padding = 50, 10
	return Layout1D{
		Box:     box,
		Padding: padding,
		StartX:  (width - float64(len(e.input))*(box+padding)) / 2,
		KernelY: height * 0.1,
		InputY:  height * 0.3,
		OutputY: height * 0.6,
	}
}

// pitch is the distance between the left edges of neighbouring boxes.
func (l Layout1D) pitch() float64 {
	return l.Box + l.Padding
}

// OutputX returns the left edge of output box i. Output boxes sit under the
// centre of the kernel window that produced them.
func (l Layout1D) OutputX(i, kernelLen int) float64 {
	kernelCenterOffset := (float64(kernelLen)*l.pitch() - l.Padding) / 2
	return l.StartX + float64(i)*l.pitch() + kernelCenterOffset - l.Box/2
}

// MapCoordinateToStep hit-tests (x, y) against the output row first and the
// input row second. The boolean is false when the point is outside both.
func (e *Engine1D) MapCoordinateToStep(l Layout1D, x, y float64) (int, bool) {
	if y >= l.OutputY && y <= l.OutputY+l.Box {
		index := int(math.Floor((x - l.OutputX(0, len(e.kernel))) / l.pitch()))
		if step, ok := e.StepForOutputIndex(index); ok {
			return step, true
		}
	}

	if y >= l.InputY && y <= l.InputY+l.Box {
		index := int(math.Floor((x - l.StartX) / l.pitch()))
		if step, ok := e.StepForInputIndex(index); ok {
			return step, true
		}
	}

	return 0, false
}

// Layout2D places the input grid on the left, the output grid on the right
// and a static kernel legend near the top.
type Layout2D struct {
	Box     float64 `json:"box"`
	Padding float64 `json:"padding"`
	InputX  float64 `json:"inputX"`
	InputY  float64 `json:"inputY"`
	OutputX float64 `json:"outputX"`
	OutputY float64 `json:"outputY"`
	KernelX float64 `json:"kernelX"`
	KernelY float64 `json:"kernelY"`
}

// DefaultLayout2D vertically centres both grids.
func (e *Engine2D) DefaultLayout2D(width, height float64) Layout2D {
	const box, padding = 40, 5
	rows, _ := e.input.Dims()
	outRows, _ := e.output.Dims()
	return Layout2D{
		Box:     box,
		Padding: padding,
		InputX:  width * 0.1,
		InputY:  (height - float64(rows)*(box+padding)) / 2,
		OutputX: width * 0.6,
		OutputY: (height - float64(outRows)*(box+padding)) / 2,
		KernelX: width * 0.4,
		KernelY: height * 0.1,
	}
}

func (l Layout2D) pitch() float64 {
	return l.Box + l.Padding
}

// cellAt returns the grid cell under (x, y) for a grid anchored at (ox, oy),
// or false when the point lies outside the grid's bounding box.
func (l Layout2D) cellAt(ox, oy float64, rows, cols int, x, y float64) (row, col int, ok bool) {
	width := float64(cols) * l.pitch()
	height := float64(rows) * l.pitch()
	if x < ox || x > ox+width || y < oy || y > oy+height {
		return 0, 0, false
	}
	col = int(math.Floor((x - ox) / l.pitch()))
	row = int(math.Floor((y - oy) / l.pitch()))
	if row < 0 || row >= rows || col < 0 || col >= cols {
		return 0, 0, false
	}
	return row, col, true
}

// MapCoordinateToStep hit-tests (x, y) against the output grid first and the
// input grid second.
func (e *Engine2D) MapCoordinateToStep(l Layout2D, x, y float64) (int, bool) {
	outRows, outCols := e.output.Dims()
	if row, col, ok := l.cellAt(l.OutputX, l.OutputY, outRows, outCols, x, y); ok {
		return e.StepForOutputCell(row, col)
	}

	rows, cols := e.input.Dims()
	if row, col, ok := l.cellAt(l.InputX, l.InputY, rows, cols, x, y); ok {
		return e.StepForInputCell(row, col)
	}

	return 0, false
}
