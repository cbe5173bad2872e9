package conv

// Term is one multiply in the sum that produces an output element.
// For 1D engines the row indices are always zero.
type Term struct {
	InputRow  int     `json:"inputRow"`
	InputCol  int     `json:"inputCol"`
	KernelRow int     `json:"kernelRow"`
	KernelCol int     `json:"kernelCol"`
	Input     float64 `json:"input"`
	Kernel    float64 `json:"kernel"`
	Product   float64 `json:"product"`
}

// Breakdown is the "math panel" for a single step: every term that
// contributes to output element (Row, Col) and their sum.
type Breakdown struct {
	Step  int     `json:"step"`
	Row   int     `json:"row"`
	Col   int     `json:"col"`
	Terms []Term  `json:"terms"`
	Sum   float64 `json:"sum"`
}

// sumTerms accumulates products in kernel order. Compute and StepOperands
// both go through here so cached outputs and breakdowns never drift apart.
func sumTerms(terms []Term) float64 {
	var sum float64
	for _, t := range terms {
		sum += t.Product
	}
	return sum
}

func clampStep(n, total int) int {
	if n < 0 {
		return 0
	}
	if n > total-1 {
		return total - 1
	}
	return n
}
