package conv

import "errors"

// ErrInvalidDimensions is returned when the kernel does not fit inside the
// input along some axis, when an axis has zero length, or when a matrix is
// ragged. Callers match it with errors.Is.
var ErrInvalidDimensions = errors.New("conv: invalid dimensions")
