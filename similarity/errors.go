package similarity

import "errors"

// ErrDimensionMismatch indicates two vectors of different length were compared.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")
