package growth

import "errors"

var (
	ErrInvalidConfig = errors.New("growth: invalid config")
	ErrInvalidSeed   = errors.New("growth: invalid seed mesh")

	// ErrNonFinite and ErrCoincident are raised by panic. They signal
	// degenerate geometry that the caller was responsible for avoiding.
	ErrNonFinite  = errors.New("growth: non-finite vertex position")
	ErrCoincident = errors.New("growth: coincident vertices")
)
