package reporting

import "errors"

var (
	// ErrJobNotFound is returned when a job id is unknown.
	ErrJobNotFound = errors.New("reporting: job not found")
	// ErrEmptyJobID is returned when a job id is empty.
	ErrEmptyJobID = errors.New("reporting: empty job id")
	// ErrJobExists is returned when a job id is registered twice.
	ErrJobExists = errors.New("reporting: job already exists")
	// ErrJobTerminal guards the single Running -> terminal transition.
	ErrJobTerminal = errors.New("reporting: job already terminal")
	// ErrNoObservations fails a job when the data set holds no status polls at all.
	ErrNoObservations = errors.New("no store status records found")
)
