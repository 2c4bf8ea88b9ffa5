package dialogue

import "errors"

var (
	ErrEmptyAnswer         = errors.New("no attribute values provided")
	ErrUnknownField        = errors.New("unknown field")
	ErrAmbiguityUnresolved = errors.New("ambiguous answer could not be resolved")
	ErrInvalidConfidence   = errors.New("confidence must be in (0,1]")
)
