package effect

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrEffectDisposed is returned when a disposed effect is mutated.
	ErrEffectDisposed = errors.New("effect: effect is disposed")

	// ErrDuplicateParameter is returned when two parameters share a name or a ParamID.
	ErrDuplicateParameter = errors.New("effect: duplicate parameter")
)

// UnknownParameterError is returned by SetParameter when the name was never declared.
type UnknownParameterError struct {
	EffectID uuid.UUID
	Name     string
}

func (e *UnknownParameterError) Error() string {
	return fmt.Sprintf("effect %s: unknown parameter %q", e.EffectID, e.Name)
}

// ParameterTypeError is returned by SetParameter when the value does not match the declared type.
type ParameterTypeError struct {
	EffectID uuid.UUID
	Name     string
	Want     ParamType
	Got      Value
}

func (e *ParameterTypeError) Error() string {
	return fmt.Sprintf("effect %s: parameter %q expects %s, got %T", e.EffectID, e.Name, e.Want, e.Got)
}
