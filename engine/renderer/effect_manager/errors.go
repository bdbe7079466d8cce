package effect_manager

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrEffectNotRegistered is returned when an operation needs a registered effect.
var ErrEffectNotRegistered = errors.New("effect_manager: effect is not registered")

// ErrReleased is returned by operations that need the worker pool after Release.
var ErrReleased = errors.New("effect_manager: manager is released")

// InvalidEffectError is returned when an effect cannot be compiled at all, independent of the backend.
type InvalidEffectError struct {
	EffectID uuid.UUID
	Reason   string
}

func (e *InvalidEffectError) Error() string {
	return fmt.Sprintf("effect_manager: invalid effect %s: %s", e.EffectID, e.Reason)
}
