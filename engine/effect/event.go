package effect

import (
	"github.com/google/uuid"
)

// ChangeKind identifies what happened to an effect.
type ChangeKind int

const (
	// ChangeUpdate is raised when a parameter value is set.
	ChangeUpdate ChangeKind = iota
	// ChangeDispose is raised once when the effect is torn down.
	ChangeDispose
)

// String returns the name of the change kind.
func (k ChangeKind) String() string {
	switch k {
	case ChangeUpdate:
		return "update"
	case ChangeDispose:
		return "dispose"
	default:
		return "unknown"
	}
}

// ChangeEvent is delivered synchronously to every subscriber of an effect.
// ParamID and Value are only meaningful for ChangeUpdate.
type ChangeEvent struct {
	EffectID uuid.UUID
	Kind     ChangeKind
	ParamID  ParamID
	Value    Value
}

// Listener receives change events from an effect.
type Listener func(ChangeEvent)
