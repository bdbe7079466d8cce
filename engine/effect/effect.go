// Package effect describes shader-based materials independently of any GPU resource. An Effect owns
// its parameter values and pass sources and reports every change to its subscribers synchronously;
// compiled GPU programs are owned elsewhere.
package effect

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
)

// subscription pairs a listener with the token used to remove it.
type subscription struct {
	token    uint64
	listener Listener
}

// effect is the implementation of the Effect interface.
type effect struct {
	id     uuid.UUID
	name   string
	passes []Pass

	// params holds declarations in declaration order; byName and byID index into it.
	params []Parameter
	byName map[string]int
	byID   map[ParamID]int
	values []Value
	dirty  []bool

	subscribers []subscription
	nextToken   uint64
	disposed    bool
}

// Effect defines the interface for a renderable material description: its passes, its declared
// parameters and their current values. Mutations are reported to subscribers as ChangeEvents.
//
// An Effect never touches GPU resources. It is not safe for concurrent use.
type Effect interface {
	// ID returns the session-unique identity of the effect. It never changes.
	//
	// Returns:
	//   - uuid.UUID: the effect identity
	ID() uuid.UUID

	// Name returns the human readable name of the effect, used in logs and backend labels.
	//
	// Returns:
	//   - string: the effect name
	Name() string

	// Passes returns a copy of the ordered render passes of the effect.
	//
	// Returns:
	//   - []Pass: the passes, in render order
	Passes() []Pass

	// Parameter looks up a parameter declaration by name.
	//
	// Parameters:
	//   - name: the parameter name
	//
	// Returns:
	//   - Parameter: the declaration
	//   - bool: false if no parameter has that name
	Parameter(name string) (Parameter, bool)

	// ParameterByID looks up a parameter declaration by its ParamID.
	//
	// Parameters:
	//   - id: the parameter identity
	//
	// Returns:
	//   - Parameter: the declaration
	//   - bool: false if no parameter has that identity
	ParameterByID(id ParamID) (Parameter, bool)

	// Parameters returns a copy of every declaration in declaration order.
	//
	// Returns:
	//   - []Parameter: the declarations
	Parameters() []Parameter

	// Value returns the current value of a parameter.
	//
	// Parameters:
	//   - name: the parameter name
	//
	// Returns:
	//   - Value: the current value
	//   - bool: false if no parameter has that name
	Value(name string) (Value, bool)

	// ValueByID returns the current value of a parameter by identity.
	//
	// Parameters:
	//   - id: the parameter identity
	//
	// Returns:
	//   - Value: the current value
	//   - bool: false if no parameter has that identity
	ValueByID(id ParamID) (Value, bool)

	// SetParameter stores a new parameter value, marks it changed and notifies subscribers with a
	// ChangeUpdate event carrying the parameter's identity.
	//
	// Parameters:
	//   - name: the parameter name
	//   - value: the new value; its Go type must match the declared ParamType
	//
	// Returns:
	//   - error: *UnknownParameterError, *ParameterTypeError or ErrEffectDisposed; the effect is unchanged on error
	SetParameter(name string, value Value) error

	// ChangedParameters returns the identities of parameters set since the last ClearChanged, in declaration order.
	//
	// Returns:
	//   - []ParamID: the changed parameter identities
	ChangedParameters() []ParamID

	// ClearChanged resets every parameter's changed flag.
	ClearChanged()

	// Subscribe registers a listener for change events. Listeners run synchronously, in subscription order.
	//
	// Parameters:
	//   - l: the listener to add
	//
	// Returns:
	//   - func(): removes the listener; calling it more than once is harmless
	Subscribe(l Listener) func()

	// Dispose tears the effect down and notifies subscribers with a single ChangeDispose event.
	// Subsequent calls are no-ops.
	Dispose()

	// Disposed reports whether Dispose has been called.
	//
	// Returns:
	//   - bool: true once the effect is disposed
	Disposed() bool
}

var _ Effect = &effect{}

// NewEffect creates a new Effect with a fresh identity and the provided options applied.
// Every parameter starts at its declared default.
//
// Parameters:
//   - options: variadic list of EffectBuilderOption functions to configure the effect
//
// Returns:
//   - Effect: the new effect
//   - error: ErrDuplicateParameter if two parameters share a name or identity, or a type error for a bad default
func NewEffect(options ...EffectBuilderOption) (Effect, error) {
	e := &effect{
		id:     uuid.New(),
		byName: make(map[string]int),
		byID:   make(map[ParamID]int),
	}
	for _, opt := range options {
		opt(e)
	}
	if e.name == "" {
		e.name = e.id.String()
	}

	for i, p := range e.params {
		if _, dup := e.byName[p.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateParameter, p.Name)
		}
		id := p.ID()
		if other, dup := e.byID[id]; dup {
			return nil, fmt.Errorf("%w: %q and %q hash to the same identity", ErrDuplicateParameter, e.params[other].Name, p.Name)
		}
		if p.Default == nil {
			p.Default = ZeroValue(p.Type)
			e.params[i] = p
		} else if !Accepts(p.Type, p.Default) {
			return nil, &ParameterTypeError{EffectID: e.id, Name: p.Name, Want: p.Type, Got: p.Default}
		}
		e.byName[p.Name] = i
		e.byID[id] = i
	}

	e.values = make([]Value, len(e.params))
	e.dirty = make([]bool, len(e.params))
	for i, p := range e.params {
		e.values[i] = p.Default
	}
	return e, nil
}

func (e *effect) ID() uuid.UUID {
	return e.id
}

func (e *effect) Name() string {
	return e.name
}

func (e *effect) Passes() []Pass {
	return slices.Clone(e.passes)
}

func (e *effect) Parameter(name string) (Parameter, bool) {
	i, ok := e.byName[name]
	if !ok {
		return Parameter{}, false
	}
	return e.params[i], true
}

func (e *effect) ParameterByID(id ParamID) (Parameter, bool) {
	i, ok := e.byID[id]
	if !ok {
		return Parameter{}, false
	}
	return e.params[i], true
}

func (e *effect) Parameters() []Parameter {
	return slices.Clone(e.params)
}

func (e *effect) Value(name string) (Value, bool) {
	i, ok := e.byName[name]
	if !ok {
		return nil, false
	}
	return e.values[i], true
}

func (e *effect) ValueByID(id ParamID) (Value, bool) {
	i, ok := e.byID[id]
	if !ok {
		return nil, false
	}
	return e.values[i], true
}

func (e *effect) SetParameter(name string, value Value) error {
	if e.disposed {
		return ErrEffectDisposed
	}
	i, ok := e.byName[name]
	if !ok {
		return &UnknownParameterError{EffectID: e.id, Name: name}
	}
	p := e.params[i]
	if !Accepts(p.Type, value) {
		return &ParameterTypeError{EffectID: e.id, Name: name, Want: p.Type, Got: value}
	}

	e.values[i] = value
	e.dirty[i] = true
	e.notify(ChangeEvent{
		EffectID: e.id,
		Kind:     ChangeUpdate,
		ParamID:  p.ID(),
		Value:    value,
	})
	return nil
}

func (e *effect) ChangedParameters() []ParamID {
	var out []ParamID
	for i, changed := range e.dirty {
		if changed {
			out = append(out, e.params[i].ID())
		}
	}
	return out
}

func (e *effect) ClearChanged() {
	for i := range e.dirty {
		e.dirty[i] = false
	}
}

func (e *effect) Subscribe(l Listener) func() {
	e.nextToken++
	token := e.nextToken
	e.subscribers = append(e.subscribers, subscription{token: token, listener: l})
	return func() {
		for i, s := range e.subscribers {
			if s.token == token {
				e.subscribers = append(e.subscribers[:i:i], e.subscribers[i+1:]...)
				return
			}
		}
	}
}

func (e *effect) Dispose() {
	if e.disposed {
		return
	}
	e.disposed = true
	e.notify(ChangeEvent{EffectID: e.id, Kind: ChangeDispose})
}

func (e *effect) Disposed() bool {
	return e.disposed
}

// notify delivers ev to a snapshot of the current subscribers, so listeners may unsubscribe
// themselves while being notified.
func (e *effect) notify(ev ChangeEvent) {
	subs := append([]subscription(nil), e.subscribers...)
	for _, s := range subs {
		s.listener(ev)
	}
}
