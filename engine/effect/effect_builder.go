package effect

// EffectBuilderOption is a function that configures an effect instance during construction.
type EffectBuilderOption func(*effect)

// WithName is an option builder that sets the name of the effect.
//
// Parameters:
//   - name: the human readable effect name
//
// Returns:
//   - EffectBuilderOption: a function that applies the name option to an effect
func WithName(name string) EffectBuilderOption {
	return func(e *effect) {
		e.name = name
	}
}

// WithPass is an option builder that appends a render pass. Passes render in the order they are added.
//
// Parameters:
//   - pass: the pass to append
//
// Returns:
//   - EffectBuilderOption: a function that applies the pass option to an effect
func WithPass(pass Pass) EffectBuilderOption {
	return func(e *effect) {
		e.passes = append(e.passes, pass)
	}
}

// WithParameter is an option builder that declares a parameter.
//
// Parameters:
//   - name: the parameter name, matching the uniform name in the pass sources
//   - paramType: the semantic type of the parameter
//   - defaultValue: the initial value, or nil for the zero value of paramType
//
// Returns:
//   - EffectBuilderOption: a function that applies the parameter option to an effect
func WithParameter(name string, paramType ParamType, defaultValue Value) EffectBuilderOption {
	return func(e *effect) {
		e.params = append(e.params, Parameter{Name: name, Type: paramType, Default: defaultValue})
	}
}
