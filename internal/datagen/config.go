/*
Copyright 2025 The RestFuzz Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package datagen synthesizes values for ParameterAttributes, optionally
// reusing values observed by the Runtime Dictionary instead of drawing
// fresh ones.
package datagen

// Probabilities carries every tunable the Python predecessor left as bare
// module-level constants (constant/data_generation_config.py), plus
// DictUse, made an explicit, named field rather than an undocumented
// magic number.
type Probabilities struct {
	// StringViolation is the chance a string's length is drawn against a
	// declared length bound: with only minLength set, from 0 up to
	// minLength; with only maxLength set, from maxLength up to 100. With
	// both set, it pins the length to exactly minLength or maxLength.
	StringViolation float64
	// EnumViolation is the chance an enum-constrained value ignores the
	// enum and falls through to unconstrained synthesis.
	EnumViolation float64
	// MinMaxValue is the chance, when both minimum and maximum are
	// declared, that a value is drawn uniformly within range rather than
	// snapped to one of the two bounds.
	MinMaxValue float64
	// MinValue is the chance, when only minimum is declared, that the
	// bound itself is used rather than an unconstrained draw.
	MinValue float64
	// MaxValue is the chance, when only maximum is declared, that the
	// bound itself is used rather than an unconstrained draw.
	MaxValue float64
	// EnumNumber is the chance a numeric value that did not come from its
	// enum bypasses the min/max rules and becomes a coin flip between 0
	// and 1, probing boundary-adjacent
	// small integers regardless of declared constraints.
	EnumNumber float64
	// DictUse is the chance the Data Generator asks the Runtime
	// Dictionary for an observed value before synthesizing one.
	DictUse float64
	// SkipOptional is the chance a non-required attribute is elided
	// (returns Skip) instead of generated, kept low so most sequences
	// still exercise optional fields.
	SkipOptional float64
}

// DefaultProbabilities matches the violation/selection probabilities
// observed in the Python predecessor's constant module, with DictUse
// defaulted to 0.5.
func DefaultProbabilities() Probabilities {
	return Probabilities{
		StringViolation: 0.1,
		EnumViolation:   0.1,
		MinMaxValue:     0.8,
		MinValue:        0.5,
		MaxValue:        0.5,
		EnumNumber:      0.05,
		DictUse:         0.5,
		SkipOptional:    0.2,
	}
}
