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

package datagen

import (
	_ "embed"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/restfuzz/restfuzz/internal/depgraph"
	"github.com/restfuzz/restfuzz/internal/runtimedict"
	"github.com/restfuzz/restfuzz/internal/spec"
)

//go:embed assets/smallest.jpg
var smallestFileAsset []byte

// GeneratedValue is an explicit `Value | Skip` tagged union, so a
// generated nil or empty string can never be mistaken for an elided
// optional attribute.
type GeneratedValue struct {
	skip  bool
	value any
}

// Skip is the sentinel returned for an elided optional attribute.
func Skip() GeneratedValue { return GeneratedValue{skip: true} }

// Value wraps a concrete generated value.
func Value(v any) GeneratedValue { return GeneratedValue{value: v} }

// IsSkip reports whether this GeneratedValue carries no value.
func (g GeneratedValue) IsSkip() bool { return g.skip }

// Unwrap returns the carried value; callers must check IsSkip first.
func (g GeneratedValue) Unwrap() any { return g.value }

// Consultation records one successful Runtime Dictionary lookup made
// while generating a Request, so the Converter can apply the bandit
// reward update after dispatch.
type Consultation struct {
	Dependency *depgraph.ParameterDependency
}

// Generator synthesizes values for a single consumer Method's declared
// parameters, optionally reusing Runtime Dictionary observations from
// that method's incoming ODG edges.
type Generator struct {
	Probabilities Probabilities
	Dict          *runtimedict.Dictionary

	// IncomingEdges are the ODG edges whose Consumer is the method this
	// Generator instance is producing values for; nil if the method has
	// no incoming dependency (single-method sequences, or a producer
	// with no consumers pointing at something else).
	IncomingEdges []*depgraph.Edge

	// Consulted accumulates every Runtime Dictionary hit made during this
	// Generator's lifetime (one Sequence-method's worth of generation).
	Consulted []Consultation
}

// NewGenerator returns a Generator wired to dict and the edges feeding
// the method currently being converted.
func NewGenerator(probabilities Probabilities, dict *runtimedict.Dictionary, incomingEdges []*depgraph.Edge) *Generator {
	return &Generator{Probabilities: probabilities, Dict: dict, IncomingEdges: incomingEdges}
}

// GenerateValue is the Data Generator's single entry point: dispatch on
// attr.Type, consulting the Runtime Dictionary first when eligible.
func (g *Generator) GenerateValue(attr *spec.ParameterAttribute) GeneratedValue {
	if !attr.Required && rand.Float64() < g.Probabilities.SkipOptional {
		return Skip()
	}

	if g.Dict != nil && len(g.IncomingEdges) > 0 && rand.Float64() < g.Probabilities.DictUse {
		if value, dep, ok := g.Dict.Lookup(attr, g.IncomingEdges); ok {
			g.Consulted = append(g.Consulted, Consultation{Dependency: dep})
			return Value(value)
		}
	}

	switch attr.Type {
	case spec.TypeString:
		return Value(g.generateString(attr))
	case spec.TypeInteger:
		return Value(g.generateInteger(attr))
	case spec.TypeNumber:
		return Value(float64(g.generateInteger(attr)))
	case spec.TypeBoolean:
		return Value(rand.IntN(2) == 0)
	case spec.TypeArray:
		return Value(g.generateArray(attr))
	case spec.TypeObject:
		return Value(g.generateObject(attr))
	case spec.TypeFile:
		return Value(g.generateFile())
	default:
		return Value(g.generateString(attr))
	}
}

const stringCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
const maxStringLength = 100

func (g *Generator) generateString(attr *spec.ParameterAttribute) string {
	if attr.HasEnum && rand.Float64() > g.Probabilities.EnumViolation {
		if v := pickEnum(attr.Enum); v != "" {
			return v
		}
	}

	minLen, maxLen := 0, maxStringLength
	if attr.HasMinLength && attr.HasMaxLength {
		minLen, maxLen = int(attr.MinLength), int(attr.MaxLength)
	}

	if attr.HasMinLength && rand.Float64() < g.Probabilities.StringViolation {
		maxLen = int(attr.MinLength)
	} else if attr.HasMaxLength && rand.Float64() < g.Probabilities.StringViolation {
		minLen = int(attr.MaxLength)
	}

	if attr.HasFormat {
		switch attr.Format {
		case "date-time":
			return time.Now().Format(time.RFC3339)
		case "uuid":
			return uuid.NewString()
		case "password":
			return "testpassword"
		}
	}

	if attr.HasPattern {
		return generateFromPattern(attr.Pattern)
	}

	// avoid body sizes too large regardless of declared schema
	if maxLen > maxStringLength {
		maxLen = maxStringLength
	}
	if minLen > maxLen {
		minLen = maxLen
	}

	strLen := maxLen
	if maxLen > minLen {
		strLen = minLen + rand.IntN(maxLen-minLen+1)
	}

	var sb strings.Builder
	for i := 0; i < strLen; i++ {
		sb.WriteByte(stringCharset[rand.IntN(len(stringCharset))])
	}
	return sb.String()
}

func pickEnum(enum []any) string {
	if len(enum) == 0 {
		return ""
	}
	v := enum[rand.IntN(len(enum))]
	s, _ := v.(string)
	return s
}

func (g *Generator) generateInteger(attr *spec.ParameterAttribute) int64 {
	if attr.HasEnum && rand.Float64() > g.Probabilities.EnumViolation {
		if v, ok := pickEnumInt(attr.Enum); ok {
			return v
		}
	}

	if rand.Float64() < g.Probabilities.EnumNumber {
		return int64(rand.IntN(2))
	}

	switch {
	case attr.HasMinimum && attr.HasMaximum:
		lo, hi := int64(attr.Minimum), int64(attr.Maximum)
		if hi < lo {
			lo, hi = hi, lo
		}
		if rand.Float64() < g.Probabilities.MinMaxValue {
			if hi == lo {
				return lo
			}
			return lo + int64(rand.IntN(int(hi-lo+1)))
		}
		if rand.IntN(2) == 0 {
			return lo
		}
		return hi
	case attr.HasMinimum:
		if rand.Float64() < g.Probabilities.MinValue {
			return int64(attr.Minimum)
		}
		return int64(rand.IntN(999999))
	case attr.HasMaximum:
		if rand.Float64() < g.Probabilities.MaxValue {
			return int64(attr.Maximum)
		}
		return int64(rand.IntN(999999))
	default:
		return int64(rand.IntN(999999))
	}
}

func pickEnumInt(enum []any) (int64, bool) {
	if len(enum) == 0 {
		return 0, false
	}
	v := enum[rand.IntN(len(enum))]
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int:
		return int64(n), true
	case int64:
		return n, true
	default:
		return 0, false
	}
}

func (g *Generator) generateArray(attr *spec.ParameterAttribute) []any {
	result := make([]any, 0, len(attr.Children))
	for _, child := range attr.Children {
		v := g.GenerateValue(child)
		if v.IsSkip() {
			continue
		}
		result = append(result, v.Unwrap())
	}
	return result
}

func (g *Generator) generateObject(attr *spec.ParameterAttribute) map[string]any {
	result := make(map[string]any, len(attr.Children))
	for _, child := range attr.Children {
		v := g.GenerateValue(child)
		if v.IsSkip() {
			continue
		}
		result[child.Name] = v.Unwrap()
	}
	return result
}

func (g *Generator) generateFile() []byte {
	return smallestFileAsset
}

// PlaceholderFile returns the same embedded placeholder asset
// generateFile uses, exported so internal/agent can substitute real
// bytes for a "<file>" placeholder the LLM emits in a request instance.
func PlaceholderFile() []byte {
	return smallestFileAsset
}
