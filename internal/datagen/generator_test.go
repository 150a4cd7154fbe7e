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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restfuzz/restfuzz/internal/spec"
)

func noDictGenerator() *Generator {
	probs := DefaultProbabilities()
	probs.SkipOptional = 0
	probs.DictUse = 0
	return NewGenerator(probs, nil, nil)
}

func TestGenerateValueSkipsElidableOptionalAttribute(t *testing.T) {
	probs := DefaultProbabilities()
	probs.SkipOptional = 1
	g := NewGenerator(probs, nil, nil)

	attr := &spec.ParameterAttribute{Name: "nickname", Type: spec.TypeString, Required: false}
	v := g.GenerateValue(attr)
	assert.True(t, v.IsSkip())
}

func TestGenerateValueNeverSkipsRequiredAttribute(t *testing.T) {
	probs := DefaultProbabilities()
	probs.SkipOptional = 1
	g := NewGenerator(probs, nil, nil)

	attr := &spec.ParameterAttribute{Name: "id", Type: spec.TypeString, Required: true}
	v := g.GenerateValue(attr)
	assert.False(t, v.IsSkip())
}

func TestGenerateValueStringRespectsEnum(t *testing.T) {
	g := noDictGenerator()
	g.Probabilities.EnumViolation = 0

	attr := &spec.ParameterAttribute{
		Name: "status", Type: spec.TypeString, Required: true,
		HasEnum: true, Enum: []any{"open", "closed"},
	}
	v := g.GenerateValue(attr)
	require.False(t, v.IsSkip())
	assert.Contains(t, []string{"open", "closed"}, v.Unwrap())
}

func TestGenerateValueIntegerRespectsMinMax(t *testing.T) {
	g := noDictGenerator()
	g.Probabilities.MinMaxValue = 1
	g.Probabilities.EnumNumber = 0

	attr := &spec.ParameterAttribute{
		Name: "age", Type: spec.TypeInteger, Required: true,
		HasMinimum: true, Minimum: 5,
		HasMaximum: true, Maximum: 10,
	}
	for i := 0; i < 20; i++ {
		v := g.GenerateValue(attr)
		require.False(t, v.IsSkip())
		n := v.Unwrap().(int64)
		assert.GreaterOrEqual(t, n, int64(5))
		assert.LessOrEqual(t, n, int64(10))
	}
}

func TestGenerateValueBoolean(t *testing.T) {
	g := noDictGenerator()
	attr := &spec.ParameterAttribute{Name: "active", Type: spec.TypeBoolean, Required: true}
	v := g.GenerateValue(attr)
	require.False(t, v.IsSkip())
	assert.IsType(t, true, v.Unwrap())
}

func TestGenerateValueArraySkipsElidedChildren(t *testing.T) {
	g := noDictGenerator()
	g.Probabilities.SkipOptional = 1

	attr := &spec.ParameterAttribute{
		Name: "tags", Type: spec.TypeArray, Required: true,
		Children: []*spec.ParameterAttribute{
			{Name: "", Type: spec.TypeString, Required: false},
		},
	}
	v := g.GenerateValue(attr)
	require.False(t, v.IsSkip())
	assert.Empty(t, v.Unwrap().([]any))
}

func TestGenerateValueObjectKeyedByChildName(t *testing.T) {
	g := noDictGenerator()

	attr := &spec.ParameterAttribute{
		Name: "address", Type: spec.TypeObject, Required: true,
		Children: []*spec.ParameterAttribute{
			{Name: "city", Type: spec.TypeString, Required: true},
		},
	}
	v := g.GenerateValue(attr)
	require.False(t, v.IsSkip())
	obj := v.Unwrap().(map[string]any)
	assert.Contains(t, obj, "city")
}

func TestGenerateValueFileReturnsEmbeddedAsset(t *testing.T) {
	g := noDictGenerator()
	attr := &spec.ParameterAttribute{Name: "avatar", Type: spec.TypeFile, Required: true}
	v := g.GenerateValue(attr)
	require.False(t, v.IsSkip())
	assert.Equal(t, PlaceholderFile(), v.Unwrap())
}
