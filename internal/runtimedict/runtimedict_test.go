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

package runtimedict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restfuzz/restfuzz/internal/depgraph"
	"github.com/restfuzz/restfuzz/internal/httpmodel"
	"github.com/restfuzz/restfuzz/internal/spec"
)

func acceptedResponse(m *spec.Method, userID string) *httpmodel.Response {
	req := httpmodel.NewRequest(m)
	resp := httpmodel.NewResponse(m, req, 201)
	resp.AttributeValues = map[string]any{"user_id": userID}
	return resp
}

func TestAddRejectsNonAcceptedResponses(t *testing.T) {
	m := &spec.Method{OperationID: "CreateUser"}
	d := New()

	req := httpmodel.NewRequest(m)
	d.Add(httpmodel.NewResponse(m, req, 500))

	assert.Empty(t, d.Responses(m))
}

func TestAddAndResponsesFIFOBounded(t *testing.T) {
	m := &spec.Method{OperationID: "CreateUser"}
	d := New()

	for i := 0; i < FIFOLength+5; i++ {
		d.Add(acceptedResponse(m, "u"))
	}

	assert.Len(t, d.Responses(m), FIFOLength)
}

func TestLookupReturnsMostRecentValueForMatchingDependency(t *testing.T) {
	producer := &spec.Method{OperationID: "CreateUser"}
	consumer := &spec.Method{OperationID: "GetUser"}
	consumerAttr := &spec.ParameterAttribute{Name: "user_id", Path: "user_id"}
	producerAttr := &spec.ParameterAttribute{Name: "user_id", Path: "user_id"}

	dep := depgraph.NewParameterDependency("substring", producer, consumer, producerAttr, consumerAttr)
	edges := []*depgraph.Edge{{Producer: producer, Consumer: consumer, Dependencies: []*depgraph.ParameterDependency{dep}}}

	d := New()
	d.Add(acceptedResponse(producer, "first"))
	d.Add(acceptedResponse(producer, "second"))

	value, matched, ok := d.Lookup(consumerAttr, edges)
	require.True(t, ok)
	assert.Equal(t, "second", value)
	assert.Same(t, dep, matched)
}

func TestLookupMissesWhenNoObservationYet(t *testing.T) {
	producer := &spec.Method{OperationID: "CreateUser"}
	consumer := &spec.Method{OperationID: "GetUser"}
	consumerAttr := &spec.ParameterAttribute{Name: "user_id", Path: "user_id"}
	producerAttr := &spec.ParameterAttribute{Name: "user_id", Path: "user_id"}

	dep := depgraph.NewParameterDependency("substring", producer, consumer, producerAttr, consumerAttr)
	edges := []*depgraph.Edge{{Producer: producer, Consumer: consumer, Dependencies: []*depgraph.ParameterDependency{dep}}}

	d := New()
	_, _, ok := d.Lookup(consumerAttr, edges)
	assert.False(t, ok)
}
