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

package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restfuzz/restfuzz/internal/depgraph"
	"github.com/restfuzz/restfuzz/internal/spec"
)

func testODG(t *testing.T) (*depgraph.ODG, *spec.Method, *spec.Method) {
	t.Helper()
	createUser := &spec.Method{
		OperationID: "CreateUser",
		Verb:        "POST",
		Path:        "/users",
		ResponseAttribute: &spec.ParameterAttribute{
			Name: "", Path: "", Type: spec.TypeObject,
		},
	}
	getFriends := &spec.Method{
		OperationID: "ListUserFriends",
		Verb:        "GET",
		Path:        "/users/{user_id}/friends",
	}
	doc := &spec.Document{MethodList: []*spec.Method{createUser, getFriends}}
	odg := depgraph.NewODG(doc)
	odg.Build()
	return odg, createUser, getFriends
}

func TestParseSequencesResolvesNamesAndSkipsShortLines(t *testing.T) {
	odg, createUser, getFriends := testODG(t)

	reply := "some commentary\n" +
		"TEST_CASE: CreateUser -> ListUserFriends\n" +
		"TEST_CASE: nonexistent_only\n"

	sequences := parseSequences(reply, odg, nil)
	require.Len(t, sequences, 1)
	assert.Equal(t, []*spec.Method{createUser, getFriends}, sequences[0].Methods)
}

func TestParseSequencesSkipsUnresolvableLines(t *testing.T) {
	odg, _, _ := testODG(t)
	reply := "TEST_CASE: nope -> alsonope\n"
	sequences := parseSequences(reply, odg, nil)
	assert.Empty(t, sequences)
}

func TestParseRequestInstancesDecodesAndSubstitutesFile(t *testing.T) {
	m := &spec.Method{OperationID: "UploadAvatar"}
	reply := `REQUEST_INSTANCE: {"operation_id": "UploadAvatar", "name": "alice", "avatar": "<file>"}`

	requests := parseRequestInstances(reply, []*spec.Method{m}, nil)
	require.Contains(t, requests, m)

	req := requests[m]
	assert.Equal(t, "alice", req.Body["name"])
	assert.IsType(t, []byte{}, req.Body["avatar"])
	assert.NotContains(t, req.Body, "operation_id")
}

func TestParseRequestInstancesSkipsUnknownOperation(t *testing.T) {
	m := &spec.Method{OperationID: "UploadAvatar"}
	reply := `REQUEST_INSTANCE: {"operation_id": "SomethingElse", "x": 1}`

	requests := parseRequestInstances(reply, []*spec.Method{m}, nil)
	assert.Empty(t, requests)
}

func TestParseRequestInstancesSkipsInvalidJSON(t *testing.T) {
	m := &spec.Method{OperationID: "UploadAvatar"}
	reply := `REQUEST_INSTANCE: {not json}`

	requests := parseRequestInstances(reply, []*spec.Method{m}, nil)
	assert.Empty(t, requests)
}
