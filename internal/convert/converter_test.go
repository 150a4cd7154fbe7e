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

package convert

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restfuzz/restfuzz/internal/analysis"
	"github.com/restfuzz/restfuzz/internal/datagen"
	"github.com/restfuzz/restfuzz/internal/depgraph"
	"github.com/restfuzz/restfuzz/internal/httpmodel"
	"github.com/restfuzz/restfuzz/internal/runtimedict"
	"github.com/restfuzz/restfuzz/internal/spec"
)

type recordingSink struct {
	responses []*httpmodel.Response
}

func (s *recordingSink) Name() string        { return "recording" }
func (s *recordingSink) OnInit(*depgraph.ODG) {}
func (s *recordingSink) OnIterationEnd()      {}
func (s *recordingSink) OnEnd()               {}

func (s *recordingSink) OnRequestResponse(r *httpmodel.Response) {
	s.responses = append(s.responses, r)
}

func createUser() *spec.Method {
	return &spec.Method{
		OperationID:    "createUser",
		Verb:           http.MethodPost,
		Path:           "/users",
		ParameterOrder: []string{"body"},
		Parameters: map[string]*spec.Parameter{
			"body": {
				Name:     "body",
				Location: spec.InBody,
				Required: true,
				Attribute: &spec.ParameterAttribute{
					Name: "body", Path: "body", Type: spec.TypeObject, Required: true,
					Children: []*spec.ParameterAttribute{
						{Name: "name", Path: "name", Type: spec.TypeString, Required: true},
					},
				},
			},
		},
	}
}

func getUser() *spec.Method {
	return &spec.Method{
		OperationID:    "getUser",
		Verb:           http.MethodGet,
		Path:           "/users/{id}",
		ParameterOrder: []string{"id"},
		Parameters: map[string]*spec.Parameter{
			"id": {
				Name:      "id",
				Location:  spec.InPath,
				Required:  true,
				Attribute: &spec.ParameterAttribute{Name: "id", Path: "id", Type: spec.TypeString, Required: true},
			},
		},
	}
}

func TestConvertDispatchesEveryMethodAndFeedsDictionaryAndSinks(t *testing.T) {
	var gotPaths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPaths = append(gotPaths, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"id":"abc123"}`))
	}))
	defer server.Close()

	create, get := createUser(), getUser()
	dict := runtimedict.New()
	sink := &recordingSink{}

	seq := &depgraph.Sequence{Methods: []*spec.Method{create, get}}

	conv := &Converter{
		BaseURL:       server.URL,
		Dict:          dict,
		Probabilities: datagen.DefaultProbabilities(),
	}
	conv.Sinks = []analysis.Sink{sink}

	conv.Convert(t.Context(), seq)

	require.Len(t, gotPaths, 2)
	assert.Equal(t, "/users", gotPaths[0])
	assert.Contains(t, gotPaths[1], "/users/")
	assert.NotContains(t, gotPaths[1], "{id}")

	assert.Len(t, dict.Responses(create), 1)

	require.Len(t, sink.responses, 2)
	for _, resp := range sink.responses {
		assert.True(t, resp.Accepted())
	}
}

func TestConvertRecordsServerErrorWithoutAbortingSequence(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	create, get := createUser(), getUser()
	dict := runtimedict.New()
	sink := &recordingSink{}

	seq := &depgraph.Sequence{Methods: []*spec.Method{create, get}}
	conv := &Converter{
		BaseURL:       server.URL,
		Dict:          dict,
		Probabilities: datagen.DefaultProbabilities(),
		Sinks:         []analysis.Sink{sink},
	}

	conv.Convert(t.Context(), seq)

	assert.Equal(t, 2, calls)
	require.Len(t, sink.responses, 2)
	for _, resp := range sink.responses {
		assert.False(t, resp.Accepted())
	}
}

func TestGenerateRequestPlacesValuesByLocation(t *testing.T) {
	gen := datagen.NewGenerator(datagen.DefaultProbabilities(), nil, nil)
	req := generateRequest(createUser(), gen)
	assert.Equal(t, "/users", req.URL)
	assert.Contains(t, req.Body, "name")

	idGen := datagen.NewGenerator(datagen.DefaultProbabilities(), nil, nil)
	idReq := generateRequest(getUser(), idGen)
	assert.NotContains(t, idReq.URL, "{id}")
}

func TestFlattenJSONBuildsDottedPaths(t *testing.T) {
	out := map[string]any{}
	flattenJSON(map[string]any{
		"name": "alice",
		"address": map[string]any{
			"city": "nyc",
		},
		"tags": []any{"a", "b"},
	}, "", out)

	assert.Equal(t, "alice", out["name"])
	assert.Equal(t, "nyc", out["address.city"])
	assert.Equal(t, "b", out["tags[]"])
}
