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

package fuzzer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restfuzz/restfuzz/internal/analysis"
	"github.com/restfuzz/restfuzz/internal/depgraph"
	"github.com/restfuzz/restfuzz/internal/httpmodel"
	"github.com/restfuzz/restfuzz/internal/spec"
)

type recordingSink struct {
	inits         int
	responses     int
	iterationEnds int
	ends          int
}

func (s *recordingSink) Name() string { return "recording" }
func (s *recordingSink) OnInit(odg *depgraph.ODG) { s.inits++ }
func (s *recordingSink) OnRequestResponse(resp *httpmodel.Response) { s.responses++ }
func (s *recordingSink) OnIterationEnd() { s.iterationEnds++ }
func (s *recordingSink) OnEnd() { s.ends++ }

func testDocument() *spec.Document {
	listUsers := &spec.Method{OperationID: "ListUsers", Verb: http.MethodGet, Path: "/users"}
	return &spec.Document{MethodList: []*spec.Method{listUsers}}
}

func TestFuzzerSetupBuildsODGAndRunsInit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sink := &recordingSink{}
	cfg := Config{TimeBudget: 10 * time.Millisecond, WarmUpTimes: 1, BaseURL: server.URL}
	f := New(cfg, nil, []analysis.Sink{sink}, nil)

	f.Setup(context.Background(), testDocument())
	assert.Equal(t, 1, sink.inits)
	require.NotEmpty(t, f.sequences)
}

func TestFuzzerWarmUpAndFuzzDispatchRequests(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sink := &recordingSink{}
	cfg := Config{TimeBudget: 30 * time.Millisecond, WarmUpTimes: 2, BaseURL: server.URL}
	f := New(cfg, nil, []analysis.Sink{sink}, nil)

	ctx := context.Background()
	f.Setup(ctx, testDocument())
	f.WarmUp(ctx)
	assert.Equal(t, 2, sink.iterationEnds)
	assert.GreaterOrEqual(t, sink.responses, 2)

	f.Fuzz(ctx)
	assert.Equal(t, 1, sink.ends)
	assert.Greater(t, sink.responses, 2)
}
