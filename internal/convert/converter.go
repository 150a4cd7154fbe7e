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

// Package convert is the Sequence Converter / Executor: it turns a
// depgraph.Sequence into dispatched HTTP requests, one fresh *http.Client
// per sequence, feeding every observation back into the Runtime
// Dictionary, the consulted ParameterDependency reward fields, and every
// registered analysis.Sink.
package convert

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/restfuzz/restfuzz/internal/analysis"
	"github.com/restfuzz/restfuzz/internal/datagen"
	"github.com/restfuzz/restfuzz/internal/depgraph"
	"github.com/restfuzz/restfuzz/internal/httpmodel"
	"github.com/restfuzz/restfuzz/internal/runtimedict"
	"github.com/restfuzz/restfuzz/internal/spec"
)

// RequestTimeout is the fixed per-request deadline after which a pending
// dispatch is abandoned and recorded as httpmodel.StatusTimeout.
const RequestTimeout = 30 * time.Second

// Converter dispatches Sequences against BaseURL, using Dict to satisfy
// dependent parameters and Probabilities to tune synthesis for the rest.
type Converter struct {
	BaseURL       string
	Dict          *runtimedict.Dictionary
	Probabilities datagen.Probabilities
	Sinks         []analysis.Sink
	Logger        *zap.Logger
}

// Convert dispatches every method in seq in order against a fresh
// *http.Client, recreated per sequence so each sequence sees a clean
// cookie jar and connection pool. A failure at one method never aborts
// the sequence.
func (c *Converter) Convert(ctx context.Context, seq *depgraph.Sequence) {
	client := &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	incomingByConsumer := incomingEdgesByConsumer(seq)

	for _, method := range seq.Methods {
		gen := datagen.NewGenerator(c.Probabilities, c.Dict, incomingByConsumer[method])
		req := generateRequest(method, gen)

		resp := c.dispatch(ctx, client, method, req)

		c.Dict.Add(resp)

		reward := -1.0
		if resp.Accepted() {
			reward = 1.0
		}
		for _, consultation := range gen.Consulted {
			if consultation.Dependency != nil {
				consultation.Dependency.Update(reward)
			}
		}

		for _, sink := range c.Sinks {
			sink.OnRequestResponse(resp)
		}
	}
}

// incomingEdgesByConsumer derives, for every method appearing as a
// consumer in seq's annotated edges, the Edge list the Data Generator
// needs to attempt a Runtime Dictionary lookup — rebuilt per call from
// InContextParameterDependency rather than stored on Sequence, since a
// Sequence only needs to know producer/consumer index pairs to stay
// copy-cheap during DFS (internal/depgraph/sequence.go).
func incomingEdgesByConsumer(seq *depgraph.Sequence) map[*spec.Method][]*depgraph.Edge {
	out := map[*spec.Method][]*depgraph.Edge{}
	for _, ctxDep := range seq.Dependencies {
		edge := &depgraph.Edge{
			Producer:     ctxDep.Producer,
			Consumer:     ctxDep.Consumer,
			Dependencies: ctxDep.Dependencies,
		}
		out[ctxDep.Consumer] = append(out[ctxDep.Consumer], edge)
	}
	return out
}

// dispatch builds and sends the HTTP request, classifying the outcome
// into an httpmodel.Response. A context-deadline failure becomes the
// Timeout sentinel; any other transport error is logged and treated as a
// ClientFail with status 0 so the sequence keeps going.
func (c *Converter) dispatch(parent context.Context, client *http.Client, method *spec.Method, req *httpmodel.Request) *httpmodel.Response {
	ctx, cancel := context.WithTimeout(parent, RequestTimeout)
	defer cancel()

	httpReq, err := toHTTPRequest(ctx, c.BaseURL, method, req)
	if err != nil {
		resp := httpmodel.NewResponse(method, req, 0)
		resp.Err = err
		if c.Logger != nil {
			c.Logger.Error("building request", zap.String("operation_id", method.OperationID), zap.Error(err))
		}
		return resp
	}

	httpResp, err := client.Do(httpReq)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			resp := httpmodel.NewResponse(method, req, httpmodel.StatusTimeout)
			resp.Err = err
			if c.Logger != nil {
				c.Logger.Warn("request timed out", zap.String("operation_id", method.OperationID))
			}
			return resp
		}
		resp := httpmodel.NewResponse(method, req, 0)
		resp.Err = err
		resp.State = httpmodel.ClientFail
		if c.Logger != nil {
			c.Logger.Error("dispatching request", zap.String("operation_id", method.OperationID), zap.Error(err))
		}
		return resp
	}
	defer httpResp.Body.Close()

	rawBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		rawBody = nil
	}

	resp := httpmodel.NewResponse(method, req, httpResp.StatusCode)
	resp.RawBody = rawBody

	if strings.Contains(httpResp.Header.Get("Content-Type"), "json") && len(rawBody) > 0 {
		var decoded any
		if err := sonic.Unmarshal(rawBody, &decoded); err != nil {
			resp.State = httpmodel.ParseFail
			if c.Logger != nil {
				c.Logger.Warn("parsing json response",
					zap.String("operation_id", method.OperationID), zap.Error(err))
			}
		} else {
			resp.Body = decoded
			flattenJSON(decoded, "", resp.AttributeValues)
		}
	}

	return resp
}
