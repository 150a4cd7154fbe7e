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

// Package runtimedict is the Runtime Dictionary: a per-method bounded
// history of successful responses and the values observed in them, used
// by the Data Generator to reuse live data instead of synthesizing it.
package runtimedict

import (
	"sync"

	"github.com/restfuzz/restfuzz/internal/depgraph"
	"github.com/restfuzz/restfuzz/internal/httpmodel"
	"github.com/restfuzz/restfuzz/internal/spec"
)

// FIFOLength is the default bounded history length per (method) and per
// (method, attribute path), matching the Python predecessor's
// collections.deque(maxlen=20).
const FIFOLength = 20

type attrKey struct {
	method *spec.Method
	path   string
}

// Dictionary is safe for concurrent use, though only the Fuzzer driver's
// own goroutine ever calls Add/Lookup today; the mutex exists so a future
// concurrent driver doesn't have to relearn this.
type Dictionary struct {
	mu sync.Mutex

	responses map[*spec.Method][]*httpmodel.Response
	values    map[attrKey][]any
}

// New returns an empty Dictionary.
func New() *Dictionary {
	return &Dictionary{
		responses: map[*spec.Method][]*httpmodel.Response{},
		values:    map[attrKey][]any{},
	}
}

// Add records resp if it is an accepted (2xx) response, pushing it onto
// the per-method FIFO and, for every attribute value in resp, onto the
// per-(method,attribute) FIFO. Non-2xx responses are rejected outright:
// the dictionary must never hold a response with status >= 300.
func (d *Dictionary) Add(resp *httpmodel.Response) {
	if !resp.Accepted() {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	m := resp.Method
	d.responses[m] = pushFIFO(d.responses[m], resp, FIFOLength)

	for path, value := range resp.AttributeValues {
		key := attrKey{method: m, path: path}
		d.values[key] = pushFIFO(d.values[key], value, FIFOLength)
	}
}

func pushFIFO[T any](fifo []T, v T, maxLen int) []T {
	fifo = append(fifo, v)
	if len(fifo) > maxLen {
		fifo = fifo[len(fifo)-maxLen:]
	}
	return fifo
}

// Lookup returns an observed value for consumerAttr: the most recent
// FIFO entry of the producer attribute of the first ParameterDependency
// on edges whose ConsumerParameter is consumerAttr and whose producer
// attribute has an observed value, plus the matched
// dependency so the caller can credit/penalize its reward once the
// consuming request is dispatched.
func (d *Dictionary) Lookup(consumerAttr *spec.ParameterAttribute, edges []*depgraph.Edge) (value any, dep *depgraph.ParameterDependency, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, edge := range edges {
		for _, candidate := range edge.Dependencies {
			if candidate.ConsumerParameter != consumerAttr {
				continue
			}
			key := attrKey{method: edge.Producer, path: candidate.ProducerParameter.Path}
			fifo := d.values[key]
			if len(fifo) == 0 {
				continue
			}
			return fifo[len(fifo)-1], candidate, true
		}
	}
	return nil, nil, false
}

// Responses returns the FIFO of accepted responses recorded for m, most
// recent last.
func (d *Dictionary) Responses(m *spec.Method) []*httpmodel.Response {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*httpmodel.Response, len(d.responses[m]))
	copy(out, d.responses[m])
	return out
}
