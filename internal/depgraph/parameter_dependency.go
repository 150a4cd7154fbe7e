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

package depgraph

import (
	"fmt"
	"sync"

	"github.com/restfuzz/restfuzz/internal/spec"
)

// ParameterDependency is one learned arm of the bandit that governs which
// producer attribute supplies a given consumer attribute: N and Q track
// how often it has been used and its running reward, updated by Update
// after every sequence dispatch that consulted it.
// Q starts at 5 rather than 0 so an untested dependency is optimistic
// relative to a repeatedly-penalized one, matching the Python
// predecessor's initial arm value.
type ParameterDependency struct {
	MatchRule string
	Producer  *spec.Method
	Consumer  *spec.Method

	ProducerParameter *spec.ParameterAttribute
	ConsumerParameter *spec.ParameterAttribute

	mu sync.Mutex
	N  float64
	Q  float64
}

// NewParameterDependency constructs a dependency arm with the predecessor's
// optimistic initial Q=5, N=0.
func NewParameterDependency(matchRule string, producer, consumer *spec.Method, producerAttr, consumerAttr *spec.ParameterAttribute) *ParameterDependency {
	return &ParameterDependency{
		MatchRule:         matchRule,
		Producer:          producer,
		Consumer:          consumer,
		ProducerParameter: producerAttr,
		ConsumerParameter: consumerAttr,
		Q:                 5,
	}
}

// Signature is the stable identity used for logging and as a map key
// component, combining producer and consumer attribute paths.
func (d *ParameterDependency) Signature() string {
	return fmt.Sprintf("producer: %s -> consumer: %s", d.ProducerParameter.Signature(), d.ConsumerParameter.Signature())
}

// Update applies the incremental-mean bandit update Q ← Q + (r − Q)/N
// after incrementing N. Safe for concurrent use since multiple in-flight
// sequences may reference the same dependency arm.
func (d *ParameterDependency) Update(reward float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.N++
	d.Q += (reward - d.Q) / d.N
}

// Snapshot returns the current (N, Q) pair under the lock, for reporting.
func (d *ParameterDependency) Snapshot() (n, q float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.N, d.Q
}

// InContextParameterDependency annotates one edge traversal within a
// concrete Sequence: which position in the sequence played producer and
// which played consumer, plus the subset of the edge's ParameterDependency
// arms that apply (restricted to those whose Producer matches, as the
// Python predecessor's producer_parameter_dependency_list property does).
type InContextParameterDependency struct {
	Dependencies []*ParameterDependency
	Producer     *spec.Method
	Consumer     *spec.Method
	ProducerIdx  int
	ConsumerIdx  int
}

// ProducerDependencies filters Dependencies down to those whose Producer
// equals this context's Producer.
func (c *InContextParameterDependency) ProducerDependencies() []*ParameterDependency {
	var out []*ParameterDependency
	for _, d := range c.Dependencies {
		if d.Producer == c.Producer {
			out = append(out, d)
		}
	}
	return out
}
