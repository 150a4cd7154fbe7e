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

import "github.com/restfuzz/restfuzz/internal/spec"

// Sequence is an ordered list of methods to dispatch, plus the
// InContextParameterDependency annotating each producer->consumer edge
// traversed while building it. Copy() deep-copies the slices (not the
// underlying Method/ParameterDependency pointers, which are shared,
// immutable-after-build graph nodes) so that branching during DFS never
// aliases a sibling branch's slice.
type Sequence struct {
	Methods      []*spec.Method
	Dependencies []*InContextParameterDependency
}

// AddMethod appends m to the method list.
func (s *Sequence) AddMethod(m *spec.Method) {
	s.Methods = append(s.Methods, m)
}

// AddDependency appends an edge-context dependency.
func (s *Sequence) AddDependency(d *InContextParameterDependency) {
	s.Dependencies = append(s.Dependencies, d)
}

// Contains reports whether m already appears in the sequence, used by DFS
// to detect a revisit and stop recursion rather than loop forever on a
// cyclic dependency graph.
func (s *Sequence) Contains(m *spec.Method) bool {
	for _, existing := range s.Methods {
		if existing == m {
			return true
		}
	}
	return false
}

// Copy returns an independent Sequence with its own backing arrays so
// appending to the copy never mutates the original — the Go analogue of
// the Python predecessor's copy.deepcopy(self), minus the deep copy of
// Method/ParameterDependency themselves, which are shared graph nodes
// built once by ODG.Build and never mutated afterward.
func (s *Sequence) Copy() *Sequence {
	out := &Sequence{
		Methods:      make([]*spec.Method, len(s.Methods)),
		Dependencies: make([]*InContextParameterDependency, len(s.Dependencies)),
	}
	copy(out.Methods, s.Methods)
	copy(out.Dependencies, s.Dependencies)
	return out
}
