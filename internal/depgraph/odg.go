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

// Package depgraph builds the Operation Dependency Graph from a
// specification document and a Match-Rule Engine, then generates request
// Sequences by walking it.
package depgraph

import "github.com/restfuzz/restfuzz/internal/spec"

// Edge is one producer->consumer relationship discovered by the first
// matching Rule, carrying every ParameterDependency arm that rule built
// for the pair.
type Edge struct {
	Producer     *spec.Method
	Consumer     *spec.Method
	Dependencies []*ParameterDependency
}

// ODG is the Operation Dependency Graph: every Method in the document as
// a node, plus adjacency indices in both directions (by Method and by
// Edge) so the Sequence Generator and any future consumer (e.g. a
// diagnostic CLI subcommand) can walk it without recomputing anything.
type ODG struct {
	Methods []*spec.Method
	Rules   []Rule

	producerConsumer map[*spec.Method][]*spec.Method
	consumerProducer map[*spec.Method][]*spec.Method
	producerEdges    map[*spec.Method][]*Edge
	consumerEdges    map[*spec.Method][]*Edge
	edgeByPair       map[pairKey]*Edge

	// MaxDepth caps DFS sequence length when > 0; 0 means unbounded,
	// matching the Python predecessor which has no cap at all.
	MaxDepth int
}

type pairKey struct {
	producer *spec.Method
	consumer *spec.Method
}

// NewODG constructs an ODG from a document's flattened method list and a
// priority-ordered rule list. If rules is empty, SubStringRule is used
// as the reference rule.
func NewODG(doc *spec.Document, rules ...Rule) *ODG {
	if len(rules) == 0 {
		rules = []Rule{SubStringRule{}}
	}
	return &ODG{
		Methods:          doc.MethodList,
		Rules:            rules,
		producerConsumer: map[*spec.Method][]*spec.Method{},
		consumerProducer: map[*spec.Method][]*spec.Method{},
		producerEdges:    map[*spec.Method][]*Edge{},
		consumerEdges:    map[*spec.Method][]*Edge{},
		edgeByPair:       map[pairKey]*Edge{},
	}
}

// Build computes the producer/consumer adjacency for every ordered pair of
// distinct methods, trying each Rule in priority order and stopping at the
// first match — exactly the Python predecessor's build() double loop with
// a rule_list break.
func (g *ODG) Build() {
	for _, producer := range g.Methods {
		for _, consumer := range g.Methods {
			if producer == consumer {
				continue
			}
			for _, rule := range g.Rules {
				if !rule.HasDependency(producer, consumer) {
					continue
				}
				deps := rule.BuildDependencies(producer, consumer)
				edge := &Edge{Producer: producer, Consumer: consumer, Dependencies: deps}

				g.producerConsumer[producer] = append(g.producerConsumer[producer], consumer)
				g.consumerProducer[consumer] = append(g.consumerProducer[consumer], producer)
				g.producerEdges[producer] = append(g.producerEdges[producer], edge)
				g.consumerEdges[consumer] = append(g.consumerEdges[consumer], edge)
				g.edgeByPair[pairKey{producer, consumer}] = edge
				break
			}
		}
	}
}

// Producers returns the methods consumer depends on, in discovery order.
func (g *ODG) Producers(consumer *spec.Method) []*spec.Method {
	return g.consumerProducer[consumer]
}

// Consumers returns the methods that depend on producer, in discovery
// order.
func (g *ODG) Consumers(producer *spec.Method) []*spec.Method {
	return g.producerConsumer[producer]
}

// EdgeFor returns the Edge discovered for (producer, consumer), or nil.
func (g *ODG) EdgeFor(producer, consumer *spec.Method) *Edge {
	return g.edgeByPair[pairKey{producer, consumer}]
}

// FindMethodByOperationID returns the method whose OperationID equals id,
// or else the first method whose OperationID appears, case-insensitively,
// inside id — grounded on the Python predecessor's
// _find_method_by_name, which uses substring containment so an Agent's
// slightly-mangled operation id still resolves.
func (g *ODG) FindMethodByOperationID(id string) *spec.Method {
	for _, m := range g.Methods {
		if m.OperationID == id {
			return m
		}
	}
	for _, m := range g.Methods {
		if len(id) > 0 && containsFold(id, m.OperationID) {
			return m
		}
	}
	return nil
}

func containsFold(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if equalFold(haystack[i:i+len(needle)], needle) {
			return true
		}
	}
	return false
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// GenerateSequences returns every DFS sequence rooted at each producer,
// unioned with one single-method sequence per method — the Go translation
// of generate_sequence() + _generate_single_method_sequence().
func (g *ODG) GenerateSequences() []*Sequence {
	var sequences []*Sequence
	for _, producer := range orderedProducers(g) {
		sequences = append(sequences, g.dfs(producer, &Sequence{})...)
	}
	sequences = append(sequences, g.singleMethodSequences()...)
	return sequences
}

// orderedProducers returns methods with at least one outgoing edge, in
// Methods order, so sequence generation is deterministic across runs of
// the same document — the Python predecessor iterates a dict and gets
// Python's insertion-order guarantee for free; Go map iteration has no
// such guarantee, so we derive the order from g.Methods instead.
func orderedProducers(g *ODG) []*spec.Method {
	var producers []*spec.Method
	for _, m := range g.Methods {
		if len(g.producerConsumer[m]) > 0 {
			producers = append(producers, m)
		}
	}
	return producers
}

func (g *ODG) dfs(producer *spec.Method, seq *Sequence) []*Sequence {
	seq.AddMethod(producer)

	consumers := g.producerConsumer[producer]
	if len(consumers) == 0 {
		return []*Sequence{seq.Copy()}
	}
	if g.MaxDepth > 0 && len(seq.Methods) >= g.MaxDepth {
		return []*Sequence{seq.Copy()}
	}

	producerIdx := len(seq.Methods) - 1

	var out []*Sequence
	for _, consumer := range consumers {
		if seq.Contains(consumer) {
			// Revisiting a method already in the sequence ends this
			// branch without traversing the edge again, so a cyclic
			// dependency graph (A->B, B->A) yields [A,B] and [B,A] but
			// never [A,B,A].
			out = append(out, seq.Copy())
			continue
		}

		branch := seq.Copy()
		edge := g.edgeByPair[pairKey{producer, consumer}]
		ctxDep := &InContextParameterDependency{
			Producer:    producer,
			Consumer:    consumer,
			ProducerIdx: producerIdx,
			ConsumerIdx: producerIdx + 1,
		}
		if edge != nil {
			ctxDep.Dependencies = edge.Dependencies
		}
		branch.AddDependency(ctxDep)
		out = append(out, g.dfs(consumer, branch)...)
	}
	return out
}

func (g *ODG) singleMethodSequences() []*Sequence {
	out := make([]*Sequence, 0, len(g.Methods))
	for _, m := range g.Methods {
		seq := &Sequence{}
		seq.AddMethod(m)
		out = append(out, seq)
	}
	return out
}
