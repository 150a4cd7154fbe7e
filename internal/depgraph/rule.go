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
	"strings"

	"github.com/restfuzz/restfuzz/internal/spec"
)

// Rule is the pluggable predicate/builder pair the Operation Dependency
// Graph uses to decide whether one method's outputs can satisfy another
// method's inputs. Rules are tried in declared priority order; the first
// one whose HasDependency returns true wins the (producer, consumer) pair.
type Rule interface {
	Name() string
	HasDependency(producer, consumer *spec.Method) bool
	BuildDependencies(producer, consumer *spec.Method) []*ParameterDependency
}

// SubStringRule is the reference Rule: a dependency exists between a
// required consumer input attribute and a producer response attribute
// whenever one attribute name is a case-insensitive substring of the
// other.
type SubStringRule struct{}

func (SubStringRule) Name() string { return "substring" }

func (SubStringRule) HasDependency(producer, consumer *spec.Method) bool {
	return len(matchingPairs(producer, consumer)) > 0
}

func (r SubStringRule) BuildDependencies(producer, consumer *spec.Method) []*ParameterDependency {
	pairs := matchingPairs(producer, consumer)
	deps := make([]*ParameterDependency, 0, len(pairs))
	for _, pair := range pairs {
		deps = append(deps, NewParameterDependency(r.Name(), producer, consumer, pair.producerAttr, pair.consumerAttr))
	}
	return deps
}

type attrPair struct {
	producerAttr *spec.ParameterAttribute
	consumerAttr *spec.ParameterAttribute
}

func matchingPairs(producer, consumer *spec.Method) []attrPair {
	var pairs []attrPair
	for _, consumerAttr := range consumerInputLeaves(consumer) {
		for _, producerAttr := range producerResponseLeaves(producer) {
			if substringMatch(consumerAttr.Name, producerAttr.Name) {
				pairs = append(pairs, attrPair{producerAttr: producerAttr, consumerAttr: consumerAttr})
			}
		}
	}
	return pairs
}

func substringMatch(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	la, lb := strings.ToLower(a), strings.ToLower(b)
	return strings.Contains(la, lb) || strings.Contains(lb, la)
}

// consumerInputLeaves walks consumer's path, query, and body Parameters
// and returns the required leaf attributes: scalar attributes with no
// Children. Header, formData, and files parameters are excluded from
// substring matching on purpose — a header like X-Request-Id is not a
// candidate for this rule even though it might name-match a producer
// response leaf.
func consumerInputLeaves(consumer *spec.Method) []*spec.ParameterAttribute {
	var leaves []*spec.ParameterAttribute
	for _, name := range consumer.ParameterOrder {
		p := consumer.Parameters[name]
		if p == nil || p.Attribute == nil {
			continue
		}
		if p.Location != spec.InPath && p.Location != spec.InQuery && p.Location != spec.InBody {
			continue
		}
		collectRequiredLeaves(p.Attribute, &leaves)
	}
	return leaves
}

func collectRequiredLeaves(attr *spec.ParameterAttribute, out *[]*spec.ParameterAttribute) {
	if len(attr.Children) == 0 {
		if attr.Required {
			*out = append(*out, attr)
		}
		return
	}
	for _, child := range attr.Children {
		collectRequiredLeaves(child, out)
	}
}

// producerResponseLeaves walks producer's success-response attribute tree
// and returns every leaf attribute, required or not — any successfully
// returned field is a candidate producer value.
func producerResponseLeaves(producer *spec.Method) []*spec.ParameterAttribute {
	if producer.ResponseAttribute == nil {
		return nil
	}
	var leaves []*spec.ParameterAttribute
	collectAllLeaves(producer.ResponseAttribute, &leaves)
	return leaves
}

func collectAllLeaves(attr *spec.ParameterAttribute, out *[]*spec.ParameterAttribute) {
	if len(attr.Children) == 0 {
		if attr.Name != "" {
			*out = append(*out, attr)
		}
		return
	}
	for _, child := range attr.Children {
		collectAllLeaves(child, out)
	}
}
