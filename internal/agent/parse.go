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
	"regexp"
	"strings"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/restfuzz/restfuzz/internal/datagen"
	"github.com/restfuzz/restfuzz/internal/depgraph"
	"github.com/restfuzz/restfuzz/internal/httpmodel"
	"github.com/restfuzz/restfuzz/internal/spec"
)

var testCaseLine = regexp.MustCompile(`^TEST_CASE:\s*(.+)$`)
var requestInstanceLine = regexp.MustCompile(`^REQUEST_INSTANCE:\s*(.+)$`)

// filePlaceholder is the literal value plainInstancePreamble asks the
// model to emit for a file-upload field, swapped for the real embedded
// asset at parse time.
const filePlaceholder = "<file>"

// parseSequences scans reply for TEST_CASE lines, resolving each
// arrow-separated operation name against odg and dropping unresolved
// ones silently, mirroring generate_sequence_by_chatgpt. A malformed line
// (no methods resolve, or fewer than two) is logged at Warn and skipped
// rather than failing the whole reply.
func parseSequences(reply string, odg *depgraph.ODG, logger *zap.Logger) []*depgraph.Sequence {
	var sequences []*depgraph.Sequence

	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		m := testCaseLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		var methods []*spec.Method
		for _, name := range strings.Split(m[1], "->") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			if method := odg.FindMethodByOperationID(name); method != nil {
				methods = append(methods, method)
			}
		}

		if len(methods) < 2 {
			if logger != nil {
				logger.Warn("agent sequence line resolved fewer than 2 methods, skipping", zap.String("line", line))
			}
			continue
		}

		sequences = append(sequences, buildAnnotatedSequence(methods, odg))
	}

	return sequences
}

// buildAnnotatedSequence turns a resolved method list into a Sequence,
// attaching an InContextParameterDependency for every consecutive pair
// the ODG already knows an edge for — exactly the annotation
// generate_sequence_by_chatgpt performs once it has resolved names.
func buildAnnotatedSequence(methods []*spec.Method, odg *depgraph.ODG) *depgraph.Sequence {
	seq := &depgraph.Sequence{}
	for i, m := range methods {
		seq.AddMethod(m)
		if i == 0 {
			continue
		}
		producer, consumer := methods[i-1], m
		if edge := odg.EdgeFor(producer, consumer); edge != nil {
			seq.AddDependency(&depgraph.InContextParameterDependency{
				Dependencies: edge.Dependencies,
				Producer:     producer,
				Consumer:     consumer,
				ProducerIdx:  i - 1,
				ConsumerIdx:  i,
			})
		}
	}
	return seq
}

// parseRequestInstances scans reply for REQUEST_INSTANCE lines, decoding
// each JSON object and matching it back to the chunk member named by its
// operation_id field. A line with invalid JSON, a missing operation_id,
// or an operation_id outside chunk is logged at Warn and skipped.
func parseRequestInstances(reply string, chunk []*spec.Method, logger *zap.Logger) map[*spec.Method]*httpmodel.Request {
	byID := map[string]*spec.Method{}
	for _, m := range chunk {
		byID[m.OperationID] = m
	}

	out := map[*spec.Method]*httpmodel.Request{}

	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		match := requestInstanceLine.FindStringSubmatch(line)
		if match == nil {
			continue
		}

		var decoded map[string]any
		if err := sonic.Unmarshal([]byte(match[1]), &decoded); err != nil {
			if logger != nil {
				logger.Warn("agent request instance line is not valid JSON, skipping", zap.String("line", line), zap.Error(err))
			}
			continue
		}

		opID, _ := decoded["operation_id"].(string)
		method := byID[opID]
		if method == nil {
			if logger != nil {
				logger.Warn("agent request instance names unknown operation, skipping", zap.String("operation_id", opID))
			}
			continue
		}
		delete(decoded, "operation_id")

		req := httpmodel.NewRequest(method)
		req.Body = replaceFilePlaceholders(decoded)
		out[method] = req
	}

	return out
}

// replaceFilePlaceholders walks m swapping every occurrence of
// filePlaceholder for the embedded placeholder file asset, so a request
// instance generated by the Agent is dispatch-ready rather than carrying
// a literal string where bytes belong.
func replaceFilePlaceholders(m map[string]any) map[string]any {
	for k, v := range m {
		switch val := v.(type) {
		case string:
			if val == filePlaceholder {
				m[k] = datagen.PlaceholderFile()
			}
		case map[string]any:
			m[k] = replaceFilePlaceholders(val)
		}
	}
	return m
}
