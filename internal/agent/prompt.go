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
	"fmt"
	"strings"

	"github.com/restfuzz/restfuzz/internal/spec"
)

// initPrompt is the fixed system prompt every conversation opens with,
// reworded from chatgpt_agent.py's init_prompt to stay model-neutral now
// that the transport is genkit-backed rather than a scraped ChatGPT web
// session.
const initPrompt = "You are an experienced RESTful API tester helping write test cases for a web service under test."

// sequenceGenerationPreamble precedes the method listing in a
// GenerateSequence turn, ported in spirit from
// chatgpt_agent.py's sequence_generation_prompt.
const sequenceGenerationPreamble = `You are given a list of RESTful APIs in the format ` +
	"`api_name: method: path (summary) (description)`" + `, using the empty string when a
value is absent. These APIs call into the same service and some depend on values
produced by others (for example, a path parameter named user_id in one API may be
satisfied by a field the response of another API returns). Write test cases that call
multiple APIs in an order that respects those dependencies. Each test case must be on
its own line in the exact form:
TEST_CASE: api_name -> api_name -> api_name
List at least 20 test cases. Do not add any other commentary.

The list of RESTful APIs is as follows:
`

// plainInstancePreamble precedes the method-schema chunk in a
// GeneratePlainInstance turn.
const plainInstancePreamble = `For each of the following RESTful API operations, produce one realistic
JSON request body/parameter template that would plausibly satisfy the operation's
declared schema. Use the literal string "<file>" for any field that should hold
uploaded file contents. Reply with exactly one line per operation in the form:
REQUEST_INSTANCE: {"operation_id": "...", ...}
Do not add any other commentary.

The operations are as follows:
`

// buildMethodListing renders methods the way chatgpt_agent.py's prompt
// describes: "api_name: method: path (summary) (description)", one per
// line, empty string standing in for absent summary/description.
func buildMethodListing(methods []*spec.Method) string {
	var sb strings.Builder
	for _, m := range methods {
		fmt.Fprintf(&sb, "%s: %s: %s (%s) (%s)\n", m.OperationID, m.Verb, m.Path, m.Summary, m.Description)
	}
	return sb.String()
}

func sequenceGenerationPrompt(methods []*spec.Method) string {
	return sequenceGenerationPreamble + buildMethodListing(methods)
}

// buildSchemaListing renders the raw OpenAPI operation fragment for each
// method in chunk, the richer detail GeneratePlainInstance needs that a
// one-line summary can't carry.
func buildSchemaListing(chunk []*spec.Method) string {
	var sb strings.Builder
	for _, m := range chunk {
		fmt.Fprintf(&sb, "operation_id: %s\n%s\n\n", m.OperationID, string(m.RawSpec))
	}
	return sb.String()
}

func plainInstancePrompt(chunk []*spec.Method) string {
	return plainInstancePreamble + buildSchemaListing(chunk)
}
