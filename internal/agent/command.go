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

// Package agent is the LLM Agent bridge: a single background worker
// consuming an unbounded command queue and producing results onto a
// second unbounded queue, ported from algo/chatgpt_agent.py's three
// command kinds (constant/chatgpt_config.py's ChatGPTCommandType enum)
// onto a genkit-backed transport instead of a scraped ChatGPT web
// session.
package agent

import (
	"github.com/restfuzz/restfuzz/internal/depgraph"
	"github.com/restfuzz/restfuzz/internal/httpmodel"
	"github.com/restfuzz/restfuzz/internal/spec"
)

// CommandType mirrors constant/chatgpt_config.py's ChatGPTCommandType.
type CommandType string

const (
	Initialize            CommandType = "initialize"
	GenerateSequence      CommandType = "generate_sequence"
	GeneratePlainInstance CommandType = "generate_plain_instance"
)

// DefaultChunkSize is the number of method schemas offered to a single
// GeneratePlainInstance call.
const DefaultChunkSize = 6

// Command is one unit of work handed to the Agent's worker goroutine.
// Exactly one of the Type-specific fields is meaningful.
type Command struct {
	Type CommandType

	// Methods is the full method list for GenerateSequence, or the chunk
	// of up to DefaultChunkSize methods for GeneratePlainInstance.
	Methods []*spec.Method

	// ODG resolves operation-id-like names back to *spec.Method for
	// GenerateSequence, via ODG.FindMethodByOperationID.
	ODG *depgraph.ODG
}

// Result is what the worker pushes onto the response queue after
// executing a Command. Exactly one of Sequences/Requests is populated,
// matching the Command.Type that produced it.
type Result struct {
	Type CommandType

	// Sequences holds the GenerateSequence outcome: zero or more
	// depgraph.Sequence values built from resolved TEST_CASE lines.
	Sequences []*depgraph.Sequence

	// Requests holds the GeneratePlainInstance outcome: one pending
	// httpmodel.Request per parsed REQUEST_INSTANCE line, keyed by the
	// spec.Method it targets.
	Requests map[*spec.Method]*httpmodel.Request

	// Err is set when the command failed outright (transport error);
	// a partially-malformed response is never an Err, only a shorter
	// Sequences/Requests result plus a Warn-level log line.
	Err error
}
