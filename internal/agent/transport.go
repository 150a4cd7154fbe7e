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

import "context"

// Transport sends a conversation turn to whatever LLM backs the Agent
// and returns its raw text reply. Initialize opens the conversation (a
// no-op for stateless transports); every later turn receives the same
// systemPrompt so a transport that does carry session state can tell
// turns from the same conversation apart.
//
// Modeled as an interface rather than a concrete genkit type so the
// worker in agent.go never has to know genkit exists — the only
// implementation in this package is GenkitTransport, but tests substitute
// a fake.
type Transport interface {
	// Open starts a conversation with the given system/init prompt and
	// returns an opaque conversation handle to pass to Send.
	Open(ctx context.Context, systemPrompt string) (conversation string, err error)

	// Send sends prompt as the next user turn of conversation and
	// returns the model's raw text reply.
	Send(ctx context.Context, conversation, systemPrompt, prompt string) (reply string, err error)
}
