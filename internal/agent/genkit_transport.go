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
	"context"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/google/uuid"
)

// GenkitTransport drives a genkit-registered model the way
// antfly-genkit/query_generator.go drives its query-planning model:
// ai.WithModel/ai.WithSystem/ai.WithPrompt plus a genkit generation call.
// Unlike GenerateQueries it asks for free text, since Agent replies are
// line-oriented (TEST_CASE:/REQUEST_INSTANCE: prefixes), not a single
// JSON object.
type GenkitTransport struct {
	G     *genkit.Genkit
	Model ai.Model
}

// Open has no remote session to establish — the genkit model calls in
// Send are already self-contained request/response turns — so it only
// mints a conversation handle the caller can log against, mirroring
// chatgpt_agent.py's start_conversation() without the scraped web
// session it previously relied on.
func (t *GenkitTransport) Open(ctx context.Context, systemPrompt string) (string, error) {
	return uuid.NewString(), nil
}

// Send issues one genkit generation call and returns its text. Genkit
// models in this transport are stateless per call, so the full
// conversation is not replayed — each Send carries systemPrompt plus the
// single turn's prompt, matching how GenerateSequence and
// GeneratePlainInstance are each a one-shot request over a self
// contained chunk of methods rather than a multi-turn dialogue.
func (t *GenkitTransport) Send(ctx context.Context, conversation, systemPrompt, prompt string) (string, error) {
	if t.G == nil || t.Model == nil {
		return "", fmt.Errorf("agent: genkit transport not configured with a model")
	}

	genOpts := []ai.GenerateOption{
		ai.WithModel(t.Model),
		ai.WithSystem(systemPrompt),
		ai.WithPrompt("%s", prompt),
	}

	resp, err := genkit.Generate(ctx, t.G, genOpts...)
	if err != nil {
		return "", fmt.Errorf("conversation %s: generating: %w", conversation, err)
	}
	return resp.Text(), nil
}
