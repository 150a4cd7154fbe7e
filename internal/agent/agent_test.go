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
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTransport struct {
	reply string
	err   error
}

func (f *fakeTransport) Open(ctx context.Context, systemPrompt string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "conv-1", nil
}

func (f *fakeTransport) Send(ctx context.Context, conversation, systemPrompt, prompt string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func waitForResult(t *testing.T, a *Agent) Result {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		results := a.DrainResults()
		if len(results) > 0 {
			return results[0]
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("timed out waiting for agent result")
	return Result{}
}

func TestAgentInitializeRoundTrip(t *testing.T) {
	a := New(&fakeTransport{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a.Start(ctx)
	defer a.Stop()

	a.Enqueue(Command{Type: Initialize})
	result := waitForResult(t, a)
	assert.Equal(t, Initialize, result.Type)
	assert.NoError(t, result.Err)
}

func TestAgentGenerateSequenceParsesReply(t *testing.T) {
	odg, createUser, getFriends := testODG(t)
	transport := &fakeTransport{reply: "TEST_CASE: CreateUser -> ListUserFriends\n"}
	a := New(transport, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a.Start(ctx)
	defer a.Stop()

	a.Enqueue(Command{Type: GenerateSequence, Methods: odg.Methods, ODG: odg})
	result := waitForResult(t, a)
	require.NoError(t, result.Err)
	require.Len(t, result.Sequences, 1)
	assert.Equal(t, createUser, result.Sequences[0].Methods[0])
	assert.Equal(t, getFriends, result.Sequences[0].Methods[1])
}

func TestAgentTransportFailureIsLoggedNotFatal(t *testing.T) {
	a := New(&fakeTransport{err: errors.New("boom")}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a.Start(ctx)
	defer a.Stop()

	a.Enqueue(Command{Type: Initialize})
	result := waitForResult(t, a)
	assert.Error(t, result.Err)
}
