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

	"go.uber.org/zap"
)

// Agent runs a single background goroutine that drains Commands and
// produces Results: the Fuzzer never blocks on a slow LLM call because
// both queues are unbounded, and results are only ever consumed at
// iteration boundaries.
type Agent struct {
	Transport Transport
	Logger    *zap.Logger

	commands *queue[Command]
	results  *queue[Result]

	conversation string
}

// New returns an Agent ready to Start, backed by transport.
func New(transport Transport, logger *zap.Logger) *Agent {
	return &Agent{
		Transport: transport,
		Logger:    logger,
		commands:  newQueue[Command](),
		results:   newQueue[Result](),
	}
}

// Enqueue pushes cmd onto the command queue without blocking.
func (a *Agent) Enqueue(cmd Command) {
	a.commands.push(cmd)
}

// DrainResults removes and returns every Result currently queued,
// without blocking — the Fuzzer's iteration-boundary poll.
func (a *Agent) DrainResults() []Result {
	return a.results.drain()
}

// Start launches the worker goroutine. Calling Start more than once, or
// using the Agent after ctx is done, is the caller's error to avoid.
func (a *Agent) Start(ctx context.Context) {
	go a.run(ctx)
}

// Stop unblocks the worker so it can exit; safe to call once.
func (a *Agent) Stop() {
	a.commands.close()
}

func (a *Agent) run(ctx context.Context) {
	for {
		cmd, ok := a.commands.popBlocking()
		if !ok {
			return
		}
		if ctx.Err() != nil {
			return
		}
		a.results.push(a.execute(ctx, cmd))
	}
}

// execute runs one Command to completion. A transport-level failure is
// logged and returned as an Err'd Result: never fatal, never retried
// within the command.
func (a *Agent) execute(ctx context.Context, cmd Command) Result {
	switch cmd.Type {
	case Initialize:
		conversation, err := a.Transport.Open(ctx, initPrompt)
		if err != nil {
			a.logWarn("opening agent conversation", err)
			return Result{Type: Initialize, Err: err}
		}
		a.conversation = conversation
		return Result{Type: Initialize}

	case GenerateSequence:
		reply, err := a.Transport.Send(ctx, a.conversation, initPrompt, sequenceGenerationPrompt(cmd.Methods))
		if err != nil {
			a.logWarn("generating sequence", err)
			return Result{Type: GenerateSequence, Err: err}
		}
		return Result{Type: GenerateSequence, Sequences: parseSequences(reply, cmd.ODG, a.Logger)}

	case GeneratePlainInstance:
		reply, err := a.Transport.Send(ctx, a.conversation, initPrompt, plainInstancePrompt(cmd.Methods))
		if err != nil {
			a.logWarn("generating plain instance", err)
			return Result{Type: GeneratePlainInstance, Err: err}
		}
		return Result{Type: GeneratePlainInstance, Requests: parseRequestInstances(reply, cmd.Methods, a.Logger)}

	default:
		return Result{Type: cmd.Type}
	}
}

func (a *Agent) logWarn(msg string, err error) {
	if a.Logger != nil {
		a.Logger.Warn("agent: "+msg, zap.Error(err))
	}
}
