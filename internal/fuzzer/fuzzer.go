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

package fuzzer

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/restfuzz/restfuzz/internal/agent"
	"github.com/restfuzz/restfuzz/internal/analysis"
	"github.com/restfuzz/restfuzz/internal/convert"
	"github.com/restfuzz/restfuzz/internal/datagen"
	"github.com/restfuzz/restfuzz/internal/depgraph"
	"github.com/restfuzz/restfuzz/internal/runtimedict"
	"github.com/restfuzz/restfuzz/internal/spec"
)

// Fuzzer owns the ODG, the active Sequence list, the Converter, the
// Runtime Dictionary, the registered Sinks, and an optional Agent —
// ported from algo/fuzzer.py's Fuzzer class.
type Fuzzer struct {
	Config Config
	Logger *zap.Logger
	Sinks  []analysis.Sink
	Agent  *agent.Agent

	odg       *depgraph.ODG
	dict      *runtimedict.Dictionary
	converter *convert.Converter
	sequences []*depgraph.Sequence
	single    []*depgraph.Sequence
}

// New returns a Fuzzer ready for Setup, which takes the document.
func New(cfg Config, logger *zap.Logger, sinks []analysis.Sink, a *agent.Agent) *Fuzzer {
	return &Fuzzer{
		Config: cfg,
		Logger: logger,
		Sinks:  sinks,
		Agent:  a,
	}
}

// Setup builds the ODG, generates the initial sequence set, initializes
// every Sink, and — if an Agent is configured — starts its worker and
// enqueues an Initialize command followed by a GenerateSequence command
// over every ODG method.
func (f *Fuzzer) Setup(ctx context.Context, doc *spec.Document) {
	f.odg = depgraph.NewODG(doc)
	f.odg.Build()

	f.dict = runtimedict.New()
	f.converter = &convert.Converter{
		BaseURL:       f.Config.BaseURL,
		Dict:          f.dict,
		Probabilities: datagen.DefaultProbabilities(),
		Sinks:         f.Sinks,
		Logger:        f.Logger,
	}

	f.sequences = f.odg.GenerateSequences()
	f.single = singleMethodSequences(f.sequences)

	for _, sink := range f.Sinks {
		sink.OnInit(f.odg)
	}

	if f.logger() != nil {
		f.logger().Info("fuzzer setup",
			zap.Int("methods", len(f.odg.Methods)),
			zap.Int("sequences", len(f.sequences)))
	}

	if f.Agent != nil {
		f.Agent.Start(ctx)
		f.Agent.Enqueue(agent.Command{Type: agent.Initialize})
		f.Agent.Enqueue(agent.Command{Type: agent.GenerateSequence, Methods: f.odg.Methods, ODG: f.odg})
	}
}

// singleMethodSequences filters seqs down to the ones with exactly one
// method — the subset algo/fuzzer.py's warm_up runs repeatedly.
func singleMethodSequences(seqs []*depgraph.Sequence) []*depgraph.Sequence {
	var out []*depgraph.Sequence
	for _, s := range seqs {
		if len(s.Methods) == 1 {
			out = append(out, s)
		}
	}
	return out
}

// WarmUp runs the single-method sequence set Config.WarmUpTimes times to
// seed the Runtime Dictionary before Fuzz begins, exactly as
// algo/fuzzer.py's warm_up.
func (f *Fuzzer) WarmUp(ctx context.Context) {
	if f.logger() != nil {
		f.logger().Info("warmup", zap.Int("times", f.Config.WarmUpTimes))
	}
	for i := 0; i < f.Config.WarmUpTimes; i++ {
		for _, seq := range f.single {
			f.converter.Convert(ctx, seq)
		}
		f.onIterationEnd()
	}
}

// Fuzz runs until Config.TimeBudget elapses, dispatching every active
// sequence once per iteration, draining any Sequences the Agent emitted
// since the last iteration, and ticking every Sink's OnIterationEnd. On
// deadline the in-flight sequence finishes its remaining methods
// best-effort (bounded by the per-request timeout already enforced by
// internal/convert) before Fuzz returns.
func (f *Fuzzer) Fuzz(ctx context.Context) {
	deadline := time.Now().Add(f.Config.TimeBudget)

	for time.Now().Before(deadline) {
		for _, seq := range f.sequences {
			f.converter.Convert(ctx, seq)
		}

		f.drainAgentResults()
		f.onIterationEnd()
	}

	for _, sink := range f.Sinks {
		sink.OnEnd()
	}
}

// drainAgentResults folds any Sequences the Agent produced since the
// last call into the active list. Results carrying an Err, and any
// GeneratePlainInstance Requests, are dropped without being logged or
// dispatched.
func (f *Fuzzer) drainAgentResults() {
	if f.Agent == nil {
		return
	}
	for _, result := range f.Agent.DrainResults() {
		if result.Err != nil {
			continue
		}
		if len(result.Sequences) > 0 {
			f.sequences = append(f.sequences, result.Sequences...)
			if f.logger() != nil {
				f.logger().Info("agent contributed sequences", zap.Int("count", len(result.Sequences)))
			}
		}
	}
}

func (f *Fuzzer) onIterationEnd() {
	for _, sink := range f.Sinks {
		sink.OnIterationEnd()
	}
}

func (f *Fuzzer) logger() *zap.Logger { return f.Logger }
