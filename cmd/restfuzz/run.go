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

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/antflydb/antfly-go/openrouter-genkit"
	"github.com/firebase/genkit/go/genkit"
	"github.com/spf13/cobra"

	"github.com/restfuzz/restfuzz/internal/agent"
	"github.com/restfuzz/restfuzz/internal/analysis"
	"github.com/restfuzz/restfuzz/internal/fuzzer"
	"github.com/restfuzz/restfuzz/internal/logging"
	"github.com/restfuzz/restfuzz/internal/spec"
)

var (
	yamlPath    string
	baseURL     string
	timeBudget  time.Duration
	warmUpTimes int
	useAgent    bool
	outputDir   string
	logStyle    string
	logLevel    string
	agentModel  string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a fuzzing session against a service described by an OpenAPI document",
	Long: `Run loads an OpenAPI/Swagger document, builds its operation dependency
graph, warms up the runtime dictionary, then fuzzes the service under test
until the time budget elapses.

Examples:
  # Fuzz a service for the default 10 minutes
  restfuzz run --yaml-path petstore.yaml --url http://localhost:8080

  # Fuzz for 2 minutes with the LLM agent enabled
  restfuzz run --yaml-path petstore.yaml --url http://localhost:8080 \
    --time-budget 2m --agent --agent-model openai/gpt-4
`,
	RunE: runFuzz,
}

func init() {
	runCmd.Flags().StringVar(&yamlPath, "yaml-path", "", "Path to the OpenAPI/Swagger document (required)")
	runCmd.Flags().StringVar(&baseURL, "url", "", "Base URL of the service under test (required)")
	runCmd.Flags().DurationVar(&timeBudget, "time-budget", 600*time.Second, "How long to fuzz before stopping")
	runCmd.Flags().IntVar(&warmUpTimes, "warm-up-times", 5, "Number of warm-up passes over single-method sequences")
	runCmd.Flags().BoolVar(&useAgent, "agent", false, "Enable the LLM agent to supplement generated sequences")
	runCmd.Flags().StringVar(&outputDir, "output-dir", ".", "Output directory (accepted; the run writes no files to it)")
	runCmd.Flags().StringVar(&logStyle, "log-style", "terminal", "Log style: terminal, json, noop")
	runCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level")
	runCmd.Flags().StringVar(&agentModel, "agent-model", "openai/gpt-4", "Genkit model reference driving the LLM agent")

	_ = runCmd.MarkFlagRequired("yaml-path")
	_ = runCmd.MarkFlagRequired("url")
}

func runFuzz(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	logger, err := logging.New(logging.Config{Style: logging.Style(logStyle), Level: logLevel})
	if err != nil {
		return fmt.Errorf("configuring logger: %w", err)
	}
	defer logger.Sync()

	doc, err := spec.Load(ctx, yamlPath)
	if err != nil {
		return fmt.Errorf("loading spec: %w", err)
	}

	sinks := []analysis.Sink{analysis.NewStatisticSink(logger)}

	var llmAgent *agent.Agent
	if useAgent {
		plugin := &openrouter.OpenRouter{}
		g := genkit.Init(ctx, genkit.WithPlugins(plugin))
		model := plugin.DefineModel(g, openrouter.ModelDefinition{Name: agentModel}, nil)
		transport := &agent.GenkitTransport{G: g, Model: model}
		llmAgent = agent.New(transport, logger)
	}

	cfg := fuzzer.Config{
		TimeBudget:  timeBudget,
		WarmUpTimes: warmUpTimes,
		BaseURL:     baseURL,
		UseAgent:    useAgent,
	}

	f := fuzzer.New(cfg, logger, sinks, llmAgent)
	f.Setup(ctx, doc)
	f.WarmUp(ctx)
	f.Fuzz(ctx)

	return nil
}
