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

// Package fuzzer is the top-level driver: it wires the ODG, the Runtime
// Dictionary, the Sequence Converter, the Analysis Sinks, and — when
// enabled — the LLM Agent into the setup/warm-up/fuzz loop ported from
// algo/fuzzer.py's Fuzzer class.
package fuzzer

import "time"

// Config mirrors constant/fuzzer_config.py's FuzzerConfig.
type Config struct {
	// TimeBudget bounds Fuzz's run time, default 600s.
	TimeBudget time.Duration
	// WarmUpTimes is how many passes WarmUp makes over the
	// single-method sequence set, default 5.
	WarmUpTimes int
	// BaseURL is the service under test's address.
	BaseURL string
	// UseAgent enables the LLM Agent bridge.
	UseAgent bool
}

// DefaultConfig returns the Python predecessor's defaults.
func DefaultConfig() Config {
	return Config{
		TimeBudget:  600 * time.Second,
		WarmUpTimes: 5,
	}
}
