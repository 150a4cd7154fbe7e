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
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "restfuzz",
	Short: "restfuzz - a stateful black-box fuzzer for RESTful APIs",
	Long: `restfuzz exercises a RESTful service described by an OpenAPI/Swagger
document, building an operation dependency graph from producer/consumer
parameter matches, generating multi-step call sequences, and feeding
observed responses back into later requests through a bounded runtime
dictionary. An optional LLM agent supplements the generated sequence
set; request instances it produces are not dispatched.`,
	Version: version,
}

func init() {
	rootCmd.AddCommand(runCmd)
}
