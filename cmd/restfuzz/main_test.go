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
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandRegistersRunSubcommand(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["run"])
}

func TestRunCommandRequiresYamlPathAndURL(t *testing.T) {
	cmd := rootCmd
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs([]string{"run"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required")
}

func TestRunCommandFlagDefaults(t *testing.T) {
	flag := runCmd.Flags().Lookup("time-budget")
	require.NotNil(t, flag)
	assert.Equal(t, (600 * time.Second).String(), flag.DefValue)

	warmUp := runCmd.Flags().Lookup("warm-up-times")
	require.NotNil(t, warmUp)
	assert.Equal(t, "5", warmUp.DefValue)

	style := runCmd.Flags().Lookup("log-style")
	require.NotNil(t, style)
	assert.Equal(t, "terminal", style.DefValue)

	agentFlag := runCmd.Flags().Lookup("agent")
	require.NotNil(t, agentFlag)
	assert.Equal(t, "false", agentFlag.DefValue)
}
