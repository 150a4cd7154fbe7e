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

// Package logging builds the zap.Logger every other package logs through,
// supporting the same output styles as the ambient logging layer this is
// adapted from: a human-readable terminal style for local runs, a
// structured json style for shipping to a log pipeline, and a noop style
// for tests.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Style selects the encoder New builds around.
type Style string

const (
	StyleTerminal Style = "terminal"
	StyleJSON     Style = "json"
	StyleNoop     Style = "noop"
)

// Config controls logger construction. A zero Config yields a terminal
// logger at info level.
type Config struct {
	Style Style
	Level string
}

// New builds a *zap.Logger per cfg. An invalid Style or Level returns an
// error rather than calling log.Fatal — this package is imported by a
// library-shaped command (cmd/restfuzz), so construction failures must be
// handleable by the caller instead of killing the process outright.
func New(cfg Config) (*zap.Logger, error) {
	style := cfg.Style
	if style == "" {
		style = StyleTerminal
	}

	level := zapcore.InfoLevel
	if cfg.Level != "" {
		parsed, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("parsing log level %q: %w", cfg.Level, err)
		}
		level = parsed
	}

	switch style {
	case StyleNoop:
		return zap.NewNop(), nil

	case StyleJSON:
		zcfg := zap.NewProductionConfig()
		zcfg.Level = zap.NewAtomicLevelAt(level)
		logger, err := zcfg.Build(zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel))
		if err != nil {
			return nil, fmt.Errorf("building json logger: %w", err)
		}
		return logger, nil

	case StyleTerminal:
		zcfg := zap.NewDevelopmentConfig()
		zcfg.Level = zap.NewAtomicLevelAt(level)
		logger, err := zcfg.Build(zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel))
		if err != nil {
			return nil, fmt.Errorf("building terminal logger: %w", err)
		}
		return logger, nil

	default:
		return nil, fmt.Errorf("invalid logging style %q: must be one of terminal, json, noop", style)
	}
}
