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

package spec

import (
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/kaptinlin/jsonschema"
)

// ValidationError is a single schema mismatch found by Validate.
type ValidationError struct {
	Field   string
	Message string
}

// ValidationResult is diagnostic only, never a formal proof of schema
// compliance; the Data Generator never consults it to
// decide what to generate, and the Converter never gates a request on
// it. Nothing in the fuzzing pipeline calls Validate; it reports how a
// given value disagrees with the declared schema to whoever calls it.
type ValidationResult struct {
	Valid  bool
	Errors []ValidationError
}

// Validate compiles attr's raw schema fragment and checks value against
// it. Ported from antfly/oapi/validate.go's DocumentSchema.Validate,
// generalized from a whole-document schema to a single
// ParameterAttribute's fragment.
func (a *ParameterAttribute) Validate(value any) (*ValidationResult, error) {
	if len(a.RawSchema) == 0 {
		return &ValidationResult{Valid: true}, nil
	}

	compiler := jsonschema.NewCompiler()
	compiler.WithDecoderJSON(sonic.Unmarshal)
	compiler.WithEncoderJSON(sonic.Marshal)

	schemaBytes, err := sonic.Marshal(a.RawSchema)
	if err != nil {
		return nil, fmt.Errorf("marshalling schema for %s: %w", a.Path, err)
	}

	schema, err := compiler.Compile(schemaBytes)
	if err != nil {
		return nil, fmt.Errorf("compiling schema for %s: %w", a.Path, err)
	}

	result := schema.Validate(value)
	if result.IsValid() {
		return &ValidationResult{Valid: true}, nil
	}

	out := &ValidationResult{Valid: false}
	for field, detail := range result.Errors {
		out.Errors = append(out.Errors, ValidationError{Field: field, Message: detail.Error()})
	}
	return out, nil
}
