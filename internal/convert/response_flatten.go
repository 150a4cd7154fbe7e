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

package convert

import "fmt"

// flattenJSON walks a sonic-decoded JSON value (map[string]any /
// []any / scalars) and records every leaf under a dotted path matching
// internal/spec/loader.go's walkSchema naming convention ("field",
// "field.sub", "field[].sub"), so Runtime Dictionary lookups keyed by
// ParameterAttribute.Path line up with values actually observed on the
// wire.
func flattenJSON(value any, path string, out map[string]any) {
	switch v := value.(type) {
	case map[string]any:
		for k, child := range v {
			childPath := k
			if path != "" {
				childPath = path + "." + k
			}
			flattenJSON(child, childPath, out)
		}
	case []any:
		for _, elem := range v {
			flattenJSON(elem, path+"[]", out)
		}
	default:
		if path != "" {
			out[path] = v
		} else {
			out[fmt.Sprintf("%v", v)] = v
		}
	}
}
