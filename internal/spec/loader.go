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
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi2conv"
	"github.com/getkin/kin-openapi/openapi3"
)

// Load reads an OpenAPI 2.0 or 3.x document from a local file path or a
// URL, resolves $refs, and walks it into an immutable Document. This is
// the one fatal surface in the fuzzer: a parse or resolution failure
// here is returned to the caller, who treats it as a setup failure.
func Load(ctx context.Context, path string) (*Document, error) {
	raw, err := readDocument(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("loading openapi document: %w", err)
	}

	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = true

	doc, err := parseDocument(loader, raw)
	if err != nil {
		return nil, fmt.Errorf("parsing openapi document: %w", err)
	}

	if err := loader.ResolveRefsIn(doc, nil); err != nil {
		return nil, fmt.Errorf("resolving $refs: %w", err)
	}

	return build(doc)
}

func readDocument(ctx context.Context, path string) ([]byte, error) {
	if u, err := url.ParseRequestURI(path); err == nil && u.Scheme != "" {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, path, nil)
		if err != nil {
			return nil, err
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		return io.ReadAll(resp.Body)
	}
	return os.ReadFile(path)
}

// parseDocument detects a Swagger 2.0 document (top-level
// `"swagger": "2.0"`) and upconverts it with openapi2conv so the rest of
// the pipeline only ever walks an openapi3.T, handling both OpenAPI 2.0
// and 3.x inputs through a single downstream code path. The probe
// decodes JSON only, so a Swagger 2.0 document written in YAML is not
// detected and goes to the 3.x loader unconverted.
func parseDocument(loader *openapi3.Loader, raw []byte) (*openapi3.T, error) {
	var probe struct {
		Swagger string `json:"swagger"`
	}
	_ = sonic.Unmarshal(raw, &probe)

	if probe.Swagger == "2.0" {
		var v2 openapi2.T
		if err := sonic.Unmarshal(raw, &v2); err != nil {
			return nil, fmt.Errorf("parsing swagger 2.0 document: %w", err)
		}
		return openapi2conv.ToV3(&v2)
	}

	return loader.LoadFromData(raw)
}

func build(doc *openapi3.T) (*Document, error) {
	d := &Document{}

	paths := doc.Paths
	if paths == nil {
		return d, nil
	}

	pathTemplates := make([]string, 0, len(paths.Map()))
	for p := range paths.Map() {
		pathTemplates = append(pathTemplates, p)
	}
	sort.Strings(pathTemplates)

	seenOperationIDs := make(map[string]bool)

	for _, pathTemplate := range pathTemplates {
		pathItem := paths.Value(pathTemplate)
		api := &API{Path: pathTemplate, Methods: map[string]*Method{}}

		verbs := make([]string, 0, 8)
		for verb := range pathItem.Operations() {
			verbs = append(verbs, verb)
		}
		sort.Strings(verbs)

		for _, verb := range verbs {
			op := pathItem.Operations()[verb]
			method, err := buildMethod(pathTemplate, verb, op)
			if err != nil {
				return nil, fmt.Errorf("building method %s %s: %w", verb, pathTemplate, err)
			}
			if seenOperationIDs[method.OperationID] {
				return nil, fmt.Errorf("duplicate operation_id %q", method.OperationID)
			}
			seenOperationIDs[method.OperationID] = true

			api.Methods[verb] = method
			d.MethodList = append(d.MethodList, method)
		}

		d.APIs = append(d.APIs, api)
	}

	return d, nil
}

func buildMethod(pathTemplate, verb string, op *openapi3.Operation) (*Method, error) {
	operationID := op.OperationID
	if operationID == "" {
		operationID = strings.ToLower(verb) + strings.ReplaceAll(pathTemplate, "/", "_")
	}

	m := &Method{
		OperationID: operationID,
		Verb:        strings.ToUpper(verb),
		Path:        pathTemplate,
		Summary:     op.Summary,
		Description: op.Description,
		Parameters:  map[string]*Parameter{},
	}

	for _, pRef := range op.Parameters {
		p := pRef.Value
		if p == nil || p.Schema == nil {
			continue
		}
		attr := walkSchema(p.Schema.Value, p.Name, p.Name, map[*openapi3.Schema]bool{})
		attr.Required = p.Required
		param := &Parameter{
			Name:      p.Name,
			Location:  ParameterLocation(p.In),
			Required:  p.Required,
			Attribute: attr,
		}
		m.Parameters[p.Name] = param
		m.ParameterOrder = append(m.ParameterOrder, p.Name)
	}

	if op.RequestBody != nil && op.RequestBody.Value != nil {
		addBodyParameter(m, op.RequestBody.Value)
	}

	m.ResponseAttribute = firstSuccessResponseAttribute(op.Responses)

	if raw, err := sonic.Marshal(op); err == nil {
		m.RawSpec = raw
	}

	return m, nil
}

// addBodyParameter models the request body (JSON, form, or multipart) as
// a single synthetic Parameter named "body"/"formData"/"files" whose
// root attribute is an Object with one child per schema property —
// exactly the shape the Data Generator already knows how to recurse
// into for object types.
func addBodyParameter(m *Method, body *openapi3.RequestBody) {
	for contentType, mediaType := range body.Content {
		if mediaType.Schema == nil {
			continue
		}
		switch {
		case strings.Contains(contentType, "multipart/form-data"):
			attr := walkSchema(mediaType.Schema.Value, "files", "files", map[*openapi3.Schema]bool{})
			m.Parameters["files"] = &Parameter{Name: "files", Location: InFiles, Required: body.Required, Attribute: attr}
			m.ParameterOrder = append(m.ParameterOrder, "files")
		case strings.Contains(contentType, "application/x-www-form-urlencoded"):
			attr := walkSchema(mediaType.Schema.Value, "formData", "formData", map[*openapi3.Schema]bool{})
			m.Parameters["formData"] = &Parameter{Name: "formData", Location: InFormData, Required: body.Required, Attribute: attr}
			m.ParameterOrder = append(m.ParameterOrder, "formData")
		default: // application/json and anything else treated as a JSON body
			attr := walkSchema(mediaType.Schema.Value, "body", "body", map[*openapi3.Schema]bool{})
			m.Parameters["body"] = &Parameter{Name: "body", Location: InBody, Required: body.Required, Attribute: attr}
			m.ParameterOrder = append(m.ParameterOrder, "body")
		}
		return // one body content-type is enough for fuzzing purposes
	}
}

func firstSuccessResponseAttribute(responses *openapi3.Responses) *ParameterAttribute {
	if responses == nil {
		return nil
	}
	codes := make([]string, 0, len(responses.Map()))
	for code := range responses.Map() {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	for _, code := range codes {
		if len(code) != 3 || code[0] != '2' {
			continue
		}
		resp := responses.Value(code).Value
		if resp == nil {
			continue
		}
		for _, mediaType := range resp.Content {
			if mediaType.Schema == nil || mediaType.Schema.Value == nil {
				continue
			}
			return walkSchema(mediaType.Schema.Value, "", "", map[*openapi3.Schema]bool{})
		}
	}
	return nil
}

// walkSchema builds a ParameterAttribute tree from an openapi3.Schema,
// collapsing any schema already on the visited path to a childless
// {type: object} node so a self-referential schema terminates instead
// of recursing forever.
func walkSchema(s *openapi3.Schema, name, path string, visited map[*openapi3.Schema]bool) *ParameterAttribute {
	if s == nil {
		return &ParameterAttribute{Name: name, Path: path, Type: TypeObject}
	}
	if visited[s] {
		return &ParameterAttribute{Name: name, Path: path, Type: TypeObject}
	}
	visited = cloneVisited(visited)
	visited[s] = true

	attr := &ParameterAttribute{
		Name:      name,
		Path:      path,
		Type:      schemaType(s),
		RawSchema: schemaRawFragment(s),
	}

	if len(s.Enum) > 0 {
		attr.HasEnum = true
		attr.Enum = s.Enum
	}
	if s.Format != "" {
		attr.HasFormat = true
		attr.Format = s.Format
	}
	if s.Pattern != "" {
		attr.HasPattern = true
		attr.Pattern = s.Pattern
	}
	if s.MaxLength != nil {
		attr.HasMaxLength = true
		attr.MaxLength = *s.MaxLength
		attr.HasMinLength = true
		attr.MinLength = s.MinLength
	}
	if s.Max != nil {
		attr.HasMaximum = true
		attr.Maximum = *s.Max
	}
	if s.Min != nil {
		attr.HasMinimum = true
		attr.Minimum = *s.Min
	}

	switch attr.Type {
	case TypeArray:
		if s.Items != nil && s.Items.Value != nil {
			child := walkSchema(s.Items.Value, name+"[]", path+"[]", visited)
			attr.Children = append(attr.Children, child)
		}
	case TypeObject:
		required := map[string]bool{}
		for _, r := range s.Required {
			required[r] = true
		}
		names := make([]string, 0, len(s.Properties))
		for propName := range s.Properties {
			names = append(names, propName)
		}
		sort.Strings(names)
		for _, propName := range names {
			propRef := s.Properties[propName]
			if propRef == nil || propRef.Value == nil {
				continue
			}
			childPath := propName
			if path != "" {
				childPath = path + "." + propName
			}
			child := walkSchema(propRef.Value, propName, childPath, visited)
			child.Required = required[propName]
			attr.Children = append(attr.Children, child)
		}
	}

	return attr
}

func cloneVisited(v map[*openapi3.Schema]bool) map[*openapi3.Schema]bool {
	out := make(map[*openapi3.Schema]bool, len(v)+1)
	for k, ok := range v {
		out[k] = ok
	}
	return out
}

func schemaType(s *openapi3.Schema) AttributeType {
	if s.Type != nil {
		switch {
		case s.Type.Is("string"):
			return TypeString
		case s.Type.Is("integer"):
			return TypeInteger
		case s.Type.Is("number"):
			return TypeNumber
		case s.Type.Is("boolean"):
			return TypeBoolean
		case s.Type.Is("array"):
			return TypeArray
		case s.Type.Is("object"):
			return TypeObject
		}
	}
	if len(s.Properties) > 0 {
		return TypeObject
	}
	return TypeObject
}

func schemaRawFragment(s *openapi3.Schema) map[string]any {
	raw, err := sonic.Marshal(s)
	if err != nil {
		return nil
	}
	var frag map[string]any
	if err := sonic.Unmarshal(raw, &frag); err != nil {
		return nil
	}
	return frag
}
