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

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/restfuzz/restfuzz/internal/datagen"
	"github.com/restfuzz/restfuzz/internal/httpmodel"
	"github.com/restfuzz/restfuzz/internal/spec"
)

// generateRequest runs gen over every declared parameter of m and
// assembles an httpmodel.Request, placing each generated value per its
// Parameter.Location — the Go translation of build_request plus
// SequenceConverter._generate_random_data's per-parameter loop.
func generateRequest(m *spec.Method, gen *datagen.Generator) *httpmodel.Request {
	req := httpmodel.NewRequest(m)
	pathValues := map[string]any{}

	for _, name := range m.ParameterOrder {
		param := m.Parameters[name]
		if param == nil || param.Attribute == nil {
			continue
		}

		gv := gen.GenerateValue(param.Attribute)
		if gv.IsSkip() {
			continue
		}
		value := gv.Unwrap()

		switch param.Location {
		case spec.InPath:
			pathValues[param.Name] = value
		case spec.InQuery:
			req.Query[param.Name] = value
		case spec.InHeader:
			req.Headers[param.Name] = fmt.Sprintf("%v", value)
		case spec.InFormData:
			mergeMap(req.Form, value)
		case spec.InFiles:
			if b, ok := value.([]byte); ok {
				req.Files[param.Name] = b
			}
		case spec.InBody:
			mergeMap(req.Body, value)
		}

		if req.AttributeValues[param.Name] == nil {
			req.AttributeValues[param.Name] = map[string]any{}
		}
		req.AttributeValues[param.Name][param.Attribute.Path] = value
	}

	req.URL = substitutePath(m.Path, pathValues)
	return req
}

// mergeMap folds an object-shaped generated value into dst; a
// non-object value (the body schema was a bare scalar/array) is stored
// under the synthetic "value" key so it is never silently dropped.
func mergeMap(dst map[string]any, value any) {
	if obj, ok := value.(map[string]any); ok {
		for k, v := range obj {
			dst[k] = v
		}
		return
	}
	dst["value"] = value
}

func substitutePath(template string, values map[string]any) string {
	out := template
	for name, value := range values {
		out = strings.ReplaceAll(out, "{"+name+"}", fmt.Sprintf("%v", value))
	}
	return out
}

// toHTTPRequest renders an httpmodel.Request into a *http.Request against
// baseURL, encoding the body per whichever of Body/Form/Files is
// populated — at most one is expected to be, since a Method has at most
// one request-body Parameter (internal/spec/loader.go's addBodyParameter).
func toHTTPRequest(ctx context.Context, baseURL string, m *spec.Method, req *httpmodel.Request) (*http.Request, error) {
	fullURL := strings.TrimRight(baseURL, "/") + req.URL

	u, err := url.Parse(fullURL)
	if err != nil {
		return nil, fmt.Errorf("parsing url %q: %w", fullURL, err)
	}
	if len(req.Query) > 0 {
		q := u.Query()
		for k, v := range req.Query {
			q.Set(k, fmt.Sprintf("%v", v))
		}
		u.RawQuery = q.Encode()
	}

	var body *bytes.Reader
	contentType := ""

	switch {
	case len(req.Files) > 0:
		buf := &bytes.Buffer{}
		mw := multipart.NewWriter(buf)
		for field, content := range req.Files {
			part, err := mw.CreateFormFile(field, field)
			if err != nil {
				return nil, fmt.Errorf("creating multipart field %s: %w", field, err)
			}
			if _, err := part.Write(content); err != nil {
				return nil, fmt.Errorf("writing multipart field %s: %w", field, err)
			}
		}
		for field, value := range req.Form {
			if err := mw.WriteField(field, fmt.Sprintf("%v", value)); err != nil {
				return nil, fmt.Errorf("writing multipart form field %s: %w", field, err)
			}
		}
		if err := mw.Close(); err != nil {
			return nil, fmt.Errorf("closing multipart writer: %w", err)
		}
		body = bytes.NewReader(buf.Bytes())
		contentType = mw.FormDataContentType()

	case len(req.Form) > 0:
		form := url.Values{}
		for k, v := range req.Form {
			form.Set(k, fmt.Sprintf("%v", v))
		}
		body = bytes.NewReader([]byte(form.Encode()))
		contentType = "application/x-www-form-urlencoded"

	case len(req.Body) > 0:
		raw, err := sonic.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("marshalling json body: %w", err)
		}
		body = bytes.NewReader(raw)
		contentType = "application/json"

	default:
		body = bytes.NewReader(nil)
	}

	httpReq, err := http.NewRequestWithContext(ctx, m.Verb, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("building http request: %w", err)
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	return httpReq, nil
}
