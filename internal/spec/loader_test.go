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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const openapi3Doc = `{
  "openapi": "3.0.0",
  "info": {"title": "pets", "version": "1.0.0"},
  "paths": {
    "/pets": {
      "post": {
        "operationId": "createPet",
        "requestBody": {
          "required": true,
          "content": {
            "application/json": {
              "schema": {
                "type": "object",
                "required": ["name"],
                "properties": {
                  "name": {"type": "string"},
                  "tag": {"type": "string"}
                }
              }
            }
          }
        },
        "responses": {
          "201": {
            "description": "created",
            "content": {
              "application/json": {
                "schema": {
                  "type": "object",
                  "properties": {"id": {"type": "string"}}
                }
              }
            }
          }
        }
      }
    },
    "/pets/{id}": {
      "get": {
        "operationId": "getPet",
        "parameters": [
          {"name": "id", "in": "path", "required": true, "schema": {"type": "string"}}
        ],
        "responses": {"200": {"description": "ok"}}
      }
    }
  }
}`

const swagger2Doc = `{
  "swagger": "2.0",
  "info": {"title": "pets", "version": "1.0.0"},
  "paths": {
    "/pets": {
      "get": {
        "operationId": "listPets",
        "responses": {"200": {"description": "ok"}}
      }
    }
  }
}`

func writeDoc(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "openapi.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadParsesOpenAPI3AndBuildsMethods(t *testing.T) {
	path := writeDoc(t, openapi3Doc)

	doc, err := Load(t.Context(), path)
	require.NoError(t, err)
	require.Len(t, doc.MethodList, 2)

	byID := map[string]*Method{}
	for _, m := range doc.MethodList {
		byID[m.OperationID] = m
	}

	create := byID["createPet"]
	require.NotNil(t, create)
	assert.Equal(t, "POST", create.Verb)
	require.Contains(t, create.Parameters, "body")
	body := create.Parameters["body"]
	assert.Equal(t, InBody, body.Location)
	require.NotNil(t, body.Attribute)
	assert.Equal(t, TypeObject, body.Attribute.Type)

	var nameAttr *ParameterAttribute
	for _, child := range body.Attribute.Children {
		if child.Name == "name" {
			nameAttr = child
		}
	}
	require.NotNil(t, nameAttr)
	assert.True(t, nameAttr.Required)

	get := byID["getPet"]
	require.NotNil(t, get)
	assert.Equal(t, "GET", get.Verb)
	require.Contains(t, get.Parameters, "id")
	assert.Equal(t, InPath, get.Parameters["id"].Location)
}

func TestLoadUpconvertsSwagger2(t *testing.T) {
	path := writeDoc(t, swagger2Doc)

	doc, err := Load(t.Context(), path)
	require.NoError(t, err)
	require.Len(t, doc.MethodList, 1)
	assert.Equal(t, "listPets", doc.MethodList[0].OperationID)
}

func TestLoadRejectsDuplicateOperationIDs(t *testing.T) {
	dup := `{
      "openapi": "3.0.0",
      "info": {"title": "dup", "version": "1.0.0"},
      "paths": {
        "/a": {"get": {"operationId": "same", "responses": {"200": {"description": "ok"}}}},
        "/b": {"get": {"operationId": "same", "responses": {"200": {"description": "ok"}}}}
      }
    }`
	path := writeDoc(t, dup)

	_, err := Load(t.Context(), path)
	assert.Error(t, err)
}

func TestWalkSchemaCollapsesSelfReference(t *testing.T) {
	cyclic := `{
      "openapi": "3.0.0",
      "info": {"title": "cyclic", "version": "1.0.0"},
      "components": {
        "schemas": {
          "Node": {
            "type": "object",
            "properties": {
              "child": {"$ref": "#/components/schemas/Node"}
            }
          }
        }
      },
      "paths": {
        "/nodes": {
          "post": {
            "operationId": "createNode",
            "requestBody": {
              "required": true,
              "content": {"application/json": {"schema": {"$ref": "#/components/schemas/Node"}}}
            },
            "responses": {"200": {"description": "ok"}}
          }
        }
      }
    }`
	path := writeDoc(t, cyclic)

	doc, err := Load(t.Context(), path)
	require.NoError(t, err)
	require.Len(t, doc.MethodList, 1)

	body := doc.MethodList[0].Parameters["body"]
	require.NotNil(t, body.Attribute)
	require.Len(t, body.Attribute.Children, 1)
	child := body.Attribute.Children[0]
	assert.Equal(t, "child", child.Name)
	assert.Equal(t, TypeObject, child.Type)
	assert.Empty(t, child.Children)
}
