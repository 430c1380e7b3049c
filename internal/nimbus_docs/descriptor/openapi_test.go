package descriptor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nimbus-docs/internal/nimbus_docs/model"
)

const petstore = `{
  "openapi": "3.0.0",
  "info": {"title": "Pets", "version": "1.0.0"},
  "servers": [{"url": "https://pets.example.com/v1/"}],
  "paths": {
    "/pets/{petId}": {
      "parameters": [
        {"name": "petId", "in": "path", "required": true, "schema": {"type": "integer"}}
      ],
      "get": {
        "parameters": [
          {"name": "verbose", "in": "query", "schema": {"type": "boolean"}, "description": "more output"},
          {"name": "X-Trace", "in": "header", "schema": {"type": "string"}}
        ],
        "responses": {"200": {"description": "ok"}}
      }
    },
    "/pets": {
      "post": {
        "requestBody": {
          "required": true,
          "content": {
            "application/json": {
              "schema": {
                "type": "object",
                "required": ["name"],
                "properties": {
                  "name": {"type": "string", "description": "pet name"},
                  "age": {"type": "integer"}
                }
              }
            }
          }
        },
        "responses": {"201": {"description": "created"}}
      },
      "get": {
        "responses": {"200": {"description": "ok"}}
      }
    }
  }
}`

func TestOpenAPIData(t *testing.T) {
	got, err := OpenAPIData([]byte(petstore), "")
	require.NoError(t, err)
	require.Len(t, got, 3)

	// "/pets" sorts before "/pets/{petId}", GET before POST
	assert.Equal(t, "GET", got[0].Method)
	assert.Equal(t, "https://pets.example.com/v1/pets", got[0].Endpoint)
	assert.Empty(t, got[0].Fields)

	post := got[1]
	assert.Equal(t, "POST", post.Method)
	require.Len(t, post.Fields, 2)
	assert.Equal(t, model.Field{Name: "age", Type: "integer", Role: model.RoleBody}, post.Fields[0])
	assert.Equal(t, model.Field{Name: "name", Type: "string", Role: model.RoleBody, Required: true, Description: "pet name"}, post.Fields[1])

	get := got[2]
	assert.Equal(t, "https://pets.example.com/v1/pets/{petId}", get.Endpoint)
	require.Len(t, get.Fields, 2)
	assert.Equal(t, model.Field{Name: "verbose", Type: "boolean", Role: model.RoleQuery, Description: "more output"}, get.Fields[0])
	assert.Equal(t, model.Field{Name: "petId", Type: "integer", Role: model.RolePath, Required: true}, get.Fields[1])
}

func TestOpenAPIData_BaseURLOverride(t *testing.T) {
	got, err := OpenAPIData([]byte(petstore), "http://localhost:9000/")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000/pets", got[0].Endpoint)
}

func TestOpenAPIData_Invalid(t *testing.T) {
	_, err := OpenAPIData([]byte("{"), "")
	assert.Error(t, err)
}
