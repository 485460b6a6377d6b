package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>folio — Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "folio", "version": "v1.0.0" },
  "components": {
    "securitySchemes": { "bearer": { "type": "http", "scheme": "bearer", "bearerFormat": "JWT" } },
    "schemas": {
      "Update": { "type": "object", "required": ["field"], "properties": { "field": {"type":"string"}, "value": { "oneOf": [{"type":"string"}, {"type":"array","items":{"type":"string"}}] } } },
      "Item": { "type": "object", "properties": { "id": {"type":"string"}, "createdAt": {"type":"integer"}, "fields": {"type":"object"} } }
    }
  },
  "paths": {
    "/": { "get": { "summary": "Portfolio page (edit variant for the owner)", "responses": { "200": { "description": "html" } } } },
    "/projects/{id}": { "get": { "summary": "Project detail with gallery", "parameters": [{"name":"slide","in":"query","schema":{"type":"integer"}}], "responses": { "200": { "description": "html" }, "404": { "description": "unknown project" } } } },
    "/auth/login": {
      "post": {
        "summary": "Owner sign-in",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"email":{"type":"string"},"password":{"type":"string"}}}}}},
        "responses": { "200": { "description": "tokens returned" }, "401": { "description": "invalid credentials" } }
      }
    },
    "/auth/refresh": {
      "post": { "summary": "Rotate refresh token and issue access token", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"refreshToken":{"type":"string"}}}}}}, "responses": { "200": { "description": "new tokens" }, "401": { "description": "invalid refresh" } } }
    },
    "/auth/logout": {
      "post": { "summary": "Sign out, revoke refresh and access token", "responses": { "200": { "description": "logged out" } } }
    },
    "/api/v1/me": { "get": { "summary": "Signed-in owner", "security": [{"bearer":[]}], "responses": { "200": { "description": "user or claims" }, "401": { "description": "signed out" } } } },
    "/api/content/{area}": {
      "get": { "summary": "Content document (defaults until loaded)", "responses": { "200": { "description": "document" }, "404": { "description": "unknown area" } } },
      "patch": { "summary": "Save one field", "security": [{"bearer":[]}], "requestBody": { "content": { "application/json": { "schema": {"$ref":"#/components/schemas/Update"}}}}, "responses": { "200": { "description": "saved" }, "400": { "description": "invalid update" }, "502": { "description": "write failed" } } }
    },
    "/api/content/{area}/stream": { "get": { "summary": "SSE snapshots of a content document", "responses": { "200": { "description": "text/event-stream" } } } },
    "/api/collections/{name}": {
      "get": { "summary": "Collection items in display order", "responses": { "200": { "description": "items" } } },
      "post": { "summary": "Add an item with defaults", "security": [{"bearer":[]}], "responses": { "201": { "description": "created" }, "502": { "description": "write failed" } } }
    },
    "/api/collections/{name}/stream": { "get": { "summary": "SSE snapshots of a collection", "responses": { "200": { "description": "text/event-stream" } } } },
    "/api/collections/{name}/{id}": {
      "patch": { "summary": "Save one item field", "security": [{"bearer":[]}], "requestBody": { "content": { "application/json": { "schema": {"$ref":"#/components/schemas/Update"}}}}, "responses": { "200": { "description": "item" }, "404": { "description": "unknown item" }, "502": { "description": "write failed" } } },
      "delete": { "summary": "Delete an item (needs confirm=true)", "security": [{"bearer":[]}], "parameters": [{"name":"confirm","in":"query","schema":{"type":"boolean"}}], "responses": { "204": { "description": "deleted" }, "409": { "description": "confirmation required" } } }
    },
    "/api/collections/{name}/{id}/gallery": { "post": { "summary": "Append an empty gallery slot", "security": [{"bearer":[]}], "responses": { "201": { "description": "slot index" } } } },
    "/api/collections/{name}/{id}/gallery/{index}": {
      "put": { "summary": "Set a gallery slot url", "security": [{"bearer":[]}], "responses": { "200": { "description": "item" } } },
      "delete": { "summary": "Remove a gallery slot (needs confirm=true)", "security": [{"bearer":[]}], "responses": { "200": { "description": "item" }, "409": { "description": "confirmation required" } } }
    },
    "/api/collections/{name}/{id}/fit": { "post": { "summary": "Toggle cover/contain", "security": [{"bearer":[]}], "responses": { "200": { "description": "item" } } } },
    "/api/media": { "post": { "summary": "Upload an image", "security": [{"bearer":[]}], "responses": { "200": { "description": "url" }, "415": { "description": "not an image" }, "502": { "description": "upload failed" } } } },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "responses": { "200": { "description": "text" } } } }
  }
}`
