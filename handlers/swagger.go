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
		c.Header("Content-Security-Policy", swaggerCSP)
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

// swaggerCSP replaces the site-wide policy on the UI page, which pulls
// swagger-ui from unpkg and boots it with an inline script.
const swaggerCSP = "default-src 'self'; script-src 'self' https://unpkg.com 'unsafe-inline'; " +
	"style-src 'self' https://unpkg.com; img-src 'self' data:; base-uri 'self'; frame-ancestors 'none'; object-src 'none'"

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>acompanha — Swagger</title>
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

// Session cookie auth; mutating card routes also require the X-CSRF-Token header.
const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "acompanha", "version": "v1.0.0" },
  "components": {
    "securitySchemes": {
      "session": { "type": "apiKey", "in": "cookie", "name": "token" },
      "csrf": { "type": "apiKey", "in": "header", "name": "X-CSRF-Token" }
    },
    "schemas": {
      "Card": { "type": "object", "properties": {
        "id": {"type":"string"}, "isGestante": {"type":"boolean"},
        "childrenNames": {"type":"array","items":{"type":"string"}},
        "responsibleNames": {"type":"array","items":{"type":"string"}},
        "ageYears": {"type":"integer","minimum":0}, "ageMonths": {"type":"integer","minimum":0,"maximum":11},
        "address": {"type":"string"}, "contactInfo": {"type":"string"}, "cpf": {"type":"string"},
        "createdAt": {"type":"string","format":"date-time"}, "updatedAt": {"type":"string","format":"date-time"} } },
      "Error": { "type": "object", "properties": { "error": {"type":"string"} } }
    }
  },
  "paths": {
    "/api/login": {
      "post": {
        "summary": "Password login; sets the token and csrf cookies",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"email":{"type":"string"},"password":{"type":"string"}}}}}},
        "responses": { "200": { "description": "logged in" }, "400": { "description": "missing credentials" }, "401": { "description": "invalid credentials" }, "429": { "description": "rate limited" } }
      }
    },
    "/api/logout": {
      "post": { "summary": "Clear session cookies", "security": [{"session": []}], "responses": { "200": { "description": "logged out" }, "401": { "description": "no session" } } }
    },
    "/api/me": {
      "get": { "summary": "Current user", "security": [{"session": []}], "responses": { "200": { "description": "email and role" }, "401": { "description": "no session" } } }
    },
    "/api/cards": {
      "get": { "summary": "List cards", "security": [{"session": []}], "responses": { "200": { "description": "cards as stored" } } },
      "post": { "summary": "Create card", "security": [{"session": [], "csrf": []}], "responses": { "201": { "description": "created card" }, "400": { "description": "invalid card" }, "403": { "description": "csrf check failed" } } }
    },
    "/api/cards/{id}": {
      "put": { "summary": "Patch card fields", "security": [{"session": [], "csrf": []}], "parameters": [{"name":"id","in":"path","required":true,"schema":{"type":"string"}}], "responses": { "200": { "description": "updated card" }, "400": { "description": "invalid patch" }, "403": { "description": "csrf check failed" }, "404": { "description": "card not found" } } },
      "delete": { "summary": "Delete card", "security": [{"session": [], "csrf": []}], "parameters": [{"name":"id","in":"path","required":true,"schema":{"type":"string"}}], "responses": { "200": { "description": "deleted" }, "403": { "description": "csrf check failed" }, "404": { "description": "card not found" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "store unavailable" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "responses": { "200": { "description": "text exposition" } } } }
  }
}`
