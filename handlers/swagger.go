package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the audit service.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>scale-audit API docs</title>
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
  "info": { "title": "scale-audit", "version": "v1.0.0" },
  "components": {
    "securitySchemes": { "session": { "type": "apiKey", "in": "cookie", "name": "sid" } },
    "schemas": {
      "Credentials": { "type": "object", "required": ["email", "password"], "properties": { "email": {"type":"string"}, "password": {"type":"string"} } },
      "Error": { "type": "object", "properties": { "error": {"type":"string"} } },
      "Intake": { "type": "object", "required": ["businessDescription"], "properties": {
        "businessDescription": {"type":"string"}, "currentRevenue": {"type":"string"}, "businessType": {"type":"string"},
        "currentTools": {"type":"string"}, "teamSize": {"type":"string"}, "primaryBottleneck": {"type":"string"},
        "monthlyLeads": {"type":"string"}, "automationLevel": {"type":"string"} } }
    }
  },
  "paths": {
    "/api/signup": {
      "post": { "summary": "Create an account and start a session", "requestBody": { "content": { "application/json": { "schema": {"$ref":"#/components/schemas/Credentials"} } } },
        "responses": { "200": { "description": "account created, session cookie set" }, "400": { "description": "missing fields or email already exists" } } }
    },
    "/api/login": {
      "post": { "summary": "Start a session", "requestBody": { "content": { "application/json": { "schema": {"$ref":"#/components/schemas/Credentials"} } } },
        "responses": { "200": { "description": "session cookie set" }, "401": { "description": "invalid credentials" } } }
    },
    "/api/logout": { "post": { "summary": "End the session", "responses": { "200": { "description": "logged out" } } } },
    "/api/me": { "get": { "summary": "Current account", "security": [{"session": []}], "responses": { "200": { "description": "id, email, created_at" }, "401": { "description": "not authenticated" } } } },
    "/api/audit": {
      "post": { "summary": "Generate and store an automation audit", "security": [{"session": []}],
        "requestBody": { "content": { "application/json": { "schema": {"$ref":"#/components/schemas/Intake"} } } },
        "responses": { "200": { "description": "success, audit, auditId, result" }, "400": { "description": "business description required" }, "401": { "description": "unauthorized" }, "429": { "description": "rate limited" }, "500": { "description": "generation or storage failed" } } }
    },
    "/api/audits": { "get": { "summary": "Audit history, newest first", "security": [{"session": []}], "responses": { "200": { "description": "array of audits" }, "401": { "description": "unauthorized" } } } },
    "/api/publish-audit": {
      "post": { "summary": "Publish a stored audit", "security": [{"session": []}],
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","required":["auditId"],"properties":{"auditId":{"type":"string"},"auditContent":{"type":"string"}}} } } },
        "responses": { "200": { "description": "published location" }, "400": { "description": "auditId required" }, "404": { "description": "audit not found" }, "501": { "description": "publishing not configured" }, "502": { "description": "export failed" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "responses": { "200": { "description": "metrics" } } } }
  }
}`
