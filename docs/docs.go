// Package docs holds the committed swagger spec for the collection API.
// Regenerate with: swag init -g cmd/concierge-api/main.go
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/collections": {
            "get": {
                "produces": ["application/json"],
                "tags": ["collections"],
                "summary": "List collection requests",
                "description": "Get every submitted request with its current status",
                "responses": {
                    "200": {"description": "Requests"},
                    "500": {"description": "Internal server error"}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["collections"],
                "summary": "Submit a collection request",
                "description": "Collect one record from a configured source, score it and decide accept/reject. Async by default; pass sync=true to wait for the result.",
                "responses": {
                    "200": {"description": "Request accepted (or, for sync, the full result)"},
                    "400": {"description": "Invalid request payload"},
                    "500": {"description": "Internal server error"}
                }
            }
        },
        "/collections/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["collections"],
                "summary": "Get a collection result",
                "description": "Retrieve the terminal result for a request, including record, score and decision",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true, "description": "Request ID"}
                ],
                "responses": {
                    "200": {"description": "Result"},
                    "404": {"description": "Unknown request"}
                }
            }
        },
        "/collections/{id}/errors": {
            "get": {
                "produces": ["application/json"],
                "tags": ["collections"],
                "summary": "Get collection errors",
                "description": "Retrieve every error recorded while processing a request",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true, "description": "Request ID"}
                ],
                "responses": {
                    "200": {"description": "Errors"},
                    "500": {"description": "Internal server error"}
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Data Concierge API",
	Description:      "Multi-source data collection and quality-scoring pipeline",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
