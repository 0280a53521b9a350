package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API Support",
            "url": "https://github.com/aashari/go-selection-relay"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Health check endpoint",
                "parameters": [
                    {"type": "string", "description": "Run a single check", "name": "check", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Healthy or degraded", "schema": {"$ref": "#/definitions/health.Response"}},
                    "503": {"description": "Unhealthy", "schema": {"$ref": "#/definitions/health.Response"}}
                }
            }
        },
        "/v1/messages": {
            "post": {
                "description": "Relays a captured selection to the inference service and returns exactly one reply. Disabled and failed requests are reported in the error field with status 200.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["messages"],
                "summary": "Process a selection",
                "parameters": [
                    {"description": "Channel request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/channel.Request"}}
                ],
                "responses": {
                    "200": {"description": "processedText or error", "schema": {"$ref": "#/definitions/channel.Response"}},
                    "400": {"description": "Malformed request", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "405": {"description": "Method not allowed", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "503": {"description": "Relay not accepting messages", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/v1/settings": {
            "get": {
                "produces": ["application/json"],
                "tags": ["settings"],
                "summary": "Extension settings",
                "parameters": [
                    {"type": "string", "description": "Mode to show (mcq or image), defaults to the stored mode", "name": "mode", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Stored settings", "schema": {"$ref": "#/definitions/settings.View"}},
                    "500": {"description": "Storage error", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            },
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["settings"],
                "summary": "Save extension settings",
                "parameters": [
                    {"description": "Settings to save", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/settings.Form"}}
                ],
                "responses": {
                    "200": {"description": "Stored settings", "schema": {"$ref": "#/definitions/settings.View"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "500": {"description": "Storage error", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/metrics": {
            "get": {
                "produces": ["application/json"],
                "tags": ["monitoring"],
                "summary": "Request and relay result counters",
                "responses": {"200": {"description": "Metrics snapshot"}}
            }
        }
    },
    "definitions": {
        "channel.Request": {
            "type": "object",
            "properties": {
                "action": {"type": "string", "example": "processText"},
                "text": {"type": "string"},
                "image": {"type": "string", "description": "data URI, omitted when no image was selected"},
                "sequence": {"type": "integer"}
            }
        },
        "channel.Response": {
            "type": "object",
            "properties": {
                "processedText": {"type": "string"},
                "error": {"type": "string"}
            }
        },
        "settings.Form": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "enum": ["on", "off"]},
                "mode": {"type": "string", "enum": ["mcq", "image"]},
                "url": {"type": "string"},
                "apiKey": {"type": "string", "description": "empty or masked keeps the stored key"},
                "customPrompt": {"type": "string"},
                "demoQuestions": {"type": "string"}
            }
        },
        "settings.View": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "mode": {"type": "string"},
                "url": {"type": "string"},
                "apiKey": {"type": "string", "description": "masked"},
                "apiKeySet": {"type": "boolean"},
                "customPrompt": {"type": "string"},
                "demoQuestions": {"type": "string"},
                "promptPlaceholder": {"type": "string"},
                "questionsPlaceholder": {"type": "string"},
                "showDemoQuestions": {"type": "boolean"}
            }
        },
        "errors.APIError": {
            "type": "object",
            "properties": {
                "type": {"type": "string"},
                "message": {"type": "string"},
                "field": {"type": "string"},
                "details": {"type": "string"}
            }
        },
        "errors.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"$ref": "#/definitions/errors.APIError"}
            }
        },
        "health.Response": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "timestamp": {"type": "string"},
                "uptime_seconds": {"type": "integer"},
                "version": {"type": "string"},
                "checks": {"type": "object"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Selection Relay",
	Description:      "Relays text and image selections captured on a page to a remote inference service and returns one answer per selection.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
