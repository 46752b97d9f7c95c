// Package docs registers the OpenAPI document served at /swagger.
// Regenerate with: swag init -g internal/api/http/internal/v1/handler.go --instanceName internal
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
        "/verification/vendor-webhook": {
            "post": {
                "tags": ["verification"],
                "summary": "Vendor decision webhook",
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}, "422": {"description": "Unprocessable Entity"}, "503": {"description": "Service Unavailable"}}
            }
        },
        "/verification/submit": {
            "post": {
                "security": [{"UserAuth": []}],
                "tags": ["verification"],
                "summary": "Submit an ID for verification",
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "409": {"description": "Conflict"}}
            }
        },
        "/verification/documents": {
            "post": {
                "security": [{"UserAuth": []}],
                "tags": ["verification"],
                "summary": "Upload an ID image",
                "responses": {"201": {"description": "Created"}, "413": {"description": "Request Entity Too Large"}}
            }
        },
        "/verification/status": {
            "get": {
                "security": [{"UserAuth": []}],
                "tags": ["verification"],
                "summary": "Current verification status",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/admin/verifications": {
            "get": {
                "security": [{"AdminAuth": []}],
                "tags": ["admin"],
                "summary": "Moderation queue",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/admin/verifications/{id}/approve": {
            "post": {
                "security": [{"AdminAuth": []}],
                "tags": ["admin"],
                "summary": "Approve a verification",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/admin/verifications/{id}/reject": {
            "post": {
                "security": [{"AdminAuth": []}],
                "tags": ["admin"],
                "summary": "Reject a verification",
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            }
        },
        "/admin/verifications/{id}/audit-logs": {
            "get": {
                "security": [{"AdminAuth": []}],
                "tags": ["admin"],
                "summary": "Audit trail of a verification",
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "securityDefinitions": {
        "AdminAuth": {"type": "apiKey", "name": "Authorization", "in": "header"},
        "UserAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Pawsitter Verification API",
	Description:      "Sitter identity verification and admin moderation",
	InfoInstanceName: "internal",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
