// Package docs holds the OpenAPI document served under /swagger.
// Regenerate with `swag init -g cmd/api/main.go`.
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
            "url": "http://github.com/Pesokrava/jewelry_store"
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
        "/products": {
            "get": {
                "tags": ["Products"],
                "summary": "List products",
                "parameters": [
                    {"type": "string", "description": "Category id or slug", "name": "category", "in": "query"},
                    {"type": "boolean", "description": "Only featured products", "name": "featured", "in": "query"},
                    {"type": "string", "description": "Name search", "name": "q", "in": "query"},
                    {"type": "integer", "default": 20, "name": "limit", "in": "query"},
                    {"type": "integer", "default": 0, "name": "offset", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Envelope"}}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Products"],
                "summary": "Create a product",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/response.Envelope"}}
                }
            }
        },
        "/products/{id}/reviews": {
            "get": {
                "tags": ["Reviews"],
                "summary": "List approved reviews of a product",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Envelope"}}}
            }
        },
        "/cart": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Cart"],
                "summary": "Get the caller's cart",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Envelope"}}}
            }
        },
        "/reviews": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Reviews"],
                "summary": "Submit a review",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Envelope"}}
                }
            }
        },
        "/reviews/admin/{id}/status": {
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["Reviews"],
                "summary": "Moderate a review",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Envelope"}}}
            }
        },
        "/notifications/unread/count": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Notifications"],
                "summary": "Count unread notifications",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Envelope"}}}
            }
        }
    },
    "definitions": {
        "response.Envelope": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "data": {},
                "count": {"type": "integer"},
                "pagination": {"$ref": "#/definitions/response.Pagination"},
                "message": {"type": "string"},
                "error": {"type": "string"}
            }
        },
        "response.Pagination": {
            "type": "object",
            "properties": {
                "total": {"type": "integer"},
                "limit": {"type": "integer"},
                "offset": {"type": "integer"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Bearer token, e.g. \"Bearer eyJhbGci...\"",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api",
	Schemes:          []string{"http", "https"},
	Title:            "Jewelry Store API",
	Description:      "Storefront API for a jewelry shop: catalog, carts, moderated reviews, addresses and notifications.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
