// Package swagger holds the OpenAPI description of the UI server, served under /swagger/.
package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/manage/health": {
            "get": {
                "produces": ["text/plain"],
                "summary": "Liveness check",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/ui/state": {
            "get": {
                "summary": "Current view state",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.Response"}}}
            }
        },
        "/ui/login": {
            "post": {
                "consumes": ["application/json"],
                "summary": "Authenticate with username and password",
                "parameters": [{"in": "body", "name": "credentials", "required": true, "schema": {"$ref": "#/definitions/model.Credentials"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.Response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.Response"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.Response"}}
                }
            }
        },
        "/ui/register": {
            "post": {
                "consumes": ["application/json"],
                "summary": "Create an account, then return to the login view",
                "parameters": [{"in": "body", "name": "account", "required": true, "schema": {"$ref": "#/definitions/model.RegisterRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.Response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.Response"}},
                    "409": {"description": "Already signed in", "schema": {"$ref": "#/definitions/handler.Response"}}
                }
            }
        },
        "/ui/guest": {
            "post": {
                "summary": "Start a read-only guest session",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.Response"}}}
            }
        },
        "/ui/mode": {
            "post": {
                "summary": "Toggle between login and registration",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.Response"}}}
            }
        },
        "/ui/logout": {
            "post": {
                "summary": "Forget the session",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.Response"}}}
            }
        },
        "/ui/back": {
            "post": {
                "summary": "Return to the catalog",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.Response"}}}
            }
        },
        "/ui/notice/dismiss": {
            "post": {
                "summary": "Dismiss the current notice",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.Response"}}}
            }
        },
        "/ui/books": {
            "get": {
                "summary": "Load, search or page the catalog",
                "parameters": [
                    {"type": "string", "in": "query", "name": "search"},
                    {"type": "string", "enum": ["next", "previous"], "in": "query", "name": "page"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.Response"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.Response"}}
                }
            }
        },
        "/ui/books/{id}/select": {
            "post": {
                "summary": "Open book details",
                "parameters": [{"type": "integer", "in": "path", "name": "id", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.Response"}}
                }
            }
        },
        "/ui/books/{id}/borrow": {
            "post": {
                "summary": "Borrow a book",
                "parameters": [{"type": "integer", "in": "path", "name": "id", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.Response"}},
                    "403": {"description": "Guest session", "schema": {"$ref": "#/definitions/handler.Response"}}
                }
            }
        },
        "/ui/books/{id}/return": {
            "post": {
                "summary": "Return a book",
                "parameters": [{"type": "integer", "in": "path", "name": "id", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.Response"}},
                    "403": {"description": "Guest session", "schema": {"$ref": "#/definitions/handler.Response"}}
                }
            }
        },
        "/ui/books/{id}": {
            "delete": {
                "summary": "Delete a book, administrators only",
                "parameters": [
                    {"type": "integer", "in": "path", "name": "id", "required": true},
                    {"type": "boolean", "in": "query", "name": "confirm"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.Response"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.Response"}},
                    "409": {"description": "Confirmation required", "schema": {"$ref": "#/definitions/handler.Response"}}
                }
            }
        },
        "/ui/profile/open": {
            "post": {
                "summary": "Open the profile view",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.Response"}}}
            }
        },
        "/ui/profile": {
            "patch": {
                "consumes": ["application/json"],
                "summary": "Update email or phone number",
                "parameters": [{"in": "body", "name": "update", "required": true, "schema": {"$ref": "#/definitions/model.ProfileUpdate"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.Response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.Response"}}
                }
            }
        },
        "/ui/loans": {
            "get": {
                "summary": "Current loans",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.Response"}}}
            }
        },
        "/ui/history": {
            "get": {
                "summary": "Loan history",
                "parameters": [{"type": "string", "enum": ["next", "previous"], "in": "query", "name": "page"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.Response"}}}
            }
        }
    },
    "definitions": {
        "handler.Response": {
            "type": "object",
            "properties": {
                "state": {"type": "object"},
                "prompt": {"type": "string"}
            }
        },
        "model.Credentials": {
            "type": "object",
            "required": ["username", "password"],
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "model.RegisterRequest": {
            "type": "object",
            "required": ["username", "password"],
            "properties": {
                "username": {"type": "string", "maxLength": 150},
                "password": {"type": "string"},
                "email": {"type": "string"},
                "phone_number": {"type": "string", "maxLength": 15}
            }
        },
        "model.ProfileUpdate": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "phone_number": {"type": "string", "maxLength": 15}
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
	Title:            "library-client UI server",
	Description:      "View state of the library client for a browser front-end.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
