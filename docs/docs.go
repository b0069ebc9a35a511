// Package docs holds the OpenAPI documents served by the API. Two documents
// are registered: "public" for the account surface and "admin" for the admin
// panel. The admin document strips the /api/admin prefix from its paths; the
// admin frontend mounts the API under that prefix itself.
package docs

import "github.com/swaggo/swag"

const publicTemplate = `{
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
        "/account/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["account"],
                "summary": "Log in with email and password",
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request"},
                    "401": {"description": "Unauthorized"}
                }
            }
        },
        "/account/logout": {
            "post": {
                "tags": ["account"],
                "summary": "Log out",
                "responses": {
                    "204": {"description": "No Content"},
                    "401": {"description": "Unauthorized"}
                }
            }
        },
        "/account": {
            "get": {
                "produces": ["application/json"],
                "tags": ["account"],
                "summary": "Current user",
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Unauthorized"}
                }
            },
            "put": {
                "consumes": ["application/json"],
                "tags": ["account"],
                "summary": "Update own profile",
                "responses": {
                    "204": {"description": "No Content"},
                    "400": {"description": "Bad Request"},
                    "401": {"description": "Unauthorized"}
                }
            }
        },
        "/account/refreshcookie": {
            "post": {
                "consumes": ["application/json"],
                "tags": ["account"],
                "summary": "Refresh the session cookie",
                "responses": {
                    "204": {"description": "No Content"},
                    "401": {"description": "Unauthorized"},
                    "403": {"description": "Forbidden"}
                }
            }
        },
        "/account/verifypassword": {
            "post": {
                "consumes": ["application/json"],
                "tags": ["account"],
                "summary": "Verify the current password",
                "responses": {
                    "204": {"description": "No Content"},
                    "400": {"description": "Bad Request"},
                    "401": {"description": "Unauthorized"}
                }
            }
        }
    }
}`

const adminTemplate = `{
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
        "/user": {
            "get": {
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "List users",
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Unauthorized"},
                    "403": {"description": "Forbidden"}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Create a user",
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Bad Request"}
                }
            }
        },
        "/user/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Get a user",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found"}
                }
            },
            "delete": {
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Delete a user",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/user/{id}/roles": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Grant a role",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/user/{id}/roles/{role}": {
            "delete": {
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Revoke a role",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"type": "string", "name": "role", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/user/emailfree": {
            "get": {
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Check email availability",
                "parameters": [
                    {"type": "string", "name": "email", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/jobs": {
            "get": {
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "List scheduled jobs",
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Unauthorized"},
                    "403": {"description": "Forbidden"}
                }
            }
        }
    }
}`

// PublicSwaggerInfo describes the account-facing API document.
var PublicSwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "LastMile Account API",
	Description:      "Session and self-service account endpoints.",
	InfoInstanceName: "public",
	SwaggerTemplate:  publicTemplate,
}

// AdminSwaggerInfo describes the admin-panel API document. Its paths omit the
// /api/admin prefix the server actually mounts them under.
var AdminSwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/admin",
	Schemes:          []string{},
	Title:            "LastMile Admin API",
	Description:      "User directory and role management for the admin panel.",
	InfoInstanceName: "admin",
	SwaggerTemplate:  adminTemplate,
}

func init() {
	swag.Register(PublicSwaggerInfo.InstanceName(), PublicSwaggerInfo)
	swag.Register(AdminSwaggerInfo.InstanceName(), AdminSwaggerInfo)
}
