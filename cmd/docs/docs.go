// Package docs holds the OpenAPI document served under /swagger.
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
        "/auth/token": {
            "post": {
                "description": "Exchanges the device pairing key (x-api-key header) for a JWT used by local clients.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Issue a client token",
                "parameters": [
                    {"description": "Client", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.TokenRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.TokenResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/accounts": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["accounts"],
                "summary": "List accounts",
                "parameters": [
                    {"type": "boolean", "description": "Only active accounts", "name": "activeOnly", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/dto.AccountResponse"}}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Creates an account whose balance starts at its opening balance",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["accounts"],
                "summary": "Create a new account",
                "parameters": [
                    {"description": "Account details", "name": "account", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.CreateAccountRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/dto.AccountResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/sync/status": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Pending change count, last successful sync and connectivity",
                "produces": ["application/json"],
                "tags": ["sync"],
                "summary": "Sync status",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.SyncStatusResponse"}}
                }
            }
        },
        "/sync/now": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Pushes pending changes immediately",
                "produces": ["application/json"],
                "tags": ["sync"],
                "summary": "Sync now",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.SyncReportResponse"}},
                    "409": {"description": "A sync is already running", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "502": {"description": "The remote rejected the batch", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/snapshot": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Serializes every entity table into one versioned JSON document",
                "produces": ["application/json"],
                "tags": ["snapshot"],
                "summary": "Export a snapshot",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Replaces every entity table atomically. An incompatible document leaves the store untouched.",
                "consumes": ["application/json"],
                "tags": ["snapshot"],
                "summary": "Import a snapshot",
                "responses": {
                    "204": {"description": "No Content"},
                    "422": {"description": "Incompatible snapshot", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/backups": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["snapshot"],
                "summary": "Write a backup",
                "parameters": [
                    {"description": "Target", "name": "backup", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.BackupRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/dto.BackupResponse"}}
                }
            }
        },
        "/live/accounts": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Server-sent events; one \"accounts\" event now and one after every change",
                "produces": ["text/event-stream"],
                "tags": ["live"],
                "summary": "Stream active accounts",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        }
    },
    "definitions": {
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        },
        "dto.TokenRequest": {
            "type": "object",
            "required": ["clientId"],
            "properties": {"clientId": {"type": "string", "maxLength": 100}}
        },
        "dto.TokenResponse": {
            "type": "object",
            "properties": {
                "accessToken": {"type": "string"},
                "tokenType": {"type": "string"},
                "expiresAt": {"type": "string"}
            }
        },
        "dto.CreateAccountRequest": {
            "type": "object",
            "required": ["name", "type", "currency"],
            "properties": {
                "name": {"type": "string"},
                "type": {"type": "string", "enum": ["bank", "card", "cash", "wallet"]},
                "currency": {"type": "string"},
                "openingBalance": {"type": "string"}
            }
        },
        "dto.AccountResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "type": {"type": "string"},
                "currency": {"type": "string"},
                "openingBalance": {"type": "string"},
                "balance": {"type": "string"},
                "isActive": {"type": "boolean"},
                "createdAt": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        },
        "dto.SyncStatusResponse": {
            "type": "object",
            "properties": {
                "pendingCount": {"type": "integer"},
                "lastSyncedAt": {"type": "string"},
                "isOnline": {"type": "boolean"},
                "inFlight": {"type": "boolean"},
                "lastError": {"type": "string"}
            }
        },
        "dto.SyncReportResponse": {
            "type": "object",
            "properties": {
                "pushed": {"type": "integer"},
                "accepted": {"type": "integer"},
                "conflicts": {"type": "integer"}
            }
        },
        "dto.BackupRequest": {
            "type": "object",
            "required": ["sink"],
            "properties": {
                "sink": {"type": "string", "enum": ["file", "gcs"]},
                "name": {"type": "string", "maxLength": 200}
            }
        },
        "dto.BackupResponse": {
            "type": "object",
            "properties": {
                "sink": {"type": "string"},
                "name": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and JWT token.",
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
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "MMA Local API",
	Description:      "Local-first personal finance store with background sync.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
