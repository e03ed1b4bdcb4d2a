// Package docs holds the OpenAPI document served at /swagger. It follows
// the layout produced by swag init from the handler annotations.
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
        "/documents": {
            "get": {
                "description": "Configured documents in order, with entry counts and cache state.",
                "produces": ["application/json"],
                "tags": ["Documents"],
                "summary": "List documents",
                "operationId": "listDocuments",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.DocumentsResponse"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/entries/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Entries"],
                "summary": "Get an entry",
                "operationId": "getEntry",
                "parameters": [
                    {"minimum": 0, "type": "integer", "description": "Entry ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.EntryResponse"}},
                    "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Entry not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/entries/{id}/select": {
            "post": {
                "description": "Renders the entry's document with the term highlighted and returns a scroll and flash directive for the relocated paragraph. Without a term the current query is used. Relocated=false means the paragraph was not found in the rendered document.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Entries"],
                "summary": "Select an entry",
                "operationId": "selectEntry",
                "parameters": [
                    {"minimum": 0, "type": "integer", "description": "Entry ID", "name": "id", "in": "path", "required": true},
                    {"description": "Highlight term override", "name": "body", "in": "body", "schema": {"$ref": "#/definitions/handlers.SelectRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/locator.View"}},
                    "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Entry not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "409": {"description": "Superseded by a newer selection", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "502": {"description": "Document unavailable", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/index/builds": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Index"],
                "summary": "List builds",
                "operationId": "listBuilds",
                "parameters": [
                    {"minimum": 1, "type": "integer", "default": 1, "description": "Page number", "name": "page", "in": "query"},
                    {"maximum": 100, "minimum": 1, "type": "integer", "default": 20, "description": "Items per page", "name": "page_size", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.BuildsResponse"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/index/builds/latest": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Index"],
                "summary": "Latest build",
                "operationId": "latestBuild",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.BuildRun"}},
                    "404": {"description": "No build recorded", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/index/rebuild": {
            "post": {
                "description": "Reloads every configured document in order and replaces the index. Cached document text and the selection are dropped. Partial builds succeed; builds with no entries return 503.",
                "produces": ["application/json"],
                "tags": ["Index"],
                "summary": "Rebuild the index",
                "operationId": "rebuildIndex",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/search.Report"}},
                    "503": {"description": "Index empty", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/index/status": {
            "get": {
                "description": "Current status message, index size, last build report and selection.",
                "produces": ["application/json"],
                "tags": ["Index"],
                "summary": "Index status",
                "operationId": "indexStatus",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/services.StatusView"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/search": {
            "get": {
                "description": "Accent- and case-insensitive substring search over all indexed entries, in corpus order. The first result is selected and its document rendered with the term highlighted.",
                "produces": ["application/json"],
                "tags": ["Search"],
                "summary": "Search the catechism",
                "operationId": "search",
                "parameters": [
                    {"type": "string", "example": "confirmação", "description": "Search term (at least 2 characters)", "name": "q", "in": "query", "required": true},
                    {"minimum": 1, "type": "integer", "default": 1, "description": "Page number", "name": "page", "in": "query"},
                    {"maximum": 100, "minimum": 1, "type": "integer", "default": 20, "description": "Results per page", "name": "page_size", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/services.SearchPage"}},
                    "400": {"description": "Term too short", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "domain.BuildDocument": {
            "type": "object",
            "properties": {
                "entries": {"type": "integer"},
                "error": {"type": "string"},
                "label": {"type": "string"},
                "loaded": {"type": "boolean"},
                "position": {"type": "integer"},
                "url": {"type": "string"}
            }
        },
        "domain.BuildRun": {
            "type": "object",
            "properties": {
                "documents": {"type": "array", "items": {"$ref": "#/definitions/domain.BuildDocument"}},
                "documents_loaded": {"type": "integer"},
                "documents_total": {"type": "integer"},
                "entries": {"type": "integer"},
                "finished_at": {"type": "string"},
                "id": {"type": "string"},
                "message": {"type": "string"},
                "started_at": {"type": "string"},
                "state": {"type": "string"}
            }
        },
        "domain.Entry": {
            "type": "object",
            "properties": {
                "chapter_label": {"type": "string"},
                "document_label": {"type": "string"},
                "document_url": {"type": "string"},
                "id": {"type": "integer"},
                "number": {"type": "string"},
                "original_text": {"type": "string"},
                "part_label": {"type": "string"},
                "search_text": {"type": "string"},
                "source_markup": {"type": "string"},
                "visual_prefix": {"type": "string"}
            }
        },
        "domain.Source": {
            "type": "object",
            "properties": {
                "label": {"type": "string"},
                "url": {"type": "string"}
            }
        },
        "handlers.BuildsResponse": {
            "type": "object",
            "properties": {
                "builds": {"type": "array", "items": {"$ref": "#/definitions/domain.BuildRun"}},
                "pagination": {"$ref": "#/definitions/utils.Page"}
            }
        },
        "handlers.DocumentsResponse": {
            "type": "object",
            "properties": {
                "documents": {"type": "array", "items": {"$ref": "#/definitions/services.DocumentInfo"}}
            }
        },
        "handlers.EntryResponse": {
            "type": "object",
            "properties": {
                "entry": {"$ref": "#/definitions/domain.Entry"},
                "location": {"type": "string", "example": "PRIMEIRA PARTE"}
            }
        },
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"description": "Stable, machine-readable code (see errors.go constants)", "type": "string", "example": "not_found"},
                "message": {"description": "Human-readable message", "type": "string", "example": "entry not found"},
                "request_id": {"description": "Correlates server logs and client errors", "type": "string", "example": "123e4567-e89b-12d3-a456-426614174000"}
            }
        },
        "handlers.SelectRequest": {
            "type": "object",
            "properties": {
                "term": {"type": "string", "example": "confirmação"}
            }
        },
        "locator.Flash": {
            "type": "object",
            "properties": {
                "class": {"type": "string"},
                "duration_ms": {"type": "integer"}
            }
        },
        "locator.ScrollTarget": {
            "type": "object",
            "properties": {
                "anchor": {"type": "string"},
                "behavior": {"type": "string"},
                "block": {"type": "string"}
            }
        },
        "locator.View": {
            "type": "object",
            "properties": {
                "entry": {"$ref": "#/definitions/domain.Entry"},
                "flash": {"$ref": "#/definitions/locator.Flash"},
                "html": {"type": "string"},
                "marks": {"type": "integer"},
                "relocated": {"type": "boolean"},
                "reset_scroll": {"type": "boolean"},
                "scroll": {"$ref": "#/definitions/locator.ScrollTarget"},
                "term": {"type": "string"},
                "token": {"type": "integer"}
            }
        },
        "search.DocumentReport": {
            "type": "object",
            "properties": {
                "entries": {"type": "integer"},
                "error": {"type": "string"},
                "loaded": {"type": "boolean"},
                "source": {"$ref": "#/definitions/domain.Source"}
            }
        },
        "search.Report": {
            "type": "object",
            "properties": {
                "documents": {"type": "array", "items": {"$ref": "#/definitions/search.DocumentReport"}},
                "documents_loaded": {"type": "integer"},
                "documents_total": {"type": "integer"},
                "entries": {"type": "integer"},
                "finished_at": {"type": "string"},
                "started_at": {"type": "string"},
                "state": {"type": "string", "enum": ["ready", "partial", "degraded", "failed"]}
            }
        },
        "search.Result": {
            "type": "object",
            "properties": {
                "entry": {"$ref": "#/definitions/domain.Entry"},
                "location": {"type": "string"},
                "preview": {"type": "string"}
            }
        },
        "services.DocumentInfo": {
            "type": "object",
            "properties": {
                "cached": {"type": "boolean"},
                "entries": {"type": "integer"},
                "fetched_at": {"type": "string"},
                "label": {"type": "string"},
                "loaded": {"type": "boolean"},
                "size": {"type": "integer"},
                "url": {"type": "string"}
            }
        },
        "services.SearchPage": {
            "type": "object",
            "properties": {
                "count": {"type": "integer"},
                "filter_term": {"type": "string"},
                "header": {"type": "string"},
                "notice": {"type": "string"},
                "pagination": {"$ref": "#/definitions/utils.Page"},
                "results": {"type": "array", "items": {"$ref": "#/definitions/search.Result"}},
                "term": {"type": "string"},
                "top": {"$ref": "#/definitions/locator.View"},
                "top_error": {"type": "string"}
            }
        },
        "services.Selection": {
            "type": "object",
            "properties": {
                "active": {"type": "boolean"},
                "entry_id": {"type": "integer"},
                "term": {"type": "string"}
            }
        },
        "services.Status": {
            "type": "object",
            "properties": {
                "error": {"type": "boolean"},
                "expires_at": {"type": "string"},
                "message": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "services.StatusView": {
            "type": "object",
            "properties": {
                "builds": {"type": "integer"},
                "cached_bytes": {"type": "integer"},
                "cached_documents": {"type": "integer"},
                "entries": {"type": "integer"},
                "report": {"$ref": "#/definitions/search.Report"},
                "selection": {"$ref": "#/definitions/services.Selection"},
                "status": {"$ref": "#/definitions/services.Status"}
            }
        },
        "utils.Page": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Catecismo Search API",
	Description:      "Accent-insensitive full-text search and paragraph navigation over the Catechism documents.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
