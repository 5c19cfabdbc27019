// Package docs registers the OpenAPI description served under /swagger.
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
        "/sessions": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["sessions"],
                "summary": "List sessions",
                "parameters": [
                    {"type": "string", "description": "BOULDER, LEAD or TOPROPE", "name": "discipline", "in": "query"},
                    {"type": "string", "description": "Exact date (YYYY-MM-DD)", "name": "date", "in": "query"},
                    {"type": "string", "description": "Range start, inclusive", "name": "from", "in": "query"},
                    {"type": "string", "description": "Range end, inclusive", "name": "to", "in": "query"},
                    {"type": "string", "description": "Search in grade and notes", "name": "q", "in": "query"},
                    {"type": "integer", "description": "Page size", "name": "limit", "in": "query"},
                    {"type": "integer", "description": "Page offset", "name": "offset", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Session"}}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["sessions"],
                "summary": "Log a climbing session",
                "parameters": [
                    {"description": "Session", "name": "session", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.createSessionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.Session"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/sessions/grades/{discipline}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["grades"],
                "summary": "Grade vocabulary for a discipline, easiest first",
                "parameters": [
                    {"type": "string", "description": "BOULDER, LEAD or TOPROPE", "name": "discipline", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/services.GradeVocabulary"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/sessions/analytics": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["analytics"],
                "summary": "Overview and per-discipline breakdown",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/services.Summary"}}
                }
            }
        },
        "/sessions/stats/progress": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["analytics"],
                "summary": "Overview plus weekly and monthly progress series",
                "parameters": [
                    {"type": "string", "description": "week or month; both when omitted", "name": "bucket", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/services.ProgressReport"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        }
    },
    "definitions": {
        "domain.Session": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "user_id": {"type": "string"},
                "discipline": {"type": "string", "enum": ["BOULDER", "LEAD", "TOPROPE"]},
                "grade": {"type": "string"},
                "date": {"type": "string", "format": "date"},
                "notes": {"type": "string"},
                "sent": {"type": "boolean"},
                "version": {"type": "integer"},
                "created_at": {"type": "string", "format": "date-time"},
                "updated_at": {"type": "string", "format": "date-time"},
                "deleted_at": {"type": "string", "format": "date-time"}
            }
        },
        "services.RankedGrade": {
            "type": "object",
            "properties": {
                "label": {"type": "string"},
                "rank": {"type": "number"}
            }
        },
        "services.GradeVocabulary": {
            "type": "object",
            "properties": {
                "discipline": {"type": "string", "enum": ["BOULDER", "LEAD", "TOPROPE"]},
                "scale": {"type": "string"},
                "grades": {"type": "array", "items": {"$ref": "#/definitions/services.RankedGrade"}}
            }
        },
        "http.createSessionRequest": {
            "type": "object",
            "required": ["date", "discipline", "grade"],
            "properties": {
                "discipline": {"type": "string"},
                "grade": {"type": "string"},
                "date": {"type": "string"},
                "notes": {"type": "string"},
                "sent": {"type": "boolean"}
            }
        },
        "domain.Overview": {
            "type": "object",
            "properties": {
                "total_sessions": {"type": "integer"},
                "average_difficulty": {"type": "number", "x-nullable": true},
                "sent_percentage": {"type": "number", "x-nullable": true}
            }
        },
        "domain.ProgressSeries": {
            "type": "object",
            "properties": {
                "bucketing": {"type": "string"},
                "pooled_across_scales": {"type": "boolean"},
                "buckets": {"type": "array", "items": {"$ref": "#/definitions/domain.ProgressBucket"}}
            }
        },
        "domain.ProgressBucket": {
            "type": "object",
            "properties": {
                "key": {"type": "string"},
                "session_count": {"type": "integer"},
                "average_difficulty": {"type": "number"},
                "sent_rate": {"type": "number"}
            }
        },
        "services.Summary": {
            "type": "object",
            "properties": {
                "overview": {"$ref": "#/definitions/domain.Overview"},
                "by_discipline": {"type": "object"}
            }
        },
        "services.ProgressReport": {
            "type": "object",
            "properties": {
                "overview": {"$ref": "#/definitions/domain.Overview"},
                "weekly": {"$ref": "#/definitions/domain.ProgressSeries"},
                "monthly": {"$ref": "#/definitions/domain.ProgressSeries"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Ascend Engine API",
	Description:      "Climbing logbook: session records, grade vocabularies and progress analytics.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
