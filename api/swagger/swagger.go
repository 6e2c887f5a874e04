package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Smart Campus API",
        "description": "Automatic course scheduling and geofenced attendance for campus operations",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Schedules", "description": "Automatic timetable generation and retrieval"},
        {"name": "Attendance", "description": "Geofenced GPS attendance check-ins"},
        {"name": "Metrics", "description": "Runtime metrics snapshots"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Degraded"}
                }
            }
        },
        "/schedule/auto": {
            "post": {
                "tags": ["Schedules"],
                "summary": "Run the automatic timetable builder",
                "description": "Builds a conflict-free timetable for the semester. Sections that cannot be placed are reported with a reason; the rest are committed. Set async=true to queue the run and poll it by run id.",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AutoScheduleRequest"}}
                ],
                "responses": {
                    "200": {"description": "Run completed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "202": {"description": "Run queued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule/runs/{id}": {
            "get": {
                "tags": ["Schedules"],
                "summary": "Poll an async scheduling run",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown or expired run", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule": {
            "get": {
                "tags": ["Schedules"],
                "summary": "Get the committed semester timetable",
                "parameters": [
                    {"name": "semester", "in": "query", "type": "string", "required": true},
                    {"name": "year", "in": "query", "type": "integer", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule/export": {
            "post": {
                "tags": ["Schedules"],
                "summary": "Export the semester timetable as CSV or PDF",
                "parameters": [
                    {"name": "semester", "in": "query", "type": "string", "required": true},
                    {"name": "year", "in": "query", "type": "integer", "required": true},
                    {"name": "format", "in": "query", "type": "string", "required": true, "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "Signed download URL", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule/export/{token}": {
            "get": {
                "tags": ["Schedules"],
                "summary": "Download a generated timetable export",
                "produces": ["application/octet-stream"],
                "parameters": [
                    {"name": "token", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "File"},
                    "403": {"description": "Invalid or expired token"}
                }
            }
        },
        "/attendance/sessions": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Register an attendance session with its geofence",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateSessionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/attendance/check-in": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Record a GPS attendance check-in",
                "description": "Stores the check-in and evaluates it against the session geofence and the student's previous check-in. Suspicious check-ins are flagged for review, never rejected.",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CheckInRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Session not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/attendance/sessions/{id}/check-ins": {
            "get": {
                "tags": ["Attendance"],
                "summary": "List check-ins for a session",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "flagged", "in": "query", "type": "boolean"},
                    {"name": "studentId", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/metrics/snapshot": {
            "get": {
                "tags": ["Metrics"],
                "summary": "Runtime metrics snapshot",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "AutoScheduleRequest": {
            "type": "object",
            "properties": {
                "semester": {"type": "string"},
                "year": {"type": "integer"},
                "sectionIds": {"type": "array", "items": {"type": "string"}},
                "allowedSlots": {"type": "array", "items": {"$ref": "#/definitions/TimeSlotRequest"}},
                "maxIterations": {"type": "integer"},
                "dryRun": {"type": "boolean"},
                "async": {"type": "boolean"}
            },
            "required": ["semester", "year"]
        },
        "TimeSlotRequest": {
            "type": "object",
            "properties": {
                "dayOfWeek": {"type": "integer", "minimum": 1, "maximum": 7},
                "startTime": {"type": "string", "example": "08:00"},
                "endTime": {"type": "string", "example": "09:00"}
            },
            "required": ["dayOfWeek", "startTime", "endTime"]
        },
        "CreateSessionRequest": {
            "type": "object",
            "properties": {
                "sectionId": {"type": "string"},
                "sessionDate": {"type": "string", "format": "date-time"},
                "centerLatitude": {"type": "number"},
                "centerLongitude": {"type": "number"},
                "radiusMeters": {"type": "number"}
            },
            "required": ["sectionId", "sessionDate"]
        },
        "CheckInRequest": {
            "type": "object",
            "properties": {
                "sessionId": {"type": "string"},
                "studentId": {"type": "string"},
                "latitude": {"type": "number"},
                "longitude": {"type": "number"},
                "accuracy": {"type": "number"}
            },
            "required": ["sessionId", "studentId", "latitude", "longitude"]
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
