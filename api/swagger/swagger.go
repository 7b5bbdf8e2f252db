package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "OD Form API",
        "description": "Leave-request (On Duty) submission and mailing service",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Coordinator login and ambient sessions"},
        {"name": "Imports", "description": "Tabular file parsing"},
        {"name": "Submissions", "description": "OD form persistence"},
        {"name": "Files", "description": "Timetable uploads and signed downloads"},
        {"name": "Mail", "description": "Submission email dispatch"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate a coordinator",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/session": {
            "post": {
                "tags": ["Auth"],
                "summary": "Issue an anonymous session token",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/imports": {
            "post": {
                "tags": ["Imports"],
                "summary": "Parse a CSV or spreadsheet upload into subjects and students",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "file", "in": "formData", "required": true, "type": "file"},
                    {"name": "type", "in": "formData", "type": "string", "description": "csv or spreadsheet"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Unrecognized columns or bad file", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables": {
            "post": {
                "tags": ["Files"],
                "summary": "Store a timetable image",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "file", "in": "formData", "required": true, "type": "file"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/files/{token}": {
            "get": {
                "tags": ["Files"],
                "summary": "Download a stored file via signed token",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File contents"},
                    "401": {"description": "Invalid or expired link", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/submissions": {
            "get": {
                "tags": ["Submissions"],
                "summary": "List submissions",
                "parameters": [
                    {"name": "mode", "in": "query", "type": "string", "description": "single or multiple"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Submissions"],
                "summary": "Save an OD form submission",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateSubmissionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Store permission denied", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/submissions/{id}": {
            "get": {
                "tags": ["Submissions"],
                "summary": "Fetch one submission",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/submissions/{id}/records": {
            "get": {
                "tags": ["Submissions"],
                "summary": "List per-student records of a bulk submission",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/submissions/{id}/export": {
            "get": {
                "tags": ["Submissions"],
                "summary": "Export one submission as CSV or PDF",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "description": "csv or pdf"}
                ],
                "responses": {
                    "200": {"description": "File contents"}
                }
            }
        },
        "/send-email": {
            "post": {
                "tags": ["Mail"],
                "summary": "Send the email for one submission",
                "description": "Responds with a flat JSON shape, not the standard envelope.",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SendMailRequest"}}
                ],
                "responses": {
                    "200": {"description": "Sent", "schema": {"$ref": "#/definitions/SendMailResponse"}},
                    "400": {"description": "Missing id/to"},
                    "404": {"description": "Record not found"},
                    "500": {"description": "Sender not configured or send failed"}
                }
            }
        }
    },
    "definitions": {
        "Subject": {
            "type": "object",
            "properties": {
                "subjectName": {"type": "string"},
                "subjectCode": {"type": "string"},
                "timeSlot": {"type": "string"},
                "facultyName": {"type": "string"},
                "facultyCode": {"type": "string"},
                "date": {"type": "string"}
            }
        },
        "Student": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "semester": {"type": "string"},
                "course": {"type": "string"},
                "section": {"type": "string"},
                "enrollmentNo": {"type": "string"}
            }
        },
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "CreateSubmissionRequest": {
            "type": "object",
            "properties": {
                "mode": {"type": "string", "enum": ["single", "multiple"]},
                "subjects": {"type": "array", "items": {"$ref": "#/definitions/Subject"}},
                "students": {"type": "array", "items": {"$ref": "#/definitions/Student"}},
                "timetableFileUrl": {"type": "string"},
                "fileName": {"type": "string"}
            },
            "required": ["mode"]
        },
        "SendMailRequest": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "to": {"type": "string"},
                "customContent": {"type": "string"}
            },
            "required": ["id", "to"]
        },
        "SendMailResponse": {
            "type": "object",
            "properties": {
                "ok": {"type": "boolean"},
                "messageId": {"type": "string"},
                "preview": {"type": "string"},
                "html": {"type": "string"},
                "from": {"type": "string"},
                "fallback": {"type": "boolean"},
                "note": {"type": "string"}
            }
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
