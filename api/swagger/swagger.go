package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SEIMS API",
        "description": "Special education student registration and management service",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Login, token refresh, password management"},
        {"name": "Registrations", "description": "Six-step student registration wizard"},
        {"name": "Approvals", "description": "Registration review queue and decisions"},
        {"name": "Students", "description": "Active student roster"},
        {"name": "Users", "description": "Staff account administration"},
        {"name": "IEPs", "description": "Individualized education programs and goals"},
        {"name": "Sessions", "description": "Teaching and therapy session logs"},
        {"name": "Assessments", "description": "Quarterly assessments"},
        {"name": "Dashboard", "description": "Landing-page counters"},
        {"name": "Reports", "description": "Asynchronous CSV/PDF exports"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "responses": {
                    "200": {"description": "Token pair issued"},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Refresh access token",
                "responses": {
                    "200": {"description": "New token pair"},
                    "401": {"description": "Token expired or revoked"}
                }
            }
        },
        "/registrations": {
            "get": {
                "tags": ["Registrations"],
                "summary": "List my registrations",
                "responses": {"200": {"description": "Registrations with status badges"}}
            },
            "post": {
                "tags": ["Registrations"],
                "summary": "Start a registration (step 1)",
                "responses": {
                    "201": {"description": "Registration created with admission number"},
                    "400": {"description": "Validation failed"}
                }
            }
        },
        "/registrations/{id}": {
            "get": {
                "tags": ["Registrations"],
                "summary": "Get one registration",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "Full registration detail"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/registrations/{id}/submit": {
            "post": {
                "tags": ["Registrations"],
                "summary": "Submit for review",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "Submitted"},
                    "409": {"description": "Already approved"},
                    "412": {"description": "Wizard incomplete"}
                }
            }
        },
        "/approvals": {
            "get": {
                "tags": ["Approvals"],
                "summary": "List pending registrations",
                "responses": {"200": {"description": "Review queue"}}
            }
        },
        "/approvals/{id}/decision": {
            "post": {
                "tags": ["Approvals"],
                "summary": "Record a review decision",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "Decision recorded"},
                    "409": {"description": "Not awaiting review"}
                }
            }
        },
        "/students": {
            "get": {
                "tags": ["Students"],
                "summary": "List enrolled students",
                "responses": {"200": {"description": "Active roster"}}
            }
        },
        "/dashboard": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Dashboard counters",
                "responses": {"200": {"description": "Counter summary"}}
            }
        },
        "/reports": {
            "post": {
                "tags": ["Reports"],
                "summary": "Queue an export",
                "responses": {"202": {"description": "Job queued"}}
            }
        }
    },
    "definitions": {
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
