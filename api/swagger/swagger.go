package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Hospital Publication Tracking API",
        "description": "Departmental publication tracking, bulk import and statistics",
        "version": "1.0.0"
    },
    "basePath": "/api",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Authentication", "description": "Login, token validation and refresh"},
        {"name": "Users", "description": "User account management"},
        {"name": "Departments", "description": "Department reference data"},
        {"name": "Journals", "description": "Journal reference data and bulk import"},
        {"name": "Publications", "description": "Publication records and bulk import"},
        {"name": "Statistics", "description": "Aggregate metrics and export"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/validate": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Validate current token",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "TOKEN_MISSING, TOKEN_INVALID or TOKEN_EXPIRED"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Reissue a token while the presented one is still valid",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Expired or invalid token"}
                }
            }
        },
        "/auth/change-password": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Change password",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ChangePasswordRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/users": {
            "get": {
                "tags": ["Users"],
                "summary": "List users",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "role", "in": "query", "type": "string"},
                    {"name": "department_id", "in": "query", "type": "string"},
                    {"name": "active", "in": "query", "type": "boolean"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Admin only"}
                }
            },
            "post": {
                "tags": ["Users"],
                "summary": "Create user",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateUserRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Username or email taken"}
                }
            }
        },
        "/users/{id}": {
            "get": {
                "tags": ["Users"],
                "summary": "Get user",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "put": {
                "tags": ["Users"],
                "summary": "Update user",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateUserRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Users"],
                "summary": "Deactivate user",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/departments": {
            "get": {
                "tags": ["Departments"],
                "summary": "List departments",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Departments"],
                "summary": "Create department",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateDepartmentRequest"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/departments/{id}": {
            "get": {
                "tags": ["Departments"],
                "summary": "Get department",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "put": {
                "tags": ["Departments"],
                "summary": "Update department",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateDepartmentRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Departments"],
                "summary": "Delete department",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/journals": {
            "get": {
                "tags": ["Journals"],
                "summary": "List journals",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "quartile", "in": "query", "type": "string"},
                    {"name": "year", "in": "query", "type": "integer"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Journals"],
                "summary": "Create journal",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateJournalRequest"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/journals/import": {
            "post": {
                "tags": ["Journals"],
                "summary": "Bulk import journals",
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "file", "in": "formData", "required": true, "type": "file"}
                ],
                "responses": {
                    "200": {"description": "Import result", "schema": {"$ref": "#/definitions/ImportResult"}},
                    "403": {"description": "Admin only"}
                }
            }
        },
        "/journals/{id}": {
            "get": {
                "tags": ["Journals"],
                "summary": "Get journal",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "put": {
                "tags": ["Journals"],
                "summary": "Update journal",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateJournalRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Journals"],
                "summary": "Delete journal",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/publications": {
            "get": {
                "tags": ["Publications"],
                "summary": "List publications",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "department_id", "in": "query", "type": "string"},
                    {"name": "journal_id", "in": "query", "type": "string"},
                    {"name": "quartile", "in": "query", "type": "string"},
                    {"name": "year_from", "in": "query", "type": "integer"},
                    {"name": "year_to", "in": "query", "type": "integer"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Publications"],
                "summary": "Record publication",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreatePublicationRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Duplicate title, journal and year"}
                }
            }
        },
        "/publications/import": {
            "post": {
                "tags": ["Publications"],
                "summary": "Bulk import publications",
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "file", "in": "formData", "required": true, "type": "file"},
                    {"name": "department_id", "in": "formData", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Import result", "schema": {"$ref": "#/definitions/ImportResult"}},
                    "400": {"description": "FILE_UPLOAD_ERROR"}
                }
            }
        },
        "/publications/{id}": {
            "get": {
                "tags": ["Publications"],
                "summary": "Get publication",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "put": {
                "tags": ["Publications"],
                "summary": "Update publication",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdatePublicationRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Publications"],
                "summary": "Delete publication",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/statistics/department": {
            "get": {
                "tags": ["Statistics"],
                "summary": "Department statistics",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "departmentId", "in": "query", "required": true, "type": "string"},
                    {"name": "fillGaps", "in": "query", "type": "boolean"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/DepartmentStats"}}}
            }
        },
        "/statistics/overview": {
            "get": {
                "tags": ["Statistics"],
                "summary": "Overview statistics",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "fillGaps", "in": "query", "type": "boolean"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/OverviewStats"}}}
            }
        },
        "/statistics/department/{id}/export": {
            "get": {
                "tags": ["Statistics"],
                "summary": "Export department publications",
                "security": [{"BearerAuth": []}],
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {"200": {"description": "File download"}}
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["username", "password"]
        },
        "ChangePasswordRequest": {
            "type": "object",
            "properties": {
                "old_password": {"type": "string"},
                "new_password": {"type": "string"}
            },
            "required": ["old_password", "new_password"]
        },
        "CreateUserRequest": {
            "type": "object",
            "properties": {
                "username": {"type": "string"},
                "email": {"type": "string"},
                "password": {"type": "string"},
                "full_name": {"type": "string"},
                "role": {"type": "string", "enum": ["ADMIN", "DEPARTMENT_ADMIN", "USER"]},
                "department_id": {"type": "string"}
            },
            "required": ["username", "email", "password", "full_name", "role"]
        },
        "UpdateUserRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "full_name": {"type": "string"},
                "role": {"type": "string"},
                "department_id": {"type": "string"},
                "active": {"type": "boolean"}
            }
        },
        "CreateDepartmentRequest": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "name": {"type": "string"}
            },
            "required": ["code", "name"]
        },
        "UpdateDepartmentRequest": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "name": {"type": "string"}
            }
        },
        "CreateJournalRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "year": {"type": "integer"},
                "impact_factor": {"type": "number"},
                "quartile": {"type": "string", "enum": ["Q1", "Q2", "Q3", "Q4"]}
            },
            "required": ["name", "year", "quartile"]
        },
        "UpdateJournalRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "year": {"type": "integer"},
                "impact_factor": {"type": "number"},
                "quartile": {"type": "string"}
            }
        },
        "CreatePublicationRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "authors": {"type": "string"},
                "journal_id": {"type": "string"},
                "department_id": {"type": "string"},
                "publish_year": {"type": "integer"},
                "volume": {"type": "string"},
                "issue": {"type": "string"},
                "pages": {"type": "string"},
                "doi": {"type": "string"}
            },
            "required": ["title", "authors", "journal_id", "department_id", "publish_year"]
        },
        "UpdatePublicationRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "authors": {"type": "string"},
                "journal_id": {"type": "string"},
                "publish_year": {"type": "integer"},
                "volume": {"type": "string"},
                "issue": {"type": "string"},
                "pages": {"type": "string"},
                "doi": {"type": "string"}
            }
        },
        "ImportRowError": {
            "type": "object",
            "properties": {
                "row": {"type": "integer"},
                "field": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "ImportResult": {
            "type": "object",
            "properties": {
                "success": {"type": "integer"},
                "failed": {"type": "integer"},
                "duplicates": {"type": "integer"},
                "errors": {"type": "array", "items": {"$ref": "#/definitions/ImportRowError"}}
            }
        },
        "YearCount": {
            "type": "object",
            "properties": {
                "year": {"type": "integer"},
                "count": {"type": "integer"}
            }
        },
        "DepartmentStats": {
            "type": "object",
            "properties": {
                "department_id": {"type": "string"},
                "total_publications": {"type": "integer"},
                "average_impact_factor": {"type": "number"},
                "quartile_distribution": {"type": "object"},
                "yearly_trend": {"type": "array", "items": {"$ref": "#/definitions/YearCount"}},
                "generated_at": {"type": "string"}
            }
        },
        "OverviewStats": {
            "type": "object",
            "properties": {
                "total_publications": {"type": "integer"},
                "total_departments": {"type": "integer"},
                "average_impact_factor": {"type": "number"},
                "top_departments": {"type": "array"},
                "yearly_trend": {"type": "array", "items": {"$ref": "#/definitions/YearCount"}},
                "generated_at": {"type": "string"}
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
