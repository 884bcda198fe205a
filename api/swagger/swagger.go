package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "WSET Admin API",
        "description": "Exam-submission workflow for WSET course orders",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Orders", "description": "Storefront order intake"},
        {"name": "Workflows", "description": "Per-order submission workflow and audit trail"},
        {"name": "Dashboard", "description": "Staff dashboard, statistics and exports"},
        {"name": "Deadlines", "description": "Exam-board submission deadlines"}
    ],
    "paths": {
        "/orders/webhook": {
            "post": {
                "tags": ["Orders"],
                "summary": "Receive an order from the storefront",
                "parameters": [
                    {"name": "X-Webhook-Signature", "in": "header", "type": "string", "description": "sha256=<hex HMAC-SHA256 of the raw body>"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/Order"}}
                ],
                "responses": {
                    "201": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "200": {"description": "Already processed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Bad signature", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Rejected", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/orders/{orderId}/reprocess": {
            "post": {
                "tags": ["Orders"],
                "summary": "Restart a failed order workflow",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "orderId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown order", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Workflow is not in error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/workflows": {
            "get": {
                "tags": ["Workflows"],
                "summary": "List workflows",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "status", "in": "query", "type": "string", "description": "Comma separated statuses"},
                    {"name": "review", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/workflows/{id}": {
            "patch": {
                "tags": ["Workflows"],
                "summary": "Update a workflow",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateWorkflowRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Invalid status transition", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Review cannot be cleared", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/workflows/{id}/logs": {
            "get": {
                "tags": ["Workflows"],
                "summary": "Workflow audit trail",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/activity": {
            "get": {
                "tags": ["Workflows"],
                "summary": "Recent workflow activity",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/dashboard": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Workflow dashboard",
                "description": "A failed load answers 200 with empty data and meta.degraded set.",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/dashboard/statistics": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Workflow throughput statistics",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "from", "in": "query", "type": "string", "description": "YYYY-MM-DD or RFC3339, defaults to 30 days ago"},
                    {"name": "to", "in": "query", "type": "string", "description": "Exclusive end, defaults to now"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/dashboard/export": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Export the deadline board",
                "produces": ["text/csv", "application/pdf"],
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}}
                }
            }
        },
        "/deadlines/check": {
            "get": {
                "tags": ["Deadlines"],
                "summary": "Check a submission deadline",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "examDate", "in": "query", "required": true, "type": "string"},
                    {"name": "examType", "in": "query", "required": true, "type": "string", "enum": ["PDF", "RI"]},
                    {"name": "level", "in": "query", "required": true, "type": "integer"},
                    {"name": "asOf", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "Address": {
            "type": "object",
            "properties": {
                "firstName": {"type": "string"},
                "lastName": {"type": "string"},
                "line1": {"type": "string"},
                "line2": {"type": "string"},
                "city": {"type": "string"},
                "region": {"type": "string"},
                "postalCode": {"type": "string"},
                "country": {"type": "string"},
                "phone": {"type": "string"}
            }
        },
        "LineItem": {
            "type": "object",
            "required": ["productName"],
            "properties": {
                "productName": {"type": "string"},
                "quantity": {"type": "integer"},
                "unitPrice": {"type": "number"}
            }
        },
        "FormSubmission": {
            "type": "object",
            "properties": {
                "birthdate": {"type": "string"},
                "gender": {"type": "string"},
                "examDate": {"type": "string"},
                "courseType": {"type": "string"}
            }
        },
        "Order": {
            "type": "object",
            "required": ["id", "createdAt", "email"],
            "properties": {
                "id": {"type": "string"},
                "number": {"type": "string"},
                "createdAt": {"type": "string", "format": "date-time"},
                "email": {"type": "string"},
                "billingAddress": {"$ref": "#/definitions/Address"},
                "shippingAddress": {"$ref": "#/definitions/Address"},
                "lineItems": {"type": "array", "items": {"$ref": "#/definitions/LineItem"}},
                "formSubmission": {"$ref": "#/definitions/FormSubmission"}
            }
        },
        "LogEntryRequest": {
            "type": "object",
            "required": ["action"],
            "properties": {
                "action": {"type": "string"},
                "examOrderId": {"type": "string"},
                "details": {"type": "object"}
            }
        },
        "UpdateWorkflowRequest": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "step": {"type": "string"},
                "stepDone": {"type": "boolean"},
                "requiresReview": {"type": "boolean"},
                "reviewReason": {"type": "string"},
                "error": {"type": "string"},
                "log": {"$ref": "#/definitions/LogEntryRequest"}
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
