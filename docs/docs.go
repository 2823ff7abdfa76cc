// Package docs регистрирует OpenAPI-описание dev-бэкенда для /swagger/*any.
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
        "/api/products/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "List products",
                "parameters": [
                    {"type": "string", "description": "Title contains", "name": "q", "in": "query"},
                    {"type": "boolean", "description": "Only free products", "name": "free", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Product"}}}}
            }
        },
        "/api/add-to-cart/": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["cart"],
                "summary": "Add product to cart",
                "parameters": [{"description": "Product", "name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httpapi.productReq"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/httpapi.errorBody"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/httpapi.errorBody"}}
                }
            }
        },
        "/api/get-product/": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["library"],
                "summary": "Get free product",
                "parameters": [{"description": "Product", "name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httpapi.productReq"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/httpapi.errorBody"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/httpapi.errorBody"}}
                }
            }
        },
        "/api/buy-product/": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["library"],
                "summary": "Buy product",
                "parameters": [{"description": "Product", "name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httpapi.productReq"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/httpapi.errorBody"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/httpapi.errorBody"}}
                }
            }
        },
        "/api/remove-from-cart/": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["cart"],
                "summary": "Remove product from cart",
                "parameters": [{"description": "Product", "name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httpapi.productReq"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httpapi.errorBody"}}
                }
            }
        },
        "/api/clear-cart/": {
            "post": {
                "produces": ["application/json"],
                "tags": ["cart"],
                "summary": "Clear cart",
                "responses": {"200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}}}
            }
        },
        "/api/checkout-cart/": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["cart"],
                "summary": "Checkout selected cart items",
                "parameters": [{"description": "Selection", "name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httpapi.checkoutReq"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httpapi.errorBody"}}
                }
            }
        },
        "/api/cart/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["cart"],
                "summary": "Cart contents",
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Product"}}}}
            }
        },
        "/api/library/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["library"],
                "summary": "Purchased and received products",
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Purchase"}}}}
            }
        },
        "/payment/demo/{id}/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["library"],
                "summary": "Complete demo payment",
                "parameters": [{"type": "string", "description": "Product ID or cart-checkout", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}}}
            }
        },
        "/download/{slug}/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["library"],
                "summary": "Download page of an owned product",
                "parameters": [{"type": "string", "description": "Product slug", "name": "slug", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Product"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/httpapi.errorBody"}}
                }
            }
        },
        "/change-password/": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["profile"],
                "summary": "Change password",
                "parameters": [{"description": "Passwords", "name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httpapi.passwordReq"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httpapi.errorBody"}}
                }
            }
        },
        "/change-login/": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["profile"],
                "summary": "Change login",
                "parameters": [{"description": "New login", "name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httpapi.loginChangeReq"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httpapi.errorBody"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/httpapi.errorBody"}}
                }
            }
        },
        "/register/": {
            "post": {
                "consumes": ["application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Register",
                "parameters": [
                    {"type": "string", "name": "username", "in": "formData", "required": true},
                    {"type": "string", "name": "email", "in": "formData"},
                    {"type": "string", "name": "password", "in": "formData", "required": true},
                    {"type": "string", "name": "password2", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httpapi.errorBody"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/httpapi.errorBody"}}
                }
            }
        },
        "/login/": {
            "post": {
                "consumes": ["application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Login",
                "parameters": [
                    {"type": "string", "name": "username", "in": "formData", "required": true},
                    {"type": "string", "name": "password", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httpapi.errorBody"}}
                }
            }
        },
        "/logout/": {
            "post": {
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Logout",
                "responses": {"200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}}}
            }
        }
    },
    "definitions": {
        "domain.Product": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "slug": {"type": "string"},
                "title": {"type": "string"},
                "price_rub": {"type": "string"},
                "photos": {"type": "array", "items": {"type": "string"}}
            }
        },
        "domain.Purchase": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "user_id": {"type": "integer"},
                "product_id": {"type": "integer"},
                "amount": {"type": "string"},
                "created_at": {"type": "string"}
            }
        },
        "domain.CartItem": {
            "type": "object",
            "properties": {
                "product_id": {"type": "integer"},
                "price": {"type": "number"}
            }
        },
        "httpapi.productReq": {
            "type": "object",
            "required": ["product_id"],
            "properties": {"product_id": {"type": "integer"}}
        },
        "httpapi.checkoutReq": {
            "type": "object",
            "properties": {"selected_products": {"type": "array", "items": {"$ref": "#/definitions/domain.CartItem"}}}
        },
        "httpapi.passwordReq": {
            "type": "object",
            "properties": {
                "current_password": {"type": "string"},
                "new_password": {"type": "string"}
            }
        },
        "httpapi.loginChangeReq": {
            "type": "object",
            "properties": {
                "current_password": {"type": "string"},
                "new_login": {"type": "string"}
            }
        },
        "httpapi.errorBody": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:9091",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "Storefront dev backend",
	Description:      "In-memory backend for the storefront client: cart, library, payments, profile.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
