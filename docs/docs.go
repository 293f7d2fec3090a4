// Package docs registra a especificação OpenAPI servida em /swagger/*.
// Regenerar com `swag init -g cmd/main.go` após alterar as anotações dos handlers.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/v1/categories": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["categories"],
                "summary": "Cria uma categoria",
                "parameters": [{"in": "body", "name": "category", "required": true, "schema": {"$ref": "#/definitions/domain.CategoryDraft"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.Category"}},
                    "400": {"description": "Nome ou slug inválido", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}},
                    "404": {"description": "Pai inexistente", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}},
                    "409": {"description": "Slug já utilizado", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            }
        },
        "/v1/categories/tree": {
            "get": {
                "tags": ["categories"],
                "summary": "Retorna a floresta de categorias",
                "parameters": [
                    {"type": "boolean", "name": "include_inactive", "in": "query"},
                    {"type": "integer", "name": "max_depth", "in": "query"},
                    {"type": "boolean", "name": "rebuild_cache", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/v1/categories/{id}": {
            "get": {
                "tags": ["categories"],
                "summary": "Busca uma categoria por id",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Category"}},
                    "404": {"description": "Categoria não encontrada", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["categories"],
                "summary": "Remove uma categoria sem filhas",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "No Content"},
                    "409": {"description": "Categoria possui filhas", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            }
        },
        "/v1/products": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["products"],
                "summary": "Cria um produto",
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "product_ref ou slug já utilizado", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            }
        },
        "/v1/products/search": {
            "get": {
                "tags": ["products"],
                "summary": "Busca produtos",
                "parameters": [
                    {"type": "string", "name": "q", "in": "query"},
                    {"type": "string", "name": "category", "in": "query"},
                    {"type": "string", "name": "brand", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"},
                    {"type": "integer", "name": "offset", "in": "query"},
                    {"type": "boolean", "name": "in_descriptions", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "definitions": {
        "domain.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "integer", "example": 409},
                "category": {"type": "string", "example": "HAS_CHILDREN"},
                "message": {"type": "string"}
            }
        },
        "domain.CategoryDraft": {
            "type": "object",
            "required": ["name", "slug"],
            "properties": {
                "name": {"type": "string"},
                "slug": {"type": "string"},
                "parent_id": {"type": "string"},
                "parent_slug": {"type": "string"},
                "display_order": {"type": "integer"},
                "is_active": {"type": "boolean"}
            }
        },
        "domain.Category": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "slug": {"type": "string"},
                "parent_id": {"type": "string"},
                "ancestors": {"type": "array", "items": {"type": "string"}},
                "level": {"type": "integer"},
                "display_order": {"type": "integer"},
                "is_active": {"type": "boolean"}
            }
        }
    }
}`

// SwaggerInfo contém as informações exportadas da especificação.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "GoCatalog API",
	Description:      "Hierarquia de categorias e catálogo de produtos.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
