// Package docs registers the OpenAPI document served at /swagger. Regenerate
// with `swag init -g cmd/server/main.go` after changing handler annotations.
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
        "/api/auth/signup": {
            "post": {
                "tags": ["Auth"],
                "summary": "Register",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/models.RegisterRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/models.AuthResponse"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "409": {"description": "Username or email taken", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/api/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "User login",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/models.LoginRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.AuthResponse"}},
                    "400": {"description": "Missing fields", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/api/auth/me": {
            "get": {"security": [{"Bearer": []}], "tags": ["Auth"], "summary": "Current account", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}
        },
        "/api/auth/verify": {
            "get": {"security": [{"Bearer": []}], "tags": ["Auth"], "summary": "Verify token", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}
        },
        "/api/auth/logout": {
            "post": {"security": [{"Bearer": []}], "tags": ["Auth"], "summary": "Logout", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}
        },
        "/api/movies": {
            "get": {"tags": ["Movies"], "summary": "List movies", "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.Movie"}}}}},
            "post": {
                "security": [{"Bearer": []}],
                "tags": ["Movies"],
                "summary": "Add or update movie",
                "parameters": [{"in": "body", "name": "movie", "required": true, "schema": {"$ref": "#/definitions/models.MovieDraft"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Movie"}}, "400": {"description": "Invalid draft", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}}
            }
        },
        "/api/movies/for-you": {
            "get": {"security": [{"Bearer": []}], "tags": ["Movies"], "summary": "Recommendations", "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.Movie"}}}, "401": {"description": "Unauthorized"}, "404": {"description": "No favorite genres set"}}}
        },
        "/api/movies/{id}": {
            "get": {"tags": ["Movies"], "summary": "Get movie", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Movie"}}}},
            "delete": {"security": [{"Bearer": []}], "tags": ["Movies"], "summary": "Delete movie", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/api/favorites": {
            "get": {"security": [{"Bearer": []}], "tags": ["Favorites"], "summary": "List favorites", "responses": {"200": {"description": "OK"}}}
        },
        "/api/favorites/{movieId}": {
            "post": {"security": [{"Bearer": []}], "tags": ["Favorites"], "summary": "Add favorite", "parameters": [{"type": "integer", "name": "movieId", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Movie not found"}, "409": {"description": "Already in favorites"}}},
            "delete": {"security": [{"Bearer": []}], "tags": ["Favorites"], "summary": "Remove favorite", "parameters": [{"type": "integer", "name": "movieId", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Movie not found in database"}}}
        },
        "/api/users": {
            "get": {"security": [{"Bearer": []}], "tags": ["Users"], "summary": "List accounts", "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}}
        },
        "/api/users/{id}": {
            "get": {"security": [{"Bearer": []}], "tags": ["Users"], "summary": "Get account", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}},
            "put": {"security": [{"Bearer": []}], "tags": ["Users"], "summary": "Update account", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}, {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/models.UpdateAccountRequest"}}], "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}},
            "delete": {"security": [{"Bearer": []}], "tags": ["Users"], "summary": "Delete account", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}}
        },
        "/api/tmdb/popular": {
            "get": {"security": [{"Bearer": []}], "tags": ["TMDB"], "summary": "Popular TMDB movies", "parameters": [{"type": "integer", "default": 1, "name": "page", "in": "query"}], "responses": {"200": {"description": "OK"}, "503": {"description": "TMDB unavailable or not configured"}}}
        },
        "/api/tmdb/import/{id}": {
            "post": {"security": [{"Bearer": []}], "tags": ["TMDB"], "summary": "Import TMDB movie", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Movie"}}, "404": {"description": "Not found"}, "503": {"description": "TMDB unavailable"}}}
        },
        "/api/admin/stats": {
            "get": {"security": [{"Bearer": []}], "tags": ["Admin"], "summary": "Service statistics", "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}}
        },
        "/healthz": {"get": {"tags": ["System"], "summary": "Health check", "responses": {"200": {"description": "Healthy"}}}},
        "/readyz": {"get": {"tags": ["System"], "summary": "Readiness check", "responses": {"200": {"description": "Ready"}, "503": {"description": "Not ready"}}}},
        "/version": {"get": {"tags": ["System"], "summary": "Version information", "responses": {"200": {"description": "Version info"}}}}
    },
    "definitions": {
        "errors.ErrorResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "error": {},
                "code": {"type": "string"},
                "trace_id": {"type": "string"}
            }
        },
        "models.Genre": {
            "type": "object",
            "properties": {"id": {"type": "integer"}, "name": {"type": "string"}}
        },
        "models.Movie": {
            "type": "object",
            "properties": {
                "_id": {"type": "string"},
                "id": {"type": "integer"},
                "title": {"type": "string"},
                "poster_path": {"type": "string"},
                "overview": {"type": "string"},
                "release_date": {"type": "string"},
                "runtime": {"type": "integer"},
                "vote_average": {"type": "number"},
                "genres": {"type": "array", "items": {"$ref": "#/definitions/models.Genre"}},
                "addedBy": {"type": "string"},
                "createdAt": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        },
        "models.MovieDraft": {
            "type": "object",
            "required": ["id", "title"],
            "properties": {
                "id": {"type": "integer"},
                "title": {"type": "string"},
                "poster_path": {"type": "string"},
                "overview": {"type": "string"},
                "release_date": {"type": "string"},
                "runtime": {"type": "integer"},
                "vote_average": {"type": "number"},
                "genres": {"type": "array", "items": {"$ref": "#/definitions/models.Genre"}}
            }
        },
        "models.LoginRequest": {
            "type": "object",
            "properties": {"email": {"type": "string"}, "password": {"type": "string"}}
        },
        "models.RegisterRequest": {
            "type": "object",
            "required": ["username", "email", "password", "age", "gender", "favoriteGenres"],
            "properties": {
                "username": {"type": "string", "minLength": 3},
                "email": {"type": "string"},
                "password": {"type": "string", "minLength": 6},
                "age": {"type": "integer", "minimum": 13, "maximum": 120},
                "gender": {"type": "string", "enum": ["male", "female", "other"]},
                "favoriteGenres": {"type": "array", "minItems": 3, "items": {"type": "string"}}
            }
        },
        "models.UpdateAccountRequest": {
            "type": "object",
            "properties": {
                "username": {"type": "string"},
                "email": {"type": "string"},
                "password": {"type": "string"},
                "age": {"type": "integer"},
                "gender": {"type": "string"},
                "favoriteGenres": {"type": "array", "items": {"type": "string"}},
                "isAdmin": {"type": "boolean"}
            }
        },
        "models.Summary": {
            "type": "object",
            "properties": {"id": {"type": "string"}, "username": {"type": "string"}, "email": {"type": "string"}}
        },
        "models.AuthResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "token": {"type": "string"},
                "user": {"$ref": "#/definitions/models.Summary"}
            }
        }
    },
    "securityDefinitions": {
        "Bearer": {
            "description": "Type \"Bearer\" followed by a space and the session token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:5000",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Movie API",
	Description:      "Accounts, movie catalog, favorites and genre recommendations",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
