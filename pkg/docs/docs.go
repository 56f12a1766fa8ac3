// Package docs registers the OpenAPI document served at /swagger/.
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
		"/customers": {
			"get": {
				"tags": [
					"customers"
				],
				"summary": "List customers",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "q",
						"in": "query",
						"required": false
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					}
				}
			},
			"post": {
				"tags": [
					"customers"
				],
				"summary": "Create a customer",
				"produces": [
					"application/json"
				],
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"description": "payload",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/customer.Customer"
						}
					}
				],
				"responses": {
					"201": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					}
				}
			}
		},
		"/customers/{id}": {
			"get": {
				"tags": [
					"customers"
				],
				"summary": "Get a customer",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					}
				}
			},
			"put": {
				"tags": [
					"customers"
				],
				"summary": "Update a customer",
				"produces": [
					"application/json"
				],
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "payload",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/customer.Customer"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					}
				}
			},
			"delete": {
				"tags": [
					"customers"
				],
				"summary": "Delete a customer",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"204": {
						"description": "No Content"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					}
				}
			}
		},
		"/customers/{id}/jobs": {
			"get": {
				"tags": [
					"customers"
				],
				"summary": "Jobs of a customer",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					}
				}
			}
		},
		"/customers/{id}/invoices": {
			"get": {
				"tags": [
					"customers"
				],
				"summary": "Invoices of a customer",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					}
				}
			}
		},
		"/products": {
			"get": {
				"tags": [
					"products"
				],
				"summary": "List products",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "class",
						"in": "query",
						"required": false
					},
					{
						"type": "boolean",
						"name": "active",
						"in": "query",
						"required": false
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					}
				}
			},
			"post": {
				"tags": [
					"products"
				],
				"summary": "Create a product",
				"produces": [
					"application/json"
				],
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"description": "payload",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/catalog.Product"
						}
					}
				],
				"responses": {
					"201": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					}
				}
			}
		},
		"/products/class/{class}": {
			"get": {
				"tags": [
					"products"
				],
				"summary": "Active products of one class",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "class",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					}
				}
			}
		},
		"/products/{id}": {
			"get": {
				"tags": [
					"products"
				],
				"summary": "Get a product",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					}
				}
			},
			"put": {
				"tags": [
					"products"
				],
				"summary": "Update a product",
				"produces": [
					"application/json"
				],
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "payload",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/catalog.Product"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					}
				}
			},
			"delete": {
				"tags": [
					"products"
				],
				"summary": "Delete a product",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"204": {
						"description": "No Content"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					}
				}
			}
		},
		"/jobs": {
			"get": {
				"tags": [
					"jobs"
				],
				"summary": "List jobs",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "status",
						"in": "query",
						"required": false
					},
					{
						"type": "string",
						"name": "customerId",
						"in": "query",
						"required": false
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					}
				}
			},
			"post": {
				"tags": [
					"jobs"
				],
				"summary": "Create a job",
				"produces": [
					"application/json"
				],
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"description": "payload",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/service.JobInput"
						}
					}
				],
				"responses": {
					"201": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					}
				}
			}
		},
		"/jobs/{id}": {
			"get": {
				"tags": [
					"jobs"
				],
				"summary": "Get a job",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					}
				}
			},
			"put": {
				"tags": [
					"jobs"
				],
				"summary": "Update a job",
				"produces": [
					"application/json"
				],
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "payload",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/service.JobInput"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					}
				}
			},
			"delete": {
				"tags": [
					"jobs"
				],
				"summary": "Delete a job",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"204": {
						"description": "No Content"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					}
				}
			}
		},
		"/jobs/{id}/status": {
			"patch": {
				"tags": [
					"jobs"
				],
				"summary": "Change job status",
				"produces": [
					"application/json"
				],
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "payload",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/api.statusRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					}
				}
			}
		},
		"/invoices": {
			"get": {
				"tags": [
					"invoices"
				],
				"summary": "List invoices",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "status",
						"in": "query",
						"required": false
					},
					{
						"type": "string",
						"name": "customerId",
						"in": "query",
						"required": false
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					}
				}
			},
			"post": {
				"tags": [
					"invoices"
				],
				"summary": "Create a draft invoice",
				"produces": [
					"application/json"
				],
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"description": "payload",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/service.InvoiceInput"
						}
					}
				],
				"responses": {
					"201": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					}
				}
			}
		},
		"/invoices/from-job/{jobId}": {
			"post": {
				"tags": [
					"invoices"
				],
				"summary": "Draft an invoice from a job",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "jobId",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"201": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					}
				}
			}
		},
		"/invoices/{id}": {
			"get": {
				"tags": [
					"invoices"
				],
				"summary": "Get an invoice",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					}
				}
			},
			"put": {
				"tags": [
					"invoices"
				],
				"summary": "Update a draft invoice",
				"produces": [
					"application/json"
				],
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "payload",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/service.InvoiceInput"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					}
				}
			},
			"delete": {
				"tags": [
					"invoices"
				],
				"summary": "Delete a draft invoice",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"204": {
						"description": "No Content"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					}
				}
			}
		},
		"/invoices/{id}/status": {
			"patch": {
				"tags": [
					"invoices"
				],
				"summary": "Change invoice status",
				"produces": [
					"application/json"
				],
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "payload",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/api.statusRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					}
				}
			}
		},
		"/invoices/{id}/pdf": {
			"get": {
				"tags": [
					"invoices"
				],
				"summary": "Download the invoice PDF",
				"produces": [
					"application/pdf"
				],
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					}
				}
			}
		},
		"/invoices/{id}/preview": {
			"get": {
				"tags": [
					"invoices"
				],
				"summary": "HTML preview of the invoice",
				"produces": [
					"text/html"
				],
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					}
				}
			}
		},
		"/invoices/{id}/archive": {
			"post": {
				"tags": [
					"invoices"
				],
				"summary": "Archive the invoice PDF to object storage",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					}
				}
			}
		},
		"/pricing/quote": {
			"post": {
				"tags": [
					"invoices"
				],
				"summary": "Price lines without saving",
				"produces": [
					"application/json"
				],
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"description": "payload",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/api.quoteRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					}
				}
			}
		},
		"/sales/activities": {
			"get": {
				"tags": [
					"sales"
				],
				"summary": "List activities",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "customerId",
						"in": "query",
						"required": false
					},
					{
						"type": "boolean",
						"name": "open",
						"in": "query",
						"required": false
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					}
				}
			},
			"post": {
				"tags": [
					"sales"
				],
				"summary": "Log an activity",
				"produces": [
					"application/json"
				],
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"description": "payload",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/service.ActivityInput"
						}
					}
				],
				"responses": {
					"201": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					}
				}
			}
		},
		"/sales/activities/{id}": {
			"get": {
				"tags": [
					"sales"
				],
				"summary": "Get an activity",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					}
				}
			},
			"put": {
				"tags": [
					"sales"
				],
				"summary": "Update an activity",
				"produces": [
					"application/json"
				],
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "payload",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/service.ActivityInput"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					}
				}
			},
			"delete": {
				"tags": [
					"sales"
				],
				"summary": "Delete an activity",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"204": {
						"description": "No Content"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					}
				}
			}
		},
		"/sales/activities/{id}/complete": {
			"post": {
				"tags": [
					"sales"
				],
				"summary": "Complete an activity",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					}
				}
			}
		},
		"/sales/quotations": {
			"get": {
				"tags": [
					"sales"
				],
				"summary": "List quotations",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "status",
						"in": "query",
						"required": false
					},
					{
						"type": "string",
						"name": "customerId",
						"in": "query",
						"required": false
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					}
				}
			},
			"post": {
				"tags": [
					"sales"
				],
				"summary": "Create a quotation",
				"produces": [
					"application/json"
				],
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"description": "payload",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/service.QuotationInput"
						}
					}
				],
				"responses": {
					"201": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					}
				}
			}
		},
		"/sales/quotations/{id}": {
			"get": {
				"tags": [
					"sales"
				],
				"summary": "Get a quotation",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					}
				}
			},
			"put": {
				"tags": [
					"sales"
				],
				"summary": "Update a draft quotation",
				"produces": [
					"application/json"
				],
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "payload",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/service.QuotationInput"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					}
				}
			},
			"delete": {
				"tags": [
					"sales"
				],
				"summary": "Delete a quotation",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"204": {
						"description": "No Content"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					}
				}
			}
		},
		"/sales/quotations/{id}/status": {
			"patch": {
				"tags": [
					"sales"
				],
				"summary": "Change quotation status",
				"produces": [
					"application/json"
				],
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "payload",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/api.statusRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					}
				}
			}
		},
		"/sales/quotations/{id}/convert": {
			"post": {
				"tags": [
					"sales"
				],
				"summary": "Convert an accepted quotation to an invoice",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					}
				}
			}
		},
		"/sales/quotations/{id}/pdf": {
			"get": {
				"tags": [
					"sales"
				],
				"summary": "Download the quotation PDF",
				"produces": [
					"application/pdf"
				],
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					}
				}
			}
		},
		"/sales/pipeline": {
			"get": {
				"tags": [
					"sales"
				],
				"summary": "Pipeline summary",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					}
				}
			}
		},
		"/dashboard": {
			"get": {
				"tags": [
					"dashboard"
				],
				"summary": "Dashboard figures",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					}
				}
			}
		},
		"/portal/users": {
			"get": {
				"tags": [
					"portal"
				],
				"summary": "List portal users",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "customerId",
						"in": "query",
						"required": false
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					}
				}
			},
			"post": {
				"tags": [
					"portal"
				],
				"summary": "Create a portal user",
				"produces": [
					"application/json"
				],
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"description": "payload",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/service.UserInput"
						}
					}
				],
				"responses": {
					"201": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					}
				}
			}
		},
		"/portal/users/{id}": {
			"get": {
				"tags": [
					"portal"
				],
				"summary": "Get a portal user",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					}
				}
			},
			"put": {
				"tags": [
					"portal"
				],
				"summary": "Update a portal user",
				"produces": [
					"application/json"
				],
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "payload",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/service.UserInput"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					}
				}
			},
			"delete": {
				"tags": [
					"portal"
				],
				"summary": "Delete a portal user",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"204": {
						"description": "No Content"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					}
				}
			}
		},
		"/portal/login": {
			"post": {
				"tags": [
					"portal"
				],
				"summary": "Portal login",
				"produces": [
					"application/json"
				],
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"description": "payload",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/api.loginRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					}
				}
			}
		},
		"/portal/me": {
			"get": {
				"tags": [
					"portal"
				],
				"summary": "Current portal account",
				"produces": [
					"application/json"
				],
				"security": [
					{
						"PortalToken": []
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					}
				}
			}
		},
		"/portal/catalog": {
			"get": {
				"tags": [
					"portal"
				],
				"summary": "Portal catalog",
				"produces": [
					"application/json"
				],
				"security": [
					{
						"PortalToken": []
					}
				],
				"parameters": [
					{
						"type": "string",
						"name": "class",
						"in": "query",
						"required": false
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					}
				}
			}
		},
		"/portal/orders": {
			"get": {
				"tags": [
					"portal"
				],
				"summary": "Own orders",
				"produces": [
					"application/json"
				],
				"security": [
					{
						"PortalToken": []
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					}
				}
			},
			"post": {
				"tags": [
					"portal"
				],
				"summary": "Place an order",
				"produces": [
					"application/json"
				],
				"consumes": [
					"application/json"
				],
				"security": [
					{
						"PortalToken": []
					}
				],
				"parameters": [
					{
						"description": "payload",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/service.OrderInput"
						}
					}
				],
				"responses": {
					"201": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					}
				}
			}
		},
		"/portal/orders/{id}": {
			"get": {
				"tags": [
					"portal"
				],
				"summary": "Get an own order",
				"produces": [
					"application/json"
				],
				"security": [
					{
						"PortalToken": []
					}
				],
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					}
				}
			}
		},
		"/portal/invoices": {
			"get": {
				"tags": [
					"portal"
				],
				"summary": "Own issued invoices",
				"produces": [
					"application/json"
				],
				"security": [
					{
						"PortalToken": []
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					}
				}
			}
		},
		"/portal/invoices/{id}/pdf": {
			"get": {
				"tags": [
					"portal"
				],
				"summary": "Download an own invoice PDF",
				"produces": [
					"application/pdf"
				],
				"security": [
					{
						"PortalToken": []
					}
				],
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					}
				}
			}
		}
	},
	"definitions": {
		"api.loginRequest": {
			"type": "object",
			"required": [
				"email",
				"password"
			],
			"properties": {
				"email": {
					"type": "string"
				},
				"password": {
					"type": "string"
				}
			}
		},
		"api.quoteRequest": {
			"type": "object"
		},
		"api.statusRequest": {
			"type": "object",
			"required": [
				"status"
			],
			"properties": {
				"status": {
					"type": "string"
				}
			}
		},
		"catalog.Product": {
			"type": "object"
		},
		"customer.Customer": {
			"type": "object"
		},
		"service.ActivityInput": {
			"type": "object"
		},
		"service.InvoiceInput": {
			"type": "object"
		},
		"service.JobInput": {
			"type": "object"
		},
		"service.OrderInput": {
			"type": "object"
		},
		"service.QuotationInput": {
			"type": "object"
		},
		"service.UserInput": {
			"type": "object"
		},
		"api.errorResponse": {
			"type": "object",
			"properties": {
				"error": {
					"type": "string"
				}
			}
		}
	},
	"securityDefinitions": {
		"PortalToken": {
			"type": "apiKey",
			"name": "Authorization",
			"in": "header"
		}
	}
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Print Shop API",
	Description:      "Customers, catalog, jobs, invoices, the B2B portal and the sales pipeline of a print shop.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
