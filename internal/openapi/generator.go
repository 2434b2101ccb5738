// Package openapi describes the phoenix HTTP API as an OpenAPI 3.1 document.
package openapi

import (
	"github.com/getkin/kin-openapi/openapi3"
)

// Options parameterise the generated document.
type Options struct {
	BaseURL      string
	Version      string
	APIKeyHeader string
}

const (
	apiKeyScheme = "apiKey"
	bearerScheme = "bearerAuth"
)

// Generate builds the OpenAPI document for the fixed phoenix API.
func Generate(opts Options) *openapi3.T {
	if opts.Version == "" {
		opts.Version = "1.0.0"
	}
	if opts.APIKeyHeader == "" {
		opts.APIKeyHeader = "X-API-KEY"
	}

	doc := &openapi3.T{
		OpenAPI: "3.1.0",
		Info: &openapi3.Info{
			Title:       "Phoenix API",
			Description: "Body-measurement tracking: registration, session tokens, API keys and measurements.",
			Version:     opts.Version,
		},
	}
	if opts.BaseURL != "" {
		doc.Servers = openapi3.Servers{{URL: opts.BaseURL}}
	}

	components := openapi3.NewComponents()
	components.Schemas = componentSchemas()
	components.SecuritySchemes = openapi3.SecuritySchemes{
		apiKeyScheme: &openapi3.SecuritySchemeRef{
			Value: &openapi3.SecurityScheme{
				Type: "apiKey",
				In:   "header",
				Name: opts.APIKeyHeader,
			},
		},
		bearerScheme: &openapi3.SecuritySchemeRef{
			Value: &openapi3.SecurityScheme{
				Type:         "http",
				Scheme:       "bearer",
				BearerFormat: "JWT",
			},
		},
	}
	doc.Components = &components

	doc.Paths = openapi3.NewPaths()
	addAuthPaths(doc)
	addAdminPaths(doc)
	addMeasurementPaths(doc)
	addOpsPaths(doc)

	return doc
}

// ─── Paths ──────────────────────────────────────────────────────────────────

func addAuthPaths(doc *openapi3.T) {
	public := &openapi3.SecurityRequirements{}

	doc.Paths.Set("/api/auth/register", &openapi3.PathItem{
		Post: &openapi3.Operation{
			Tags:        []string{"auth"},
			Summary:     "Register a user",
			Description: "Creates a USER account and returns a session token.",
			OperationID: "register",
			Security:    public,
			RequestBody: jsonBody("RegisterRequest"),
			Responses:   newResponses("201", "Registered", ref("AuthResponse"), "400"),
		},
	})
	doc.Paths.Set("/api/auth/login", &openapi3.PathItem{
		Post: &openapi3.Operation{
			Tags:        []string{"auth"},
			Summary:     "Log in",
			Description: "Exchanges a username and password for a session token.",
			OperationID: "login",
			Security:    public,
			RequestBody: jsonBody("LoginRequest"),
			Responses:   newResponses("200", "Logged in", ref("AuthResponse"), "400", "401"),
		},
	})
}

func addAdminPaths(doc *openapi3.T) {
	doc.Paths.Set("/api/admin/keygen", &openapi3.PathItem{
		Post: &openapi3.Operation{
			Tags:        []string{"admin"},
			Summary:     "Issue an API key",
			Description: "Requires an ADMIN session token. The raw key is returned once and cannot be retrieved again.",
			OperationID: "keygen",
			Security:    &openapi3.SecurityRequirements{{bearerScheme: {}}},
			RequestBody: jsonBody("APIKeyRequest"),
			Responses:   newResponses("201", "Key issued", ref("APIKeyResponse"), "400", "401", "403"),
		},
	})
}

func addMeasurementPaths(doc *openapi3.T) {
	both := &openapi3.SecurityRequirements{{apiKeyScheme: {}, bearerScheme: {}}}
	list := &openapi3.SchemaRef{Value: &openapi3.Schema{
		Type:  &openapi3.Types{"array"},
		Items: ref("Measurement"),
	}}
	limit := openapi3.NewIntegerSchema().WithMin(0)
	limit.Default = 10
	idParam := &openapi3.ParameterRef{
		Value: openapi3.NewPathParameter("id").
			WithDescription("Measurement ID.").
			WithSchema(openapi3.NewInt64Schema()),
	}

	doc.Paths.Set("/api/measurements", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"measurements"},
			Summary:     "List measurements",
			Description: "All of the caller's measurements, newest first.",
			OperationID: "listMeasurements",
			Security:    both,
			Responses:   newResponses("200", "Measurements", list, "401", "404"),
		},
		Post: &openapi3.Operation{
			Tags:        []string{"measurements"},
			Summary:     "Record a measurement",
			OperationID: "createMeasurement",
			Security:    both,
			RequestBody: jsonBody("MeasurementRequest"),
			Responses:   newResponses("201", "Recorded", ref("Measurement"), "400", "401", "404"),
		},
	})

	doc.Paths.Set("/api/measurements/recent", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"measurements"},
			Summary:     "Recent measurements",
			Description: "Up to limit of the caller's ten newest measurements.",
			OperationID: "recentMeasurements",
			Security:    both,
			Parameters: openapi3.Parameters{
				&openapi3.ParameterRef{
					Value: openapi3.NewQueryParameter("limit").
						WithDescription("Maximum number of measurements, 0 to 10.").
						WithSchema(limit),
				},
			},
			Responses: newResponses("200", "Measurements", list, "400", "401", "404"),
		},
	})

	doc.Paths.Set("/api/measurements/{id}", &openapi3.PathItem{
		Parameters: openapi3.Parameters{idParam},
		Get: &openapi3.Operation{
			Tags:        []string{"measurements"},
			Summary:     "Get a measurement",
			OperationID: "getMeasurement",
			Security:    both,
			Responses:   newResponses("200", "Measurement", ref("Measurement"), "400", "401", "403", "404"),
		},
		Put: &openapi3.Operation{
			Tags:        []string{"measurements"},
			Summary:     "Update a measurement",
			OperationID: "updateMeasurement",
			Security:    both,
			RequestBody: jsonBody("MeasurementRequest"),
			Responses:   newResponses("200", "Updated", ref("Measurement"), "400", "401", "403", "404"),
		},
		Delete: &openapi3.Operation{
			Tags:        []string{"measurements"},
			Summary:     "Delete a measurement",
			OperationID: "deleteMeasurement",
			Security:    both,
			Responses:   newResponses("204", "Deleted", nil, "400", "401", "403", "404"),
		},
	})
}

func addOpsPaths(doc *openapi3.T) {
	public := &openapi3.SecurityRequirements{}
	doc.Paths.Set("/healthz", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"ops"},
			Summary:     "Liveness probe",
			OperationID: "healthz",
			Security:    public,
			Responses:   newResponses("200", "Alive", ref("StatusResponse")),
		},
	})
	doc.Paths.Set("/readyz", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"ops"},
			Summary:     "Readiness probe",
			Description: "Pings the database.",
			OperationID: "readyz",
			Security:    public,
			Responses:   newResponses("200", "Ready", ref("StatusResponse"), "503"),
		},
	})
}

// ─── Schemas ────────────────────────────────────────────────────────────────

func componentSchemas() openapi3.Schemas {
	str := func(lo, hi int64) *openapi3.SchemaRef {
		s := openapi3.NewStringSchema().WithMaxLength(hi)
		if lo > 0 {
			s = s.WithMinLength(lo)
		}
		return &openapi3.SchemaRef{Value: s}
	}
	num := func() *openapi3.SchemaRef {
		return &openapi3.SchemaRef{Value: openapi3.NewFloat64Schema().WithMin(0).WithMax(1000)}
	}
	nullableNum := func() *openapi3.SchemaRef {
		s := openapi3.NewFloat64Schema().WithMin(0).WithMax(1000)
		s.Nullable = true
		return &openapi3.SchemaRef{Value: s}
	}
	dateTime := func() *openapi3.SchemaRef {
		return &openapi3.SchemaRef{Value: openapi3.NewDateTimeSchema()}
	}
	plain := func() *openapi3.SchemaRef {
		return &openapi3.SchemaRef{Value: openapi3.NewStringSchema()}
	}
	role := &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}, Enum: []any{"USER", "ADMIN"}}}
	id := &openapi3.SchemaRef{Value: openapi3.NewInt64Schema()}

	return openapi3.Schemas{
		"ErrorResponse": errorSchema(),
		"StatusResponse": object(openapi3.Schemas{
			"status": plain(),
			"error":  plain(),
		}, "status"),
		"RegisterRequest": object(openapi3.Schemas{
			"username":  str(3, 50),
			"email":     &openapi3.SchemaRef{Value: openapi3.NewStringSchema().WithFormat("email").WithMaxLength(100)},
			"password":  str(6, 72),
			"firstName": str(0, 50),
			"lastName":  str(0, 50),
		}, "username", "email", "password"),
		"LoginRequest": object(openapi3.Schemas{
			"username": plain(),
			"password": plain(),
		}, "username", "password"),
		"AuthResponse": object(openapi3.Schemas{
			"token":     plain(),
			"tokenType": &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}, Enum: []any{"Bearer"}}},
			"id":        id,
			"username":  plain(),
			"email":     plain(),
			"role":      role,
		}, "token", "tokenType", "id", "username", "email", "role"),
		"APIKeyRequest": object(openapi3.Schemas{
			"label": str(1, 100),
			"validFor": &openapi3.SchemaRef{Value: &openapi3.Schema{
				Description: `Key lifetime: a Go duration ("720h"), an ISO-8601 duration ("P30D") or milliseconds.`,
				OneOf: openapi3.SchemaRefs{
					{Value: openapi3.NewStringSchema()},
					{Value: openapi3.NewInt64Schema().WithMin(1)},
				},
			}},
		}, "label"),
		"APIKeyResponse": object(openapi3.Schemas{
			"apiKey":    plain(),
			"expiresAt": dateTime(),
		}, "apiKey"),
		"MeasurementRequest": object(openapi3.Schemas{
			"weight":             num(),
			"height":             num(),
			"chestCircumference": nullableNum(),
			"armCircumference":   nullableNum(),
			"legCircumference":   nullableNum(),
			"waistCircumference": nullableNum(),
			"measurementDate":    dateTime(),
		}, "weight", "height"),
		"Measurement": object(openapi3.Schemas{
			"id":                 id,
			"userId":             id,
			"weight":             num(),
			"height":             num(),
			"chestCircumference": nullableNum(),
			"armCircumference":   nullableNum(),
			"legCircumference":   nullableNum(),
			"waistCircumference": nullableNum(),
			"measurementDate":    dateTime(),
			"createdAt":          dateTime(),
			"updatedAt":          dateTime(),
		}, "id", "userId", "weight", "height", "measurementDate", "createdAt", "updatedAt"),
	}
}

func object(props openapi3.Schemas, required ...string) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type:       &openapi3.Types{"object"},
			Properties: props,
			Required:   required,
		},
	}
}

func errorSchema() *openapi3.SchemaRef {
	return &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"error": &openapi3.SchemaRef{
					Value: &openapi3.Schema{
						Type: &openapi3.Types{"object"},
						Properties: openapi3.Schemas{
							"code":    &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}, Format: "int32"}},
							"message": &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}}},
							"context": &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"object"}}},
						},
					},
				},
			},
		},
	}
}

func ref(name string) *openapi3.SchemaRef {
	return openapi3.NewSchemaRef("#/components/schemas/"+name, nil)
}

func jsonBody(schema string) *openapi3.RequestBodyRef {
	return &openapi3.RequestBodyRef{
		Value: &openapi3.RequestBody{
			Required: true,
			Content:  openapi3.NewContentWithJSONSchemaRef(ref(schema)),
		},
	}
}

// ─── Response Helpers ───────────────────────────────────────────────────────

var errorDescriptions = map[string]string{
	"400": "Bad request",
	"401": "Unauthorized",
	"403": "Forbidden",
	"404": "Not found",
	"503": "Service unavailable",
}

// newResponses builds a Responses map with the success response, the listed
// error responses and a 500.
func newResponses(statusCode, description string, schema *openapi3.SchemaRef, errorCodes ...string) *openapi3.Responses {
	responses := openapi3.NewResponses()

	success := &openapi3.Response{Description: &description}
	if schema != nil {
		success.Content = openapi3.NewContentWithJSONSchemaRef(schema)
	}
	responses.Set(statusCode, &openapi3.ResponseRef{Value: success})

	errorRef := ref("ErrorResponse")
	for _, code := range append(errorCodes, "500") {
		desc, ok := errorDescriptions[code]
		if !ok {
			desc = "Internal server error"
		}
		responses.Set(code, &openapi3.ResponseRef{
			Value: &openapi3.Response{
				Description: &desc,
				Content:     openapi3.NewContentWithJSONSchemaRef(errorRef),
			},
		})
	}
	return responses
}
