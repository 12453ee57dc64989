package console

import (
	"github.com/JaimeStill/promptrepo/pkg/openapi"
)

var (
	objectSchema   = &openapi.Schema{Type: "object"}
	documentSchema = openapi.SchemaRef("PromptRepository")
	writeSchema    = openapi.SchemaRef("WriteResponse")
)

// Schemas returns the component schemas referenced by Paths.
func Schemas() map[string]*openapi.Schema {
	return map[string]*openapi.Schema{
		"PromptRepository": {
			Type:     "object",
			Required: []string{"APPS"},
			Properties: map[string]*openapi.Schema{
				"APPS": {
					Type: "array",
					Items: &openapi.Schema{
						Type:     "object",
						Required: []string{"name", "prompts"},
						Properties: map[string]*openapi.Schema{
							"name": {Type: "string"},
							"prompts": {
								Type: "array",
								Items: &openapi.Schema{
									Type:     "object",
									Required: []string{"name", "content"},
									Properties: map[string]*openapi.Schema{
										"name":                {Type: "string"},
										"content":             {Type: "array", Items: &openapi.Schema{Type: "string"}},
										"description":         {Type: "string"},
										"location_identifier": {Type: "string"},
									},
								},
							},
						},
					},
				},
			},
		},
		"Metadata": {
			Type:                 "object",
			Description:          "Exactly one key, the upper-cased application id, holding a list.",
			AdditionalProperties: &openapi.Schema{Type: "array"},
		},
		"WriteResponse": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"result":  {Type: "object", Description: "Committed version; absent while pending"},
				"change":  {Type: "object", Description: "The computed change with per-prompt diffs"},
				"pending": {Type: "boolean", Description: "True when the change awaits confirmation"},
			},
		},
	}
}

// Paths describes the console routes relative to the API base path.
func Paths() map[string]*openapi.PathItem {
	auth := []string{"Unauthorized"}
	withAuth := func(names ...string) []string { return append(append([]string{}, auth...), names...) }

	return map[string]*openapi.PathItem{
		"/auth/login": {
			Post: &openapi.Operation{
				Summary: "Log in with the shared password",
				Tags:    []string{"Auth"},
				RequestBody: openapi.RequestBodyJSON(&openapi.Schema{
					Type:     "object",
					Required: []string{"password"},
					Properties: map[string]*openapi.Schema{
						"password": {Type: "string"},
						"app":      {Type: "string"},
						"env":      {Type: "string"},
					},
				}),
				Responses: openapi.Responses(200, openapi.ResponseJSON("Session started", objectSchema),
					"BadRequest", "Unauthorized", "TooManyRequests", "NotConfigured"),
			},
		},
		"/auth/logout": {
			Post: &openapi.Operation{
				Summary:   "End the session",
				Tags:      []string{"Auth"},
				Responses: openapi.Responses(204, openapi.ResponseJSON("Logged out", nil)),
			},
		},
		"/session": {
			Get: &openapi.Operation{
				Summary:   "Current session state",
				Tags:      []string{"Session"},
				Responses: openapi.Responses(200, openapi.ResponseJSON("Session", objectSchema), auth...),
			},
		},
		"/session/selection": {
			Put: &openapi.Operation{
				Summary: "Select an application and environment",
				Tags:    []string{"Session"},
				RequestBody: openapi.RequestBodyJSON(&openapi.Schema{
					Type:     "object",
					Required: []string{"app", "env"},
					Properties: map[string]*openapi.Schema{
						"app": {Type: "string"},
						"env": {Type: "string"},
					},
				}),
				Responses: openapi.Responses(200, openapi.ResponseJSON("Session", objectSchema),
					withAuth("BadRequest", "NotConfigured")...),
			},
		},
		"/console/apps": {
			Get: &openapi.Operation{
				Summary: "Supported applications",
				Tags:    []string{"Console"},
				Responses: openapi.Responses(200, openapi.ResponseJSON("Application ids",
					&openapi.Schema{Type: "array", Items: &openapi.Schema{Type: "string"}}), auth...),
			},
		},
		"/console/environments": {
			Get: &openapi.Operation{
				Summary:   "Configured environments",
				Tags:      []string{"Console"},
				Responses: openapi.Responses(200, openapi.ResponseJSON("Environments", objectSchema), auth...),
			},
		},
		"/console/document": {
			Get: &openapi.Operation{
				Summary:   "Latest document of the selection with preview and pending change",
				Tags:      []string{"Console"},
				Responses: openapi.Responses(200, openapi.ResponseJSON("Document", objectSchema), withAuth("BadGateway", "NotConfigured")...),
			},
			Put: &openapi.Operation{
				Summary:     "Replace the whole document as a new version",
				Tags:        []string{"Console"},
				RequestBody: openapi.RequestBodyJSON(documentSchema),
				Responses:   writeResponses(withAuth("BadRequest", "Conflict", "Unprocessable", "BadGateway")...),
			},
		},
		"/console/versions": {
			Get: &openapi.Operation{
				Summary: "Version keys of the selection, newest first",
				Tags:    []string{"Console"},
				Parameters: []*openapi.Parameter{
					openapi.QueryParam("page", "integer", "Page number", false),
					openapi.QueryParam("page_size", "integer", "Results per page", false),
					openapi.QueryParam("search", "string", "Substring filter", false),
				},
				Responses: openapi.Responses(200, openapi.ResponseJSON("Page of keys", objectSchema), auth...),
			},
		},
		"/console/preview": {
			Post: &openapi.Operation{
				Summary: "Preview a historical version",
				Tags:    []string{"Console"},
				RequestBody: openapi.RequestBodyJSON(&openapi.Schema{
					Type:       "object",
					Required:   []string{"key"},
					Properties: map[string]*openapi.Schema{"key": {Type: "string"}},
				}),
				Responses: openapi.Responses(200, openapi.ResponseJSON("Preview", objectSchema), withAuth("BadRequest", "NotFound")...),
			},
			Delete: &openapi.Operation{
				Summary:   "Return to the latest version",
				Tags:      []string{"Console"},
				Responses: openapi.Responses(204, openapi.ResponseJSON("Cleared", nil), auth...),
			},
		},
		"/console/prompts/{index}": {
			Put: &openapi.Operation{
				Summary:    "Replace the content of one prompt",
				Tags:       []string{"Console"},
				Parameters: []*openapi.Parameter{openapi.PathParam("index", "integer", "Zero-based prompt index")},
				RequestBody: openapi.RequestBodyJSON(&openapi.Schema{
					Type:       "object",
					Required:   []string{"content"},
					Properties: map[string]*openapi.Schema{"content": {Type: "string"}},
				}),
				Responses: writeResponses(withAuth("BadRequest", "NotFound", "Conflict", "Unprocessable")...),
			},
		},
		"/console/confirm": {
			Post: &openapi.Operation{
				Summary: "Commit the staged change",
				Tags:    []string{"Console"},
				Responses: openapi.Responses(201, openapi.ResponseJSON("Committed", writeSchema),
					withAuth("Conflict", "BadGateway")...),
			},
		},
		"/console/pending": {
			Delete: &openapi.Operation{
				Summary:   "Discard the staged change",
				Tags:      []string{"Console"},
				Responses: openapi.Responses(204, openapi.ResponseJSON("Discarded", nil), auth...),
			},
		},
		"/console/compare": {
			Get: &openapi.Operation{
				Summary:    "Compare the selection with another environment",
				Tags:       []string{"Console"},
				Parameters: []*openapi.Parameter{openapi.QueryParam("against", "string", "Environment to compare with", true)},
				Responses: openapi.Responses(200, openapi.ResponseJSON("Comparison", objectSchema),
					withAuth("BadRequest", "BadGateway")...),
			},
		},
		"/console/metadata": {
			Get: &openapi.Operation{
				Summary:   "Metadata document of the selection",
				Tags:      []string{"Console"},
				Responses: openapi.Responses(200, openapi.ResponseJSON("Metadata", openapi.SchemaRef("Metadata")), withAuth("NotFound")...),
			},
			Put: &openapi.Operation{
				Summary:     "Replace the metadata document",
				Tags:        []string{"Console"},
				RequestBody: openapi.RequestBodyJSON(openapi.SchemaRef("Metadata")),
				Responses:   writeResponses(withAuth("BadRequest", "Unprocessable")...),
			},
		},
		"/console/backend/cache": {
			Post: &openapi.Operation{
				Summary:   "Clear the companion backend cache",
				Tags:      []string{"Backend"},
				Responses: openapi.Responses(200, openapi.ResponseJSON("Cleared keys", objectSchema), withAuth("BadGateway", "NotConfigured")...),
			},
		},
		"/console/backend/index": {
			Post: &openapi.Operation{
				Summary:   "Start backend index population",
				Tags:      []string{"Backend"},
				Responses: openapi.Responses(202, openapi.ResponseJSON("Started", nil), withAuth("BadGateway", "NotConfigured")...),
			},
			Get: &openapi.Operation{
				Summary:   "Backend index population status",
				Tags:      []string{"Backend"},
				Responses: openapi.Responses(200, openapi.ResponseJSON("Status", objectSchema), withAuth("BadGateway", "NotConfigured")...),
			},
		},
	}
}

func writeResponses(errs ...string) map[int]*openapi.Response {
	out := openapi.Responses(201, openapi.ResponseJSON("Committed", writeSchema), errs...)
	out[202] = openapi.ResponseJSON("Staged for confirmation", writeSchema)
	return out
}
