// Package handlers implements the HTTP handlers for the v1 API.
package handlers

// Slug identifies the outcome class of an API response.
type Slug string

// Response slugs
const (
	SuccessSlug      Slug = "success"
	ErrorSlug        Slug = "error"
	InvalidInputSlug Slug = "invalid-input"
	ServerErrorSlug  Slug = "server-error"
)

// Response is the envelope returned by every endpoint.
type Response struct {
	Slug  Slug        `json:"slug"`
	Error string      `json:"error,omitempty"`
	Data  interface{} `json:"data,omitempty"`
}

func errInvalidInput(msg string) Response {
	return Response{
		Slug:  InvalidInputSlug,
		Error: msg,
	}
}

func errServer(msg string) Response {
	return Response{
		Slug:  ServerErrorSlug,
		Error: msg,
	}
}

func errGeneral(msg string) Response {
	return Response{
		Slug:  ErrorSlug,
		Error: msg,
	}
}
