// Package models defines the request, result and response types shared by
// the ShopMarketer HTTP surfaces.
package models

// APIStatus represents the status of an API response.
type APIStatus string

const (
	// APIStatusOK indicates an API request completed successfully.
	APIStatusOK APIStatus = "ok"
	// APIStatusError indicates an API request failed with an error.
	APIStatusError APIStatus = "error"
	// APIStatusInvalid indicates the request was rejected before any remote call.
	APIStatusInvalid APIStatus = "invalid"
)

// PostRequest is the body of a promotional post request.
type PostRequest struct {
	Audience    string `json:"audience"`
	Platform    string `json:"platform"`
	ProductInfo string `json:"product_info"`
}

// SuggestionResult carries the stored marketing suggestion of a session.
type SuggestionResult struct {
	Suggestion string `json:"suggestion"`
}

// PostResult carries a generated promotional post.
type PostResult struct {
	Text string `json:"text"`
}

// APIResponse represents a standard API response with a status and optional data.
type APIResponse struct {
	Status  string      `json:"status"`            // status of the API response
	Message string      `json:"message,omitempty"` // optional message for error responses or additional info
	Hint    string      `json:"hint,omitempty"`    // optional follow-up suggestion for the user
	Result  interface{} `json:"result,omitempty"`  // optional result data for successful responses
}

// APIResponseBuilder provides a fluent interface for building API responses.
type APIResponseBuilder struct {
	response APIResponse
}

// NewAPIResponseBuilder creates a new APIResponseBuilder instance.
func NewAPIResponseBuilder() *APIResponseBuilder {
	return &APIResponseBuilder{
		response: APIResponse{},
	}
}

// WithStatus sets the status of the API response.
func (b *APIResponseBuilder) WithStatus(status APIStatus) *APIResponseBuilder {
	b.response.Status = string(status)
	return b
}

// WithMessage sets the message of the API response.
func (b *APIResponseBuilder) WithMessage(message string) *APIResponseBuilder {
	b.response.Message = message
	return b
}

// WithHint sets the hint of the API response.
func (b *APIResponseBuilder) WithHint(hint string) *APIResponseBuilder {
	b.response.Hint = hint
	return b
}

// WithResult sets the result data of the API response.
func (b *APIResponseBuilder) WithResult(result interface{}) *APIResponseBuilder {
	b.response.Result = result
	return b
}

// Build constructs and returns the final APIResponse.
func (b *APIResponseBuilder) Build() APIResponse {
	return b.response
}

// Convenience functions for common response patterns

// Success creates a successful API response with optional result data.
func Success(result interface{}) APIResponse {
	return NewAPIResponseBuilder().
		WithStatus(APIStatusOK).
		WithResult(result).
		Build()
}

// SuccessWithMessage creates a successful API response with a message and optional result data.
func SuccessWithMessage(message string, result interface{}) APIResponse {
	return NewAPIResponseBuilder().
		WithStatus(APIStatusOK).
		WithMessage(message).
		WithResult(result).
		Build()
}

// Error creates an error API response with a message.
func Error(message string) APIResponse {
	return NewAPIResponseBuilder().
		WithStatus(APIStatusError).
		WithMessage(message).
		Build()
}

// ErrorWithHint creates an error API response with a message and a hint.
func ErrorWithHint(message, hint string) APIResponse {
	return NewAPIResponseBuilder().
		WithStatus(APIStatusError).
		WithMessage(message).
		WithHint(hint).
		Build()
}

// Invalid creates a validation failure response.
func Invalid(message string) APIResponse {
	return NewAPIResponseBuilder().
		WithStatus(APIStatusInvalid).
		WithMessage(message).
		Build()
}
