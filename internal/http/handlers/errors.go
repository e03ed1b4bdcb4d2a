// Package handlers defines the stable error codes returned in the error
// envelope. Clients branch on the code; the message is for display.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "term_too_short",
//	  "message": "Por favor, digite pelo menos 2 caracteres."
//	}
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeInternal         = "internal_error"

	// Domain-specific:
	ErrCodeTermTooShort        = "term_too_short"
	ErrCodeDocumentUnavailable = "document_unavailable"
	ErrCodeStaleSelection      = "stale_selection"
	ErrCodeIndexFailed         = "index_failed"
)
