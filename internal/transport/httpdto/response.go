package httpdto

// ErrorResponse is the error body for every REST failure.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func NewErrorResponse(err string, details string) ErrorResponse {
	return ErrorResponse{Error: err, Details: details}
}
