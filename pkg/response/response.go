package response

// Response represents a standard API response format
type Response struct {
	Status     string            `json:"status"`      // "success" or "error"
	StatusCode int               `json:"status_code"` // HTTP status code
	Data       interface{}       `json:"data,omitempty"`
	Error      string            `json:"error,omitempty"`
	Fields     map[string]string `json:"fields,omitempty"` // per-field binding failures
}

// Success returns a standard success response wrapping the data
func Success(statusCode int, data interface{}) Response {
	return Response{
		Status:     "success",
		StatusCode: statusCode,
		Data:       data,
	}
}

// Error returns a standard error response wrapping the error message
func Error(statusCode int, err string) Response {
	return Response{
		Status:     "error",
		StatusCode: statusCode,
		Error:      err,
	}
}

// Invalid returns a 400 error response listing the rejected fields
func Invalid(statusCode int, err string, fields map[string]string) Response {
	res := Error(statusCode, err)
	if len(fields) > 0 {
		res.Fields = fields
	}
	return res
}

// Message wraps a plain confirmation text as response data
func Message(text string) map[string]string {
	return map[string]string{"message": text}
}
