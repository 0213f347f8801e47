// internal/models/types.go
package models

// ModelResponse is the normalized result of one CLI model invocation.
// Success and Error mirror each other: Error is empty exactly when Success
// is true, and Response carries text only on success.
type ModelResponse struct {
	Model          string  `json:"model"`
	Response       string  `json:"response"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	Success        bool    `json:"success"`
	Error          string  `json:"error,omitempty"`
}

func successResponse(model, text string, elapsed float64) ModelResponse {
	return ModelResponse{
		Model:          model,
		Response:       text,
		ElapsedSeconds: elapsed,
		Success:        true,
	}
}

func errorResponse(model, errMsg string, elapsed float64) ModelResponse {
	return ModelResponse{
		Model:          model,
		ElapsedSeconds: elapsed,
		Error:          errMsg,
	}
}
