package models

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status  string `json:"status"` // "healthy" or "degraded"
	Uptime  string `json:"uptime"`
	Sites   int    `json:"sites"`
	Cycles  int    `json:"cycles"`
	Version string `json:"version"`
}

// ErrorResponse is returned by the status surface when a request is refused.
type ErrorResponse struct {
	Success bool         `json:"success"`
	Error   *ErrorDetail `json:"error"`
}

// ErrorDetail carries a machine-readable code and a human message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Version is reported by the health endpoint and the startup banner.
const Version = "0.1.0"
