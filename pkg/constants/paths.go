package constants

// Shared HTTP paths.
const (
	PathHealth = "/health"
	PathReady  = "/ready"
)
