// internal/app/system/limits/limits.go
package limits

// Request body size limits.
const (
	// MaxJSONBody is the default cap for JSON request bodies.
	MaxJSONBody = 1 << 20 // 1 MB

	// MaxMessageBody caps a discussion post or edit before sanitizing.
	MaxMessageBody = 64 << 10 // 64 KB
)
