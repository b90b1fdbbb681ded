// internal/app/system/limits/limits.go
package limits

// Request body size limits.
// These limits help prevent memory exhaustion from oversized requests.
const (
	// MaxJSONBodySize is the maximum size for JSON API request bodies.
	// Every payload in this service is a handful of short fields.
	MaxJSONBodySize = 64 << 10 // 64 KB
)
