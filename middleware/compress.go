// middleware/compress.go
package middleware

import (
	"net/http"

	"github.com/dalemusser/contactd/config"
	"github.com/go-chi/chi/v5/middleware"
)

// compressibleTypes are the content types contactd actually serves.
var compressibleTypes = []string{
	"application/json",
	"text/html",
	"text/css",
	"text/plain",
	"text/javascript",
	"application/javascript",
	"image/svg+xml",
}

// CompressFromConfig returns a gzip/deflate middleware when
// coreCfg.EnableCompression is set, and an identity middleware otherwise.
// The level has already been checked by config validation; out-of-range
// values are clamped anyway.
func CompressFromConfig(coreCfg *config.CoreConfig) func(next http.Handler) http.Handler {
	if coreCfg == nil || !coreCfg.EnableCompression {
		return func(next http.Handler) http.Handler {
			return next
		}
	}
	return Compress(coreCfg.CompressionLevel)
}

// Compress returns a compression middleware at the given level (1 fastest,
// 9 smallest) restricted to compressibleTypes.
func Compress(level int) func(next http.Handler) http.Handler {
	switch {
	case level < 1:
		level = 1
	case level > 9:
		level = 9
	}
	return middleware.Compress(level, compressibleTypes...)
}
