package server

import (
	"compress/gzip"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// gzipMiddleware compresses responses for clients that advertise gzip support.
// The metrics endpoint is left alone since scrapers negotiate their own encoding.
func gzipMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		r := c.Request
		if r.Method == http.MethodHead || r.URL.Path == "/metrics" || !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			c.Next()
			return
		}

		gzw := &gzipResponseWriter{ResponseWriter: c.Writer}
		c.Writer = gzw
		defer gzw.Close()
		c.Next()
	}
}

// gzipResponseWriter starts compressing on the first body write, so empty
// responses such as 204 stay empty.
type gzipResponseWriter struct {
	gin.ResponseWriter
	gz *gzip.Writer
}

func (g *gzipResponseWriter) start() {
	if g.gz != nil {
		return
	}
	// Avoid double-encoding
	if g.Header().Get("Content-Encoding") == "" {
		g.Header().Set("Content-Encoding", "gzip")
		g.Header().Add("Vary", "Accept-Encoding")
		g.Header().Del("Content-Length")
		g.gz = gzip.NewWriter(g.ResponseWriter)
	}
}

func (g *gzipResponseWriter) Write(b []byte) (int, error) {
	g.start()
	if g.gz == nil {
		return g.ResponseWriter.Write(b)
	}
	return g.gz.Write(b)
}

func (g *gzipResponseWriter) WriteString(s string) (int, error) {
	return g.Write([]byte(s))
}

func (g *gzipResponseWriter) Flush() {
	if g.gz != nil {
		_ = g.gz.Flush()
	}
	g.ResponseWriter.Flush()
}

func (g *gzipResponseWriter) Close() error {
	if g.gz != nil {
		return g.gz.Close()
	}
	return nil
}
