package middleware

import (
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
)

// CompressionConfig tunes the brotli middleware.
type CompressionConfig struct {
	Quality   int
	MinLength int
	// SkipPrefixes lists path prefixes served uncompressed, e.g. already compressed uploads.
	SkipPrefixes []string
}

var DefaultCompressionConfig = CompressionConfig{
	Quality:   brotli.DefaultCompression,
	MinLength: 1024,
}

// brotliWriter buffers the body until MinLength bytes are known, then either
// switches to brotli or writes the buffer through unchanged.
type brotliWriter struct {
	gin.ResponseWriter
	quality   int
	minLength int
	buf       []byte
	bw        *brotli.Writer
	decided   bool
}

func (w *brotliWriter) Write(data []byte) (int, error) {
	if w.decided {
		if w.bw != nil {
			return w.bw.Write(data)
		}
		return w.ResponseWriter.Write(data)
	}

	w.buf = append(w.buf, data...)
	if len(w.buf) < w.minLength {
		return len(data), nil
	}

	if err := w.decide(true); err != nil {
		return 0, err
	}
	return len(data), nil
}

func (w *brotliWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

// decide picks compressed or plain output and drains the buffer.
func (w *brotliWriter) decide(compress bool) error {
	w.decided = true
	if compress && w.Header().Get("Content-Encoding") == "" {
		w.Header().Set("Content-Encoding", "br")
		w.Header().Del("Content-Length")
		w.bw = brotli.NewWriterLevel(w.ResponseWriter, w.quality)
		_, err := w.bw.Write(w.buf)
		w.buf = nil
		return err
	}
	_, err := w.ResponseWriter.Write(w.buf)
	w.buf = nil
	return err
}

// Flush is called by streaming endpoints. An undecided body is sent uncompressed.
func (w *brotliWriter) Flush() {
	if !w.decided {
		_ = w.decide(false)
	}
	if w.bw != nil {
		_ = w.bw.Flush()
	}
	w.ResponseWriter.Flush()
}

func (w *brotliWriter) close() error {
	if !w.decided {
		// Short bodies are not worth compressing.
		return w.decide(false)
	}
	if w.bw != nil {
		return w.bw.Close()
	}
	return nil
}

// Compression returns a brotli middleware, or a no-op when disabled.
func Compression(enabled bool, cfg CompressionConfig) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) { c.Next() }
	}
	if cfg.Quality < 0 || cfg.Quality > 11 {
		cfg.Quality = brotli.DefaultCompression
	}
	if cfg.MinLength <= 0 {
		cfg.MinLength = DefaultCompressionConfig.MinLength
	}

	return func(c *gin.Context) {
		if shouldSkip(c, cfg.SkipPrefixes) || !acceptsBrotli(c.Request) {
			c.Next()
			return
		}

		c.Header("Vary", "Accept-Encoding")

		w := &brotliWriter{
			ResponseWriter: c.Writer,
			quality:        cfg.Quality,
			minLength:      cfg.MinLength,
		}
		c.Writer = w

		defer func() {
			if err := w.close(); err != nil {
				_ = c.Error(err)
			}
		}()

		c.Next()
	}
}

// shouldSkip returns true for requests that must be streamed untouched.
func shouldSkip(c *gin.Context, prefixes []string) bool {
	// SSE requires immediate streaming
	if strings.Contains(c.GetHeader("Accept"), "text/event-stream") {
		return true
	}
	// The WebSocket handshake fails if the response is wrapped
	if strings.EqualFold(c.GetHeader("Upgrade"), "websocket") {
		return true
	}
	for _, p := range prefixes {
		if strings.HasPrefix(c.Request.URL.Path, p) {
			return true
		}
	}
	return false
}

func acceptsBrotli(r *http.Request) bool {
	ae := r.Header.Get("Accept-Encoding")
	for _, enc := range strings.Split(ae, ",") {
		enc = strings.TrimSpace(strings.ToLower(enc))
		if enc == "br" || strings.HasPrefix(enc, "br;") {
			return true
		}
	}
	return false
}
