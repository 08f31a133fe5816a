package middleware

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzip"
)

// CompressionConfig holds configuration for response compression
type CompressionConfig struct {
	MinSize          int      // Minimum response size to compress (bytes)
	CompressionLevel int      // Gzip compression level (1-9, 9 is best compression)
	ContentTypes     []string // Content types to compress
}

// DefaultCompressionConfig returns the default compression configuration
func DefaultCompressionConfig() CompressionConfig {
	return CompressionConfig{
		MinSize:          1024,
		CompressionLevel: gzip.DefaultCompression,
		ContentTypes: []string{
			"application/json",
			"text/plain",
		},
	}
}

// CompressionMiddleware gzips large responses for clients that accept it.
type CompressionMiddleware struct {
	config CompressionConfig
	stats  *CompressionStats
	pool   sync.Pool
}

// NewCompressionMiddleware creates a new compression middleware
func NewCompressionMiddleware(config CompressionConfig) *CompressionMiddleware {
	if config.MinSize < 0 {
		config.MinSize = 0
	}
	level := config.CompressionLevel
	if level < gzip.HuffmanOnly || level > gzip.BestCompression {
		level = gzip.DefaultCompression
	}

	return &CompressionMiddleware{
		config: config,
		stats:  NewCompressionStats(),
		pool: sync.Pool{
			New: func() interface{} {
				gz, _ := gzip.NewWriterLevel(nil, level)
				return gz
			},
		},
	}
}

// Handler buffers the response and gzips it once the handler chain is done.
// Responses under MinSize, non-200s and other content types go out unchanged.
func (cm *CompressionMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !strings.Contains(c.GetHeader("Accept-Encoding"), "gzip") {
			c.Next()
			return
		}

		buffered := &bufferedWriter{ResponseWriter: c.Writer}
		c.Writer = buffered
		c.Next()
		c.Writer = buffered.ResponseWriter

		body := buffered.buf.Bytes()
		if buffered.Status() != http.StatusOK ||
			len(body) < cm.config.MinSize ||
			!cm.shouldCompress(buffered.Header().Get("Content-Type")) {
			cm.stats.RecordRequest(int64(len(body)), int64(len(body)), false)
			_, _ = c.Writer.Write(body)
			return
		}

		var out bytes.Buffer
		gz := cm.pool.Get().(*gzip.Writer)
		gz.Reset(&out)
		_, err := gz.Write(body)
		if err == nil {
			err = gz.Close()
		}
		cm.pool.Put(gz)

		if err != nil {
			cm.stats.RecordRequest(int64(len(body)), int64(len(body)), false)
			_, _ = c.Writer.Write(body)
			return
		}

		h := c.Writer.Header()
		h.Set("Content-Encoding", "gzip")
		h.Add("Vary", "Accept-Encoding")
		h.Set("Content-Length", strconv.Itoa(out.Len()))

		cm.stats.RecordRequest(int64(len(body)), int64(out.Len()), true)
		_, _ = c.Writer.Write(out.Bytes())
	}
}

// shouldCompress checks if the content type should be compressed
func (cm *CompressionMiddleware) shouldCompress(contentType string) bool {
	for _, ct := range cm.config.ContentTypes {
		if strings.Contains(contentType, ct) {
			return true
		}
	}
	return false
}

// GetStats returns compression statistics
func (cm *CompressionMiddleware) GetStats() map[string]interface{} {
	return cm.stats.GetStats()
}

// bufferedWriter holds the body back until the middleware decides on an encoding.
type bufferedWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *bufferedWriter) Write(data []byte) (int, error) {
	return w.buf.Write(data)
}

func (w *bufferedWriter) WriteString(s string) (int, error) {
	return w.buf.WriteString(s)
}

// CompressionStats tracks compression statistics
type CompressionStats struct {
	TotalRequests      int64
	CompressedRequests int64
	TotalBytes         int64
	CompressedBytes    int64
	mutex              sync.RWMutex
}

// NewCompressionStats creates new compression statistics
func NewCompressionStats() *CompressionStats {
	return &CompressionStats{}
}

// RecordRequest records a request's compression stats
func (cs *CompressionStats) RecordRequest(originalSize, compressedSize int64, compressed bool) {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	cs.TotalRequests++
	cs.TotalBytes += originalSize

	if compressed {
		cs.CompressedRequests++
		cs.CompressedBytes += compressedSize
	}
}

// GetStats returns current compression statistics
func (cs *CompressionStats) GetStats() map[string]interface{} {
	cs.mutex.RLock()
	defer cs.mutex.RUnlock()

	compressionRatio := float64(0)
	if cs.TotalBytes > 0 {
		compressionRatio = float64(cs.CompressedBytes) / float64(cs.TotalBytes)
	}

	return map[string]interface{}{
		"total_requests":      cs.TotalRequests,
		"compressed_requests": cs.CompressedRequests,
		"total_bytes":         cs.TotalBytes,
		"compressed_bytes":    cs.CompressedBytes,
		"compression_ratio":   compressionRatio,
	}
}
