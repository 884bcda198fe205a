package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

// Keys written into the envelope meta block.
const (
	MetaCacheHit         = "cache_hit"
	MetaDegraded         = "degraded"
	MetaDegradedReason   = "degraded_reason"
	MetaProcessingTimeMS = "processing_time_ms"
)

const responseMetaKey = "response_meta"

// WithResponseMeta gives every request a meta map and stamps the processing time unless a
// handler already did.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Set(responseMetaKey, map[string]interface{}{})
		c.Next()
		meta := ensureMeta(c)
		if _, exists := meta[MetaProcessingTimeMS]; !exists {
			meta[MetaProcessingTimeMS] = time.Since(start).Milliseconds()
		}
	}
}

// SetCacheHit reports whether dashboard statistics came from Redis.
func SetCacheHit(c *gin.Context, hit bool) {
	ensureMeta(c)[MetaCacheHit] = hit
}

// SetDegraded marks a dashboard response that fell back to empty data.
func SetDegraded(c *gin.Context, reason string) {
	meta := ensureMeta(c)
	meta[MetaDegraded] = true
	meta[MetaDegradedReason] = reason
}

// StampProcessingTime records the time spent since start and returns the meta map for the
// response envelope.
func StampProcessingTime(c *gin.Context, start time.Time) map[string]interface{} {
	meta := ensureMeta(c)
	meta[MetaProcessingTimeMS] = time.Since(start).Milliseconds()
	return meta
}

// ExtractMeta returns the meta map stored on the context, or nil.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	if meta, exists := c.Get(responseMetaKey); exists {
		if typed, ok := meta.(map[string]interface{}); ok {
			return typed
		}
	}
	return nil
}

func ensureMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return map[string]interface{}{}
	}
	if meta := ExtractMeta(c); meta != nil {
		return meta
	}
	meta := make(map[string]interface{})
	c.Set(responseMetaKey, meta)
	return meta
}
