package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

// MetaKey names a field of the response "meta" object.
type MetaKey string

const (
	MetaCacheHit         MetaKey = "cache_hit"
	MetaProcessingTimeMS MetaKey = "processing_time_ms"
)

const responseMetaKey = "response_meta"

// responseMeta accumulates meta fields while a request is handled.
type responseMeta map[MetaKey]interface{}

// WithResponseMeta attaches meta storage to the request and stamps the total
// handling time unless a handler already set it.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Set(responseMetaKey, responseMeta{})
		c.Next()
		meta := metaFor(c)
		if _, ok := meta[MetaProcessingTimeMS]; !ok {
			meta[MetaProcessingTimeMS] = time.Since(start).Milliseconds()
		}
	}
}

// SetMeta stores one meta field for the current response.
func SetMeta(c *gin.Context, key MetaKey, value interface{}) {
	metaFor(c)[key] = value
}

// SetCacheHit records whether the payload was served from cache.
func SetCacheHit(c *gin.Context, hit bool) {
	SetMeta(c, MetaCacheHit, hit)
}

// ExtractMeta returns the meta fields collected so far in the shape the
// response envelope expects, or nil when none were set.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	raw, ok := c.Get(responseMetaKey)
	if !ok {
		return nil
	}
	meta, ok := raw.(responseMeta)
	if !ok || len(meta) == 0 {
		return nil
	}
	out := make(map[string]interface{}, len(meta))
	for k, v := range meta {
		out[string(k)] = v
	}
	return out
}

func metaFor(c *gin.Context) responseMeta {
	if c == nil {
		return responseMeta{}
	}
	if raw, ok := c.Get(responseMetaKey); ok {
		if meta, ok := raw.(responseMeta); ok {
			return meta
		}
	}
	meta := responseMeta{}
	c.Set(responseMetaKey, meta)
	return meta
}
