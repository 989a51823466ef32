package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/addislearn/learning-platform/internal/config"
)

// cachedResponse is the value stored in Redis for a cached GET.
type cachedResponse struct {
	Status int    `json:"status"`
	Body   []byte `json:"body"`
}

// bodyCapture tees the response body so it can be stored after the
// handler runs.
type bodyCapture struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
}

func (w *bodyCapture) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *bodyCapture) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

// NewResponseCache caches successful JSON GET responses in Redis. It is
// meant for the public catalogue routes where the same course listings are
// requested far more often than they change. Only status and body are
// cached; authenticated requests and non-GET methods bypass the cache.
func NewResponseCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return func(c echo.Context) error { return next(c) } }
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Method != http.MethodGet || req.Header.Get("Authorization") != "" {
				return next(c)
			}

			sum := sha256.Sum256([]byte(req.URL.RequestURI()))
			key := cfg.Prefix + ":" + hex.EncodeToString(sum[:16])
			ctx := req.Context()

			if raw, err := rdb.Get(ctx, key).Bytes(); err == nil {
				var cached cachedResponse
				if json.Unmarshal(raw, &cached) == nil {
					c.Response().Header().Set("X-Cache", "HIT")
					c.Response().Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
					c.Response().WriteHeader(cached.Status)
					_, werr := c.Response().Write(cached.Body)
					return werr
				}
			}

			capture := &bodyCapture{ResponseWriter: c.Response().Writer, status: http.StatusOK}
			c.Response().Writer = capture
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}

			// Cache only successful, reasonably sized bodies.
			if capture.status == http.StatusOK && capture.buf.Len() > 0 && capture.buf.Len() <= cfg.MaxBodyBytes {
				entry, err := json.Marshal(cachedResponse{Status: capture.status, Body: capture.buf.Bytes()})
				if err == nil {
					storeCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
					defer cancel()
					rdb.Set(storeCtx, key, entry, cfg.TTL)
				}
			}
			return nil
		}
	}
}
