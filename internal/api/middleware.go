// middleware.go - Owner identity, auth, access logging and metrics middleware
package api

import (
	"crypto/subtle"
	"strings"
	"time"

	"github.com/equipment-visualizer/backend/internal/metrics"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

const (
	ownerKey       = "owner"
	maxOwnerLength = 128
)

// ownerOf returns the caller's owner id; "" is the anonymous owner
func ownerOf(c echo.Context) string {
	owner, _ := c.Get(ownerKey).(string)
	return owner
}

// OwnerMiddleware reads the caller's owner id from header
func OwnerMiddleware(header string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			owner := strings.TrimSpace(c.Request().Header.Get(header))
			if len(owner) > maxOwnerLength {
				return NewValidationError(header)
			}
			c.Set(ownerKey, owner)
			return next(c)
		}
	}
}

// isProbe matches routes that stay open and unlogged
func isProbe(c echo.Context) bool {
	switch c.Path() {
	case "/api/health", "/api/ping", "/metrics":
		return true
	}
	return false
}

// AuthMiddleware requires "Authorization: Bearer <token>" outside probes
func AuthMiddleware(token string) echo.MiddlewareFunc {
	return middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
		Skipper: isProbe,
		Validator: func(key string, c echo.Context) (bool, error) {
			return subtle.ConstantTimeCompare([]byte(key), []byte(token)) == 1, nil
		},
	})
}

// RequestLogger writes one structured access log line per request
func RequestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	logger = logger.Named("http")
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper:     isProbe,
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("remote_ip", v.RemoteIP),
				zap.String("owner", ownerOf(c)),
			}
			if v.Error != nil {
				logger.Warn("request failed", append(fields, zap.Error(v.Error))...)
				return nil
			}
			logger.Info("request", fields...)
			return nil
		},
	})
}

// RequestMetrics records count, latency and in-flight requests per route
func RequestMetrics(m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			m.IncRequestsInFlight()
			defer m.DecRequestsInFlight()

			err := next(c)

			status := c.Response().Status
			if err != nil {
				status = FromDomain(err).Status
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			m.RecordHTTPRequest(c.Request().Method, route, status, time.Since(start))
			return err
		}
	}
}
