package middleware

import (
	"strconv"
	"time"

	"github.com/anonto42/inkwell/backend/internal/logger"
	"github.com/anonto42/inkwell/backend/internal/metrics"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// RequestLogger logs each request through zap and records HTTP metrics.
func RequestLogger() echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			m := metrics.Get()
			m.HTTPRequestsTotal.WithLabelValues(v.Method, path, strconv.Itoa(v.Status)).Inc()
			m.HTTPRequestDuration.WithLabelValues(v.Method, path).Observe(v.Latency.Seconds())

			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency.Round(time.Microsecond)),
				zap.String("remote_ip", v.RemoteIP),
				zap.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				logger.Log.Warn("request failed", append(fields, zap.Error(v.Error))...)
				return nil
			}
			logger.Log.Info("request", fields...)
			return nil
		},
	})
}
