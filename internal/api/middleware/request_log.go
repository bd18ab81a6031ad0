package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/jwt-pizza/pizza-service/pkg/logger"
)

// RequestLogger writes one access log line per request through zerolog.
func RequestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		Skipper:      skipProbes,
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil || v.Status >= 500 {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Bool("authenticated", hasIdentity(c)).
				Msg("request")
			return nil
		},
	})
}

// BodyLogger dumps redacted request and response bodies at debug level.
func BodyLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.BodyDumpWithConfig(echomiddleware.BodyDumpConfig{
		Skipper: func(c echo.Context) bool {
			return skipProbes(c) || log.GetLevel() > zerolog.DebugLevel
		},
		Handler: func(c echo.Context, reqBody, resBody []byte) {
			log.Debug().
				Str("method", c.Request().Method).
				Str("path", c.Path()).
				Str("authorization", logger.Redact("Authorization: "+c.Request().Header.Get(echo.HeaderAuthorization))).
				Str("request_body", logger.Redact(string(reqBody))).
				Str("response_body", logger.Redact(string(resBody))).
				Msg("http body")
		},
	})
}

func skipProbes(c echo.Context) bool {
	p := c.Request().URL.Path
	return p == "/metrics" || strings.HasPrefix(p, "/health")
}

func hasIdentity(c echo.Context) bool {
	_, ok := IdentityFrom(c)
	return ok
}
