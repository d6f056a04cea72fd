package http

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// NewRouter builds the echo instance with every route of the service.
//
// Admin routes require "Authorization: Bearer <adminToken>". Every /api/v1 route is
// validated against the embedded OpenAPI document before its handler runs.
func NewRouter(s *Server, adminToken string, logger *slog.Logger) (*echo.Echo, error) {
	doc, err := GetSwagger()
	if err != nil {
		return nil, err
	}
	validate, err := requestValidator(doc)
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(requestLogger(logger))

	e.GET("/health", s.Health)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	public := []echo.MiddlewareFunc{validate}
	admin := []echo.MiddlewareFunc{adminAuth(adminToken), validate}

	api := e.Group("/api/v1")
	api.POST("/automation/run/:kind", s.RunAutomation, admin...)
	api.GET("/automation/runs", s.GetAutomationRuns, admin...)
	api.GET("/automation/settings", s.GetAutomationSettings, admin...)
	api.PUT("/automation/settings", s.UpdateAutomationSettings, admin...)
	api.POST("/orders", s.CreateOrder, public...)
	api.GET("/orders/active", s.GetActiveOrders, public...)
	api.GET("/orders/:id", s.GetOrder, public...)
	api.PATCH("/orders/:id/status", s.TransitionOrder, admin...)
	api.POST("/shippers", s.CreateShipper, admin...)
	api.GET("/shippers/available", s.GetAvailableShippers, public...)

	return e, nil
}

func adminAuth(token string) echo.MiddlewareFunc {
	return middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
		KeyLookup:  "header:" + echo.HeaderAuthorization,
		AuthScheme: "Bearer",
		Validator: func(key string, _ echo.Context) (bool, error) {
			return token != "" && subtle.ConstantTimeCompare([]byte(key), []byte(token)) == 1, nil
		},
		ErrorHandler: func(_ error, c echo.Context) error {
			return writeError(c, http.StatusUnauthorized, "Unauthorized")
		},
	})
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	logger = logger.With("component", "http")
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			}
			if v.Error != nil {
				logger.ErrorContext(c.Request().Context(), "Request failed", append(attrs, "error", v.Error)...)
				return nil
			}
			logger.InfoContext(c.Request().Context(), "Request", attrs...)
			return nil
		},
	})
}
