package httpserver

import (
	"context"
	"net/http"

	middleware "github.com/asesorame/asesorame/pkg/middleware/auth"
	"github.com/labstack/echo/v4"
)

type Deps struct {
	UserHandler     *UserHTTP
	SessionHandler  *SessionHTTP
	CartHandler     *CartHTTP
	CheckoutHandler *CheckoutHTTP

	JWTSecret   []byte
	Revocations middleware.RevocationChecker

	// Ready reports whether backing stores answer. Nil means always ready.
	Ready func(ctx context.Context) error

	// Optional; nil skips them.
	RateLimit echo.MiddlewareFunc
	Cache     echo.MiddlewareFunc
}

func passthrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return c.JSON(http.StatusServiceUnavailable, map[string]any{"message": "not ready"})
			}
		}
		return c.NoContent(http.StatusOK)
	})

	limit, cache := d.RateLimit, d.Cache
	if limit == nil {
		limit = passthrough
	}
	if cache == nil {
		cache = passthrough
	}

	authMW := middleware.NewBearerAuth(d.JWTSecret, d.Revocations)

	user := e.Group("/api/user")
	user.POST("/register", d.UserHandler.Register, limit)
	user.POST("/login", d.UserHandler.Login, limit)
	user.GET("/advisors", d.UserHandler.ListAdvisors, cache)
	user.GET("/advisors/search", d.UserHandler.SearchAdvisors)

	authed := user.Group("", authMW.RequireAuth)
	authed.GET("", d.UserHandler.ListUsers)
	authed.GET("/id/:id", d.UserHandler.GetByID)
	authed.PUT("/profile", d.UserHandler.UpdateProfile)
	authed.GET("/verifytoken", d.UserHandler.VerifyToken)
	authed.POST("/logout", d.UserHandler.Logout)

	checkout := e.Group("/api/checkout", authMW.RequireAuth)
	checkout.POST("/cart", d.CartHandler.Add)
	checkout.GET("/cart", d.CartHandler.Get)
	checkout.DELETE("/cart", d.CartHandler.Clear)
	checkout.DELETE("/cart/:id", d.CartHandler.Remove)
	checkout.POST("/payment-link", d.CheckoutHandler.PaymentLink)

	sessions := e.Group("/api/session", authMW.RequireAuth)
	sessions.POST("/create", d.SessionHandler.Create)
	sessions.GET("", d.SessionHandler.List)
	sessions.GET("/:id", d.SessionHandler.Get)
	sessions.PUT("/:id", d.SessionHandler.Update)
	sessions.DELETE("/:id", d.SessionHandler.Delete)
	sessions.POST("/:id/rating", d.SessionHandler.Rate)
}
