package httpserver

import (
	"net/http"

	"github.com/asesorame/asesorame/internal/service"
	"github.com/asesorame/asesorame/internal/transport"
	"github.com/asesorame/asesorame/pkg/logging"
	"github.com/labstack/echo/v4"
)

type CartHTTP struct {
	Svc *service.CartService
}

func (h *CartHTTP) Add(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	userID, err := userIDFrom(c)
	if err != nil {
		return err
	}

	var req transport.AddToCartRequest
	if err := bindBody(c, l, "add_to_cart_error", &req); err != nil {
		return err
	}

	cart, err := h.Svc.Add(ctx, userID, req)
	if err != nil {
		return fail(l, "add_to_cart_error", err)
	}

	l.Info("add_to_cart_success", "cartID", cart.ID, "items", len(cart.Items))
	return c.JSON(http.StatusCreated, map[string]any{"cart": transport.NewCartResponse(cart)})
}

func (h *CartHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	userID, err := userIDFrom(c)
	if err != nil {
		return err
	}

	cart, err := h.Svc.Get(ctx, userID)
	if err != nil {
		return fail(l, "get_cart_error", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"cart": transport.NewCartResponse(cart)})
}

// Remove accepts either a cart line id or the id of the session it holds.
func (h *CartHTTP) Remove(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove")

	userID, err := userIDFrom(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, l, "remove_from_cart_error")
	if err != nil {
		return err
	}

	cart, err := h.Svc.Remove(ctx, userID, id)
	if err != nil {
		return fail(l, "remove_from_cart_error", err)
	}

	l.Info("remove_from_cart_success", "cartID", cart.ID)
	return c.JSON(http.StatusOK, map[string]any{"cart": transport.NewCartResponse(cart)})
}

func (h *CartHTTP) Clear(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear")

	userID, err := userIDFrom(c)
	if err != nil {
		return err
	}

	cart, err := h.Svc.Clear(ctx, userID)
	if err != nil {
		return fail(l, "clear_cart_error", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"cart": transport.NewCartResponse(cart)})
}
