package httpserver

import (
	"net/http"

	"github.com/asesorame/asesorame/internal/service"
	"github.com/asesorame/asesorame/internal/transport"
	"github.com/asesorame/asesorame/pkg/logging"
	"github.com/labstack/echo/v4"
)

type CheckoutHTTP struct {
	Svc *service.CheckoutService
}

func (h *CheckoutHTTP) PaymentLink(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.payment_link")

	userID, err := userIDFrom(c)
	if err != nil {
		return err
	}

	// the body is optional
	var req transport.PaymentLinkRequest
	if c.Request().ContentLength > 0 {
		if err := bindBody(c, l, "payment_link_error", &req); err != nil {
			return err
		}
	}

	url, err := h.Svc.CreatePaymentLink(ctx, userID, req.Email)
	if err != nil {
		return fail(l, "payment_link_error", err)
	}

	l.Info("payment_link_success")
	return c.JSON(http.StatusOK, map[string]any{"init_point": url})
}
