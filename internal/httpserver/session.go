package httpserver

import (
	"net/http"

	"github.com/asesorame/asesorame/internal/service"
	"github.com/asesorame/asesorame/internal/transport"
	"github.com/asesorame/asesorame/pkg/logging"
	"github.com/labstack/echo/v4"
)

type SessionHTTP struct {
	Svc *service.SessionService
}

func (h *SessionHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "session.create")

	userID, err := userIDFrom(c)
	if err != nil {
		return err
	}

	var req transport.CreateSessionRequest
	if err := bindBody(c, l, "create_session_error", &req); err != nil {
		return err
	}

	s, err := h.Svc.Create(ctx, userID, req)
	if err != nil {
		return fail(l, "create_session_error", err)
	}

	l.Info("create_session_success", "sessionID", s.ID)
	return c.JSON(http.StatusCreated, map[string]any{"session": transport.NewSessionResponse(s)})
}

func (h *SessionHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "session.list")

	userID, err := userIDFrom(c)
	if err != nil {
		return err
	}

	list, err := h.Svc.ListForUser(ctx, userID, c.QueryParam("status"))
	if err != nil {
		return fail(l, "list_sessions_error", err)
	}
	return c.JSON(http.StatusOK, transport.NewSessionResponses(list))
}

func (h *SessionHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "session.get")

	userID, err := userIDFrom(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, l, "get_session_error")
	if err != nil {
		return err
	}

	s, err := h.Svc.Get(ctx, userID, id)
	if err != nil {
		return fail(l, "get_session_error", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"session": transport.NewSessionResponse(s)})
}

func (h *SessionHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "session.update")

	userID, err := userIDFrom(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, l, "update_session_error")
	if err != nil {
		return err
	}

	var req transport.UpdateSessionRequest
	if err := bindBody(c, l, "update_session_error", &req); err != nil {
		return err
	}

	s, err := h.Svc.UpdateStatus(ctx, userID, id, req)
	if err != nil {
		return fail(l, "update_session_error", err)
	}

	l.Info("update_session_success", "sessionID", s.ID, "status", s.Status)
	return c.JSON(http.StatusOK, map[string]any{"session": transport.NewSessionResponse(s)})
}

func (h *SessionHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "session.delete")

	userID, err := userIDFrom(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, l, "delete_session_error")
	if err != nil {
		return err
	}

	if err := h.Svc.Delete(ctx, userID, id); err != nil {
		return fail(l, "delete_session_error", err)
	}

	l.Info("delete_session_success", "sessionID", id)
	return c.JSON(http.StatusOK, map[string]any{"message": "Session deleted and cart cleared"})
}

func (h *SessionHTTP) Rate(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "session.rate")

	userID, err := userIDFrom(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, l, "rate_session_error")
	if err != nil {
		return err
	}

	var req transport.RateSessionRequest
	if err := bindBody(c, l, "rate_session_error", &req); err != nil {
		return err
	}

	s, err := h.Svc.Rate(ctx, userID, id, req)
	if err != nil {
		return fail(l, "rate_session_error", err)
	}

	l.Info("rate_session_success", "sessionID", s.ID, "score", s.Rating.Score)
	return c.JSON(http.StatusOK, map[string]any{"session": transport.NewSessionResponse(s)})
}
