package httpserver

import (
	"net/http"
	"strconv"

	"github.com/asesorame/asesorame/internal/repo"
	"github.com/asesorame/asesorame/internal/service"
	"github.com/asesorame/asesorame/internal/transport"
	"github.com/asesorame/asesorame/internal/util"
	"github.com/asesorame/asesorame/pkg/logging"
	mw "github.com/asesorame/asesorame/pkg/middleware/auth"
	"github.com/asesorame/asesorame/pkg/tokens"
	"github.com/labstack/echo/v4"
)

type UserHTTP struct {
	Svc *service.UserService
}

func (h *UserHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.register")

	var req transport.RegisterRequest
	if err := bindBody(c, l, "register_error", &req); err != nil {
		return err
	}

	user, err := h.Svc.Register(ctx, req)
	if err != nil {
		return fail(l, "register_error", err)
	}

	l.Info("register_success", "userID", user.ID)
	return c.JSON(http.StatusCreated, map[string]any{
		"message": "User registered successfully",
		"user":    user,
	})
}

func (h *UserHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.login")

	var req transport.LoginRequest
	if err := bindBody(c, l, "login_error", &req); err != nil {
		return err
	}

	res, err := h.Svc.Login(ctx, req)
	if err != nil {
		return fail(l, "login_error", err)
	}

	l.Info("login_success", "userID", res.User.ID)
	return c.JSON(http.StatusOK, map[string]any{
		"token":     res.Token,
		"expiresAt": res.ExpiresAt,
		"user":      res.User,
	})
}

func parseFloatQuery(c echo.Context, name string) (float64, error) {
	v := c.QueryParam(name)
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, name+" must be a number")
	}
	return f, nil
}

func (h *UserHTTP) ListAdvisors(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.list_advisors")

	f := repo.AdvisorFilter{Specialty: c.QueryParam("specialty")}
	var err error
	if f.MinRating, err = parseFloatQuery(c, "minRating"); err != nil {
		return err
	}
	if f.MinRate, err = parseFloatQuery(c, "minRate"); err != nil {
		return err
	}
	if f.MaxRate, err = parseFloatQuery(c, "maxRate"); err != nil {
		return err
	}
	if pr := c.QueryParam("priceRange"); pr != "" {
		if f.MinRate, f.MaxRate, err = service.ParsePriceRange(pr); err != nil {
			return fail(l, "list_advisors_error", err)
		}
	}

	advisors, err := h.Svc.ListAdvisors(ctx, f)
	if err != nil {
		return fail(l, "list_advisors_error", err)
	}
	return c.JSON(http.StatusOK, advisors)
}

func (h *UserHTTP) SearchAdvisors(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.search_advisors")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, items, err := h.Svc.SearchAdvisors(ctx, c.QueryParam("q"), offset, limit)
	if err != nil {
		return fail(l, "search_advisors_error", err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": items,
		"meta": util.Meta(page, offset, limit, total),
	})
}

func (h *UserHTTP) GetByID(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.get_by_id")

	id, err := paramID(c, l, "get_user_error")
	if err != nil {
		return err
	}

	user, err := h.Svc.GetByID(ctx, id)
	if err != nil {
		return fail(l, "get_user_error", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"user": user})
}

func (h *UserHTTP) UpdateProfile(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.update_profile")

	userID, err := userIDFrom(c)
	if err != nil {
		return err
	}

	var req transport.UpdateProfileRequest
	if err := bindBody(c, l, "update_profile_error", &req); err != nil {
		return err
	}

	user, err := h.Svc.UpdateProfile(ctx, userID, req)
	if err != nil {
		return fail(l, "update_profile_error", err)
	}

	l.Info("update_profile_success")
	return c.JSON(http.StatusOK, map[string]any{
		"message": "User updated successfully",
		"user":    user,
	})
}

func (h *UserHTTP) ListUsers(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.list_users")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, users, err := h.Svc.ListUsers(ctx, offset, limit)
	if err != nil {
		return fail(l, "list_users_error", err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": users,
		"meta": util.Meta(page, offset, limit, total),
	})
}

func (h *UserHTTP) VerifyToken(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.verify_token")

	userID, err := userIDFrom(c)
	if err != nil {
		return err
	}

	user, err := h.Svc.GetByID(ctx, userID)
	if err != nil {
		return fail(l, "verify_token_error", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"valid": true, "user": user})
}

func (h *UserHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.logout")

	claims, _ := c.Get(mw.CtxClaims).(*tokens.AccessClaims)
	if err := h.Svc.Logout(ctx, claims); err != nil {
		return fail(l, "logout_error", err)
	}

	l.Info("logout_success")
	return c.JSON(http.StatusOK, map[string]any{"message": "logged out"})
}
