package httpserver

import (
	"net/http"

	"github.com/kaytu-io/fulfillment/pkg/api"
	"github.com/labstack/echo/v4"
)

const (
	XKaytuUserIDHeader   = "X-Kaytu-UserId"
	XKaytuUserRoleHeader = "X-Kaytu-UserRole"
)

func AuthorizeHandler(h echo.HandlerFunc, minRole api.Role) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if err := RequireMinRole(ctx, minRole); err != nil {
			return err
		}

		return h(ctx)
	}
}

func RequireMinRole(ctx echo.Context, minRole api.Role) error {
	if !GetUserRole(ctx).HasAccess(minRole) {
		return echo.NewHTTPError(http.StatusForbidden, "missing required permission")
	}

	return nil
}

func GetUserID(ctx echo.Context) string {
	return ctx.Request().Header.Get(XKaytuUserIDHeader)
}

func GetUserRole(ctx echo.Context) api.Role {
	return api.Role(ctx.Request().Header.Get(XKaytuUserRoleHeader))
}
