package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/locvowork/hrms/internal/domain"
	"github.com/locvowork/hrms/internal/logger"
	"github.com/locvowork/hrms/internal/service"
	"github.com/locvowork/hrms/internal/service/serviceutils"
)

// HeaderEmployeeID carries the authenticated employee, set by the auth gateway.
const HeaderEmployeeID = "X-Employee-ID"

const identityKey = "identity"

// RequestContext attaches a request-scoped logger and the client details used
// for auditing, then logs the outcome of the request. It expects the
// RequestID middleware to run first.
func RequestContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			start := time.Now()

			ctx := logger.WithLogger(req.Context(), map[string]interface{}{
				"request_id":  c.Response().Header().Get(echo.HeaderXRequestID),
				"method":      req.Method,
				"path":        c.Path(),
				"employee_id": req.Header.Get(HeaderEmployeeID),
			})
			ctx = service.WithRequestMeta(ctx, service.RequestMeta{
				IPAddress: c.RealIP(),
				UserAgent: req.UserAgent(),
			})
			c.SetRequest(req.WithContext(ctx))

			err := next(c)
			if err != nil {
				c.Error(err)
			}
			logger.InfoLog(ctx, "%s %s -> %d in %s", req.Method, req.URL.Path, c.Response().Status, time.Since(start))
			return nil
		}
	}
}

// Identity resolves the X-Employee-ID header into the caller identity. A
// missing or unknown employee is 401, an inactive one 403.
func Identity(employees service.EmployeeService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := strings.TrimSpace(c.Request().Header.Get(HeaderEmployeeID))
			if id == "" {
				return serviceutils.ResponseError(c, http.StatusUnauthorized, "Missing employee identity", errors.New(HeaderEmployeeID+" header is required"))
			}

			identity, err := employees.ResolveIdentity(c.Request().Context(), id)
			switch {
			case errors.Is(err, domain.ErrNotFound):
				return serviceutils.ResponseError(c, http.StatusUnauthorized, "Unknown employee", err)
			case err != nil:
				return serviceutils.ResponseFromError(c, "Failed to resolve employee", err)
			}

			c.Set(identityKey, *identity)
			return next(c)
		}
	}
}

// RequireRole lets the request through when the caller holds any of roles.
func RequireRole(roles ...domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			caller := callerFrom(c)
			for _, r := range roles {
				if caller.HasRole(r) {
					return next(c)
				}
			}
			return serviceutils.ResponseError(c, http.StatusForbidden, "Permission denied",
				&domain.AuthorizationError{Action: c.Request().Method + " " + c.Path(), Reason: "role not permitted"})
		}
	}
}

func callerFrom(c echo.Context) domain.Identity {
	id, _ := c.Get(identityKey).(domain.Identity)
	return id
}
