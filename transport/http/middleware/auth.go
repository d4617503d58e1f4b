package middleware

import (
	"braidbook/config"
	"braidbook/infras/jwt"
	"braidbook/infras/otel"
	"braidbook/permissions"
	"braidbook/shared/constant"
	"braidbook/shared/failure"
	"braidbook/transport/http/response"
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

const (
	subjectAdminKey = "admin-key"
)

// Auth authenticates admin callers.
type Auth interface {
	Auth(http.Handler) http.Handler
}

// Role enforces the roles listed for a route in permissions.json.
type Role interface {
	RBAC(http.Handler) http.Handler
}

type AuthRole interface {
	Auth
	Role
}

type authRoleImpl struct {
	jwtService jwt.JWT
	otel       otel.Otel
	permission *permissions.PermissionData
	cfg        *config.Config
}

func NewAuthRoleMiddleware(jwtService jwt.JWT, otel otel.Otel, permissions *permissions.PermissionData, cfg *config.Config) AuthRole {
	return &authRoleImpl{
		jwtService: jwtService,
		otel:       otel,
		permission: permissions,
		cfg:        cfg,
	}
}

// Auth accepts either the shared admin key header or a bearer token issued by /admin/login.
func (m *authRoleImpl) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		ctx, scope := m.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, "auth.middleware")
		defer scope.End()

		scope.SetAttributes(map[string]any{
			"middleware.type": "auth",
			"http.path":       request.URL.Path,
			"http.method":     request.Method,
		})

		if adminKey := request.Header.Get(constant.RequestHeaderAdminKey); adminKey != "" {
			if !m.validAdminKey(adminKey) {
				err := failure.Unauthorized("Invalid admin key")
				scope.TraceError(err)
				log.Warn().Str("path", request.URL.Path).Msg("rejected admin key")

				response.WithError(writer, err)

				return
			}

			scope.SetAttribute("auth.method", "admin_key")
			next.ServeHTTP(writer, request.WithContext(withIdentity(ctx, subjectAdminKey, constant.RoleAdmin, constant.Empty)))

			return
		}

		authHeader := request.Header.Get(constant.RequestHeaderAuthorization)
		if authHeader == "" {
			err := failure.Unauthorized("Missing authorization header")
			scope.TraceError(err)

			response.WithError(writer, err)

			return
		}

		tokenString, err := jwt.ExtractTokenFromHeader(authHeader)
		if err != nil {
			err := failure.Unauthorized("Invalid authorization header format")
			scope.TraceError(err)

			response.WithError(writer, err)

			return
		}

		claims, err := m.jwtService.ValidateToken(tokenString)
		if err != nil {
			var message string

			switch {
			case errors.Is(err, jwt.ErrExpiredToken):
				message = "Token has expired"
			case errors.Is(err, jwt.ErrInvalidClaim):
				message = "Invalid token claims"
			case errors.Is(err, jwt.ErrMissingKey):
				log.Error().Msg("admin token presented but JWT secret is not configured")

				message = "Token validation failed"
			default:
				message = "Invalid token"
			}

			err := failure.Unauthorized(message)
			scope.TraceError(err)

			response.WithError(writer, err)

			return
		}

		scope.SetAttribute("auth.method", "bearer")
		next.ServeHTTP(writer, request.WithContext(withIdentity(ctx, claims.Subject, claims.Role, claims.TokenID)))
	})
}

// RBAC must run after Auth. Routes missing from permissions.json require the admin role.
func (m *authRoleImpl) RBAC(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		ctx, scope := m.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, "rbac.middleware")
		defer scope.End()

		allowed := []string{constant.RoleAdmin}

		if m.permission != nil {
			if m.permission.Skip {
				next.ServeHTTP(writer, request)

				return
			}

			endpoint, ok := m.permission.Lookup(routePattern(request), request.Method)
			if ok && endpoint.Skip {
				next.ServeHTTP(writer, request)

				return
			}

			if ok && len(endpoint.Permissions) > 0 {
				allowed = endpoint.Permissions
			}
		}

		userRole, _ := ctx.Value(constant.ContextKeyUserRole).(string)

		if !slices.Contains(allowed, userRole) {
			err := failure.ForbiddenError
			scope.TraceError(err)
			scope.SetAttributes(map[string]any{
				"user_role":     userRole,
				"allowed_roles": allowed,
				"reason":        "role_not_allowed",
			})

			response.WithError(writer, err)

			return
		}

		next.ServeHTTP(writer, request)
	})
}

func (m *authRoleImpl) validAdminKey(key string) bool {
	expected := m.cfg.App.APIKey
	if expected == "" {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(key), []byte(expected)) == 1
}

func withIdentity(ctx context.Context, subject, role, tokenID string) context.Context {
	ctx = context.WithValue(ctx, constant.ContextKeyUserID, subject)
	ctx = context.WithValue(ctx, constant.ContextKeyUserRole, role)

	return context.WithValue(ctx, constant.ContextKeyTokenID, tokenID)
}

func routePattern(request *http.Request) string {
	rctx := chi.RouteContext(request.Context())
	if rctx == nil || rctx.Routes == nil {
		return request.URL.Path
	}

	if pattern := rctx.Routes.Find(chi.NewRouteContext(), request.Method, request.URL.Path); pattern != "" {
		return pattern
	}

	return request.URL.Path
}
