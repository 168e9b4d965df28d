package middleware

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/upb/permguard/guard"
	"github.com/upb/permguard/rbac"
	"github.com/upb/permguard/session"
	"github.com/upb/permguard/utils"
	"go.uber.org/zap"
)

// Resolver defines the authorization checks the middleware delegates to.
// *guard.Store implements it.
type Resolver interface {
	RequireAuthentication(ctx context.Context) guard.AuthResult
	RequireAuthenticationAndPermission(ctx context.Context, permission rbac.Permission) guard.AuthResult
	RequireAnyPermission(ctx context.Context, permissions ...rbac.Permission) guard.AuthResult
	RequireAllPermissions(ctx context.Context, permissions ...rbac.Permission) guard.AuthResult
}

// Checker is a caller-supplied authorization predicate. r is a clone of the
// inbound request whose body may be consumed freely.
type Checker func(ctx context.Context, s *session.Session, r *http.Request) (bool, error)

// CustomPermissionOptions controls the response sent when a Checker refuses.
type CustomPermissionOptions struct {
	ErrorMessage string
	ErrorStatus  int `validate:"omitempty,gte=400,lte=599"`
}

// PermissionMiddleware provides authentication and authorization middleware
type PermissionMiddleware struct {
	resolver Resolver
	logger   *zap.Logger
}

// NewPermissionMiddleware creates a new PermissionMiddleware.
// A nil resolver uses the default guard Store.
func NewPermissionMiddleware(resolver Resolver, logger *zap.Logger) *PermissionMiddleware {
	if resolver == nil {
		resolver = guard.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PermissionMiddleware{
		resolver: resolver,
		logger:   logger,
	}
}

// WithAuthentication is a middleware that requires a valid session
func (m *PermissionMiddleware) WithAuthentication(next http.Handler) http.Handler {
	return m.enforce("authentication", m.resolver.RequireAuthentication, next)
}

// WithPermission returns a middleware that requires an active session whose role grants permission
func (m *PermissionMiddleware) WithPermission(permission rbac.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return m.enforce(string(permission), func(ctx context.Context) guard.AuthResult {
			return m.resolver.RequireAuthenticationAndPermission(ctx, permission)
		}, next)
	}
}

// WithAnyPermission is WithPermission satisfied by any one of permissions
func (m *PermissionMiddleware) WithAnyPermission(permissions ...rbac.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return m.enforce(fmt.Sprintf("any%v", permissions), func(ctx context.Context) guard.AuthResult {
			return m.resolver.RequireAnyPermission(ctx, permissions...)
		}, next)
	}
}

// WithAllPermissions is WithPermission requiring every one of permissions
func (m *PermissionMiddleware) WithAllPermissions(permissions ...rbac.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return m.enforce(fmt.Sprintf("all%v", permissions), func(ctx context.Context) guard.AuthResult {
			return m.resolver.RequireAllPermissions(ctx, permissions...)
		}, next)
	}
}

// WithCustomPermission returns a middleware that authenticates the request and
// then asks checker for a decision. The request body is buffered so the checker
// and the wrapped handler can both read it.
//
// Invalid options panic when the middleware is built.
func (m *PermissionMiddleware) WithCustomPermission(checker Checker, opts CustomPermissionOptions) func(http.Handler) http.Handler {
	if checker == nil {
		panic("middleware: nil Checker")
	}
	if err := utils.ValidateStruct(opts); err != nil {
		panic(fmt.Sprintf("middleware: invalid custom permission options: %v", err))
	}
	message := opts.ErrorMessage
	if message == "" {
		message = guard.DefaultInsufficientPermissionsMessage
	}
	status := opts.ErrorStatus
	if status == 0 {
		status = http.StatusForbidden
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := GetRequestIDFromContext(ctx)

			result := m.resolver.RequireAuthentication(session.WithRequest(ctx, r))
			if result.Denial != nil {
				m.deny(w, requestID, "custom", result.Denial)
				return
			}

			body, err := readBody(r)
			if err != nil {
				m.logger.Warn("failed to read request body",
					zap.String("request_id", requestID),
					zap.Error(err))
				_ = utils.WriteBadRequest(w, "Unable to read request body", nil)
				return
			}

			ctx = WithSession(ctx, result.Session)

			checkReq := r.Clone(ctx)
			checkReq.Body = io.NopCloser(bytes.NewReader(body))

			allowed, err := checker(ctx, result.Session, checkReq)
			if err != nil {
				m.logger.Error("permission checker failed",
					zap.String("request_id", requestID),
					zap.String("user_id", result.Session.UserID()),
					zap.Error(err))
				_ = utils.WriteInternalServerError(w, "Internal server error")
				return
			}

			if !allowed {
				m.deny(w, requestID, "custom", guard.NewDenial(status, message))
				return
			}

			m.logger.Debug("custom permission check passed",
				zap.String("request_id", requestID),
				zap.String("user_id", result.Session.UserID()))

			r.Body = io.NopCloser(bytes.NewReader(body))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (m *PermissionMiddleware) enforce(check string, resolve func(context.Context) guard.AuthResult, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := GetRequestIDFromContext(ctx)

		result := resolve(session.WithRequest(ctx, r))
		if result.Denial != nil {
			m.deny(w, requestID, check, result.Denial)
			return
		}

		m.logger.Debug("authorization passed",
			zap.String("request_id", requestID),
			zap.String("check", check),
			zap.String("user_id", result.Session.UserID()),
			zap.String("role", string(result.Session.Role())))

		next.ServeHTTP(w, r.WithContext(WithSession(ctx, result.Session)))
	})
}

func (m *PermissionMiddleware) deny(w http.ResponseWriter, requestID, check string, d *guard.Denial) {
	fields := []zap.Field{
		zap.String("request_id", requestID),
		zap.String("check", check),
		zap.String("reason", string(d.Kind)),
		zap.Int("status", d.Status),
	}
	if d.Cause != nil {
		fields = append(fields, zap.Error(d.Cause))
	}
	m.logger.Warn("request denied", fields...)
	_ = d.Write(w)
}

func readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	defer r.Body.Close()
	return io.ReadAll(r.Body)
}
