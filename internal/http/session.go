package httpapi

import (
	"context"
	"net/http"
	"strings"

	"village-connect/internal/service"
	"village-connect/pkg/errs"

	"go.uber.org/zap"
)

// SessionCookieName 会话 cookie 名
const SessionCookieName = "session_token"

type actorContextKey struct{}

// ActorFrom 从请求上下文取已认证主体（仅在 RequireAuth 内层可用）
func ActorFrom(r *http.Request) (service.Actor, bool) {
	actor, ok := r.Context().Value(actorContextKey{}).(service.Actor)
	return actor, ok
}

// SessionMiddleware 会话中间件
// 解析 cookie / Bearer token -> 会话 -> 用户；role 每请求从 users 表新取
type SessionMiddleware struct {
	sessions service.SessionService
	users    service.UserService
	logger   *zap.Logger
}

// NewSessionMiddleware 创建会话中间件
func NewSessionMiddleware(sessions service.SessionService, users service.UserService, logger *zap.Logger) *SessionMiddleware {
	return &SessionMiddleware{
		sessions: sessions,
		users:    users,
		logger:   logger,
	}
}

// tokenFromRequest 取会话 token：cookie 优先，其次 Authorization: Bearer
func tokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(SessionCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// RequireAuth 认证守卫：无有效主体时一律 401，不执行任何核心操作
func (m *SessionMiddleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := m.sessions.Get(r.Context(), tokenFromRequest(r))
		if err != nil {
			writeError(w, errs.ErrUnauthenticated)
			return
		}

		user, err := m.users.GetUser(r.Context(), session.UserID)
		if err != nil {
			// 会话有效但用户已被删除：视同未认证
			writeError(w, errs.ErrUnauthenticated)
			return
		}

		actor := service.Actor{ID: user.ID, Role: user.Role}
		ctx := context.WithValue(r.Context(), actorContextKey{}, actor)
		next(w, r.WithContext(ctx))
	}
}

// RequireAdmin 管理员守卫（叠加在 RequireAuth 之上）
func (m *SessionMiddleware) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFrom(r)
		if !ok || !service.CanAdminUsers(actor) {
			writeError(w, errs.ErrForbidden)
			return
		}
		next(w, r)
	})
}
