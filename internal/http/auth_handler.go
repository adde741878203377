package httpapi

import (
	"net/http"
	"time"

	"village-connect/internal/domain"
	"village-connect/internal/service"
	"village-connect/pkg/errs"

	"go.uber.org/zap"
)

// AuthHandler 认证 Handler
// 登录握手由身份提供方完成，这里只做 token 换身份 -> upsert 用户 -> 建会话
type AuthHandler struct {
	identity service.IdentityProvider
	users    service.UserService
	sessions service.SessionService
	logger   *zap.Logger
}

// NewAuthHandler 创建认证 Handler
func NewAuthHandler(identity service.IdentityProvider, users service.UserService, sessions service.SessionService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		identity: identity,
		users:    users,
		sessions: sessions,
		logger:   logger,
	}
}

// Login 登录：POST /api/auth/login {"accessToken": "..."}
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var reqBody struct {
		AccessToken string `json:"accessToken"`
	}
	if err := readBodyJSON(r, 1<<20, &reqBody); err != nil {
		writeError(w, errs.NewValidation("body", "invalid JSON"))
		return
	}
	if reqBody.AccessToken == "" {
		writeError(w, errs.NewValidation("accessToken", "required"))
		return
	}

	claims, err := h.identity.Userinfo(r.Context(), reqBody.AccessToken)
	if err != nil {
		writeError(w, err)
		return
	}

	user, err := h.users.UpsertUser(r.Context(), domain.UpsertUser{
		ID:              claims.Sub,
		Email:           claims.Email,
		FirstName:       claims.FirstName,
		LastName:        claims.LastName,
		ProfileImageURL: claims.ProfileImageURL,
	})
	if err != nil {
		h.logger.Error("Failed to upsert user on login", zap.Error(err))
		writeError(w, err)
		return
	}

	session, err := h.sessions.Create(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("Failed to create session", zap.Error(err))
		writeError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, user)
}

// CurrentUser 当前用户：GET /api/auth/user
func (h *AuthHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFrom(r)
	if !ok {
		writeError(w, errs.ErrUnauthenticated)
		return
	}
	user, err := h.users.GetUser(r.Context(), actor.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Logout 退出：POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	_ = h.sessions.Delete(r.Context(), tokenFromRequest(r))
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}
