package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux（避免引入第三方路由依赖）
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterHealthRoutes 健康检查
func (r *Router) RegisterHealthRoutes() {
	r.Handle("/healthz", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

// RegisterAuthRoutes 认证路由（login 无守卫，user/logout 需要会话）
func (r *Router) RegisterAuthRoutes(a *AuthHandler, m *SessionMiddleware) {
	r.Handle("/api/auth/login", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		a.Login(w, req)
	})

	r.Handle("/api/auth/user", m.RequireAuth(func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		a.CurrentUser(w, req)
	}))

	r.Handle("/api/auth/logout", m.RequireAuth(func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		a.Logout(w, req)
	}))
}

// RegisterResidentRoutes 住户路由（全部需要会话）
func (r *Router) RegisterResidentRoutes(h *ResidentHandler, m *SessionMiddleware) {
	// list / create
	r.Handle("/api/residents", m.RequireAuth(func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodGet:
			h.List(w, req)
		case http.MethodPost:
			h.Create(w, req)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))

	// me / {id}
	r.Handle("/api/residents/", m.RequireAuth(func(w http.ResponseWriter, req *http.Request) {
		rest := strings.TrimPrefix(req.URL.Path, "/api/residents/")
		if rest == "" || strings.Contains(rest, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if rest == "me" {
			if req.Method != http.MethodGet {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			h.Me(w, req)
			return
		}
		h.ServeByID(w, req, rest)
	}))
}

// RegisterAnalyticsRoutes 统计路由（全部需要会话）
func (r *Router) RegisterAnalyticsRoutes(h *AnalyticsHandler, m *SessionMiddleware) {
	get := func(fn http.HandlerFunc) http.HandlerFunc {
		return m.RequireAuth(func(w http.ResponseWriter, req *http.Request) {
			if req.Method != http.MethodGet {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			fn(w, req)
		})
	}
	r.Handle("/api/analytics/stats", get(h.TotalStats))
	r.Handle("/api/analytics/location", get(h.LocationStats))
	r.Handle("/api/analytics/occupation", get(h.OccupationStats))
}

// RegisterAdminRoutes 管理端路由（全部需要管理员）
func (r *Router) RegisterAdminRoutes(h *AdminHandler, m *SessionMiddleware) {
	r.Handle("/api/admin/users", m.RequireAdmin(func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.ListUsers(w, req)
	}))

	// /api/admin/users/{userId} 和 /api/admin/users/{userId}/role
	r.Handle("/api/admin/users/", m.RequireAdmin(func(w http.ResponseWriter, req *http.Request) {
		rest := strings.TrimPrefix(req.URL.Path, "/api/admin/users/")
		if rest == "" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if userID, ok := strings.CutSuffix(rest, "/role"); ok && userID != "" && !strings.Contains(userID, "/") {
			if req.Method != http.MethodPut {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			h.UpdateUserRole(w, req, userID)
			return
		}
		if strings.Contains(rest, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if req.Method != http.MethodDelete {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.DeleteUser(w, req, rest)
	}))

	r.Handle("/api/export/residents", m.RequireAdmin(func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.ExportResidentsCSV(w, req)
	}))

	r.Handle("/api/export/residents.xlsx", m.RequireAdmin(func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.ExportResidentsExcel(w, req)
	}))
}
