package httpapi

import (
	"net/http"

	"village-connect/internal/service"
	"village-connect/pkg/errs"

	"go.uber.org/zap"
)

// AdminHandler 管理端 Handler（用户管理 + 数据导出）
// 所有路由都挂在 RequireAdmin 之后
type AdminHandler struct {
	users  service.UserService
	export service.ExportService
	logger *zap.Logger
}

// NewAdminHandler 创建管理端 Handler
func NewAdminHandler(users service.UserService, export service.ExportService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		users:  users,
		export: export,
		logger: logger,
	}
}

// ListUsers 用户列表：GET /api/admin/users（含各自住户档案）
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListAllUsers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// UpdateUserRole 修改角色：PUT /api/admin/users/{userId}/role {"role": "admin"|"user"}
func (h *AdminHandler) UpdateUserRole(w http.ResponseWriter, r *http.Request, targetUserID string) {
	var reqBody struct {
		Role string `json:"role"`
	}
	if err := readBodyJSON(r, 1<<20, &reqBody); err != nil {
		writeError(w, errs.NewValidation("body", "invalid JSON"))
		return
	}

	updated, err := h.users.UpdateUserRole(r.Context(), targetUserID, reqBody.Role)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteUser 删除用户：DELETE /api/admin/users/{userId}
// 自删返回 InvalidOperation（400），与角色无关
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request, targetUserID string) {
	actor, _ := ActorFrom(r)

	if err := h.users.DeleteUser(r.Context(), targetUserID, actor.ID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportResidentsCSV 导出 CSV：GET /api/export/residents
// 全量导出（不过滤可见性）
func (h *AdminHandler) ExportResidentsCSV(w http.ResponseWriter, r *http.Request) {
	csvData, err := h.export.ExportResidentsCSV(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="village_residents.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(csvData))
}

// ExportResidentsExcel 导出 Excel：GET /api/export/residents.xlsx
func (h *AdminHandler) ExportResidentsExcel(w http.ResponseWriter, r *http.Request) {
	data, err := h.export.ExportResidentsExcel(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="village_residents.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
