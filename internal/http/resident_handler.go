package httpapi

import (
	"net/http"
	"strconv"

	"village-connect/internal/service"
	"village-connect/pkg/errs"

	"go.uber.org/zap"
)

// ResidentHandler 住户档案 Handler
type ResidentHandler struct {
	residents service.ResidentService
	logger    *zap.Logger
}

// NewResidentHandler 创建住户 Handler
func NewResidentHandler(residents service.ResidentService, logger *zap.Logger) *ResidentHandler {
	return &ResidentHandler{
		residents: residents,
		logger:    logger,
	}
}

// List 住户列表：GET /api/residents?location=&search=&occupation=&returning=&awayLong=
func (h *ResidentHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := service.ListResidentsRequest{
		Location:   q.Get("location"),
		Search:     q.Get("search"),
		Occupation: q.Get("occupation"),
		Returning:  q.Get("returning") == "true",
		AwayLong:   q.Get("awayLong") == "true",
	}

	residents, err := h.residents.ListResidents(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, residents)
}

// Me 当前用户自己的档案：GET /api/residents/me
// "尚无档案"返回 200 + null（正常状态，不是错误）
func (h *ResidentHandler) Me(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFrom(r)
	resident, err := h.residents.GetResidentByUser(r.Context(), actor.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resident)
}

// Get 按 id 获取：GET /api/residents/{id}
// 不做可见性过滤：编辑入口的权限由前端按鉴权规则控制
func (h *ResidentHandler) Get(w http.ResponseWriter, r *http.Request, id int) {
	resident, err := h.residents.GetResident(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resident)
}

// Create 创建档案：POST /api/residents（owner 取自已认证主体）
func (h *ResidentHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFrom(r)

	var req service.CreateResidentRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeError(w, errs.NewValidation("body", "invalid JSON"))
		return
	}

	created, err := h.residents.CreateResident(r.Context(), actor.ID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Update 部分更新：PUT /api/residents/{id}
func (h *ResidentHandler) Update(w http.ResponseWriter, r *http.Request, id int) {
	actor, _ := ActorFrom(r)

	var req service.UpdateResidentRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeError(w, errs.NewValidation("body", "invalid JSON"))
		return
	}

	updated, err := h.residents.UpdateResident(r.Context(), id, actor, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Delete 删除：DELETE /api/residents/{id}
func (h *ResidentHandler) Delete(w http.ResponseWriter, r *http.Request, id int) {
	actor, _ := ActorFrom(r)

	if err := h.residents.DeleteResident(r.Context(), id, actor); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ServeByID /api/residents/{id} 的方法分发（"me" 由路由层单独处理）
func (h *ResidentHandler) ServeByID(w http.ResponseWriter, r *http.Request, rawID string) {
	id, err := strconv.Atoi(rawID)
	if err != nil {
		writeError(w, errs.NewValidation("id", "must be an integer"))
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.Get(w, r, id)
	case http.MethodPut:
		h.Update(w, r, id)
	case http.MethodDelete:
		h.Delete(w, r, id)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
