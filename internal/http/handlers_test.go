package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"village-connect/internal/domain"
	"village-connect/internal/repository"
	"village-connect/internal/service"
	"village-connect/internal/store"
	"village-connect/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeIdentity 测试用身份提供方
type fakeIdentity struct {
	claims *service.IdentityClaims
	err    error
}

func (f *fakeIdentity) Userinfo(_ context.Context, _ string) (*service.IdentityClaims, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.claims, nil
}

var _ service.IdentityProvider = (*fakeIdentity)(nil)

type testEnv struct {
	router    *Router
	users     *repository.MemoryUsersRepo
	residents *repository.MemoryResidentsRepo
	sessions  service.SessionService
	identity  *fakeIdentity
}

// newTestEnv 完整路由 + 内存依赖
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zap.NewNop()

	users := repository.NewMemoryUsersRepo()
	residents := repository.NewMemoryResidentsRepo(users)
	users.BindResidents(residents)

	userSvc := service.NewUserService(users, logger)
	residentSvc := service.NewResidentService(residents, logger)
	analyticsSvc := service.NewAnalyticsService(residents)
	exportSvc := service.NewExportService(residents, logger)
	sessions := service.NewSessionService(store.NewMemoryKV(), time.Hour, logger)
	identity := &fakeIdentity{}

	mw := NewSessionMiddleware(sessions, userSvc, logger)
	router := NewRouter(logger)
	router.RegisterHealthRoutes()
	router.RegisterAuthRoutes(NewAuthHandler(identity, userSvc, sessions, logger), mw)
	router.RegisterResidentRoutes(NewResidentHandler(residentSvc, logger), mw)
	router.RegisterAnalyticsRoutes(NewAnalyticsHandler(analyticsSvc, logger), mw)
	router.RegisterAdminRoutes(NewAdminHandler(userSvc, exportSvc, logger), mw)

	return &testEnv{
		router:    router,
		users:     users,
		residents: residents,
		sessions:  sessions,
		identity:  identity,
	}
}

// loginAs 直接写入用户和会话，返回会话 token
func loginAs(t *testing.T, env *testEnv, userID, role string) string {
	t.Helper()
	ctx := context.Background()

	_, err := env.users.UpsertUser(ctx, domain.UpsertUser{ID: userID})
	require.NoError(t, err)
	if role != domain.RoleUser {
		_, err = env.users.UpdateUserRole(ctx, userID, role)
		require.NoError(t, err)
	}

	session, err := env.sessions.Create(ctx, userID)
	require.NoError(t, err)
	return session.Token
}

func doRequest(env *testEnv, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
	}
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

const createResidentBody = `{
	"fullName": "Ravi Kumar",
	"age": 34,
	"gender": "male",
	"phoneNumber": "9876543210",
	"houseNumber": "H-12",
	"currentLocation": "village",
	"occupation": "farming"
}`

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)

	rec := doRequest(env, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	email := "ravi@example.com"
	env.identity.claims = &service.IdentityClaims{Sub: "u1", Email: &email}

	rec := doRequest(env, http.MethodPost, "/api/auth/login", "", `{"accessToken":"tok"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	// 会话 cookie
	var sessionCookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookieName {
			sessionCookie = c
		}
	}
	require.NotNil(t, sessionCookie)
	assert.True(t, sessionCookie.HttpOnly)
	assert.NotEmpty(t, sessionCookie.Value)

	var user domain.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, domain.RoleUser, user.Role)

	// 同一 cookie 可取当前用户
	rec = doRequest(env, http.MethodGet, "/api/auth/user", sessionCookie.Value, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogin_MissingToken(t *testing.T) {
	env := newTestEnv(t)

	rec := doRequest(env, http.MethodPost, "/api/auth/login", "", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin_IdentityRejects(t *testing.T) {
	env := newTestEnv(t)
	env.identity.err = errs.ErrUnauthenticated

	rec := doRequest(env, http.MethodPost, "/api/auth/login", "", `{"accessToken":"bad"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	token := loginAs(t, env, "u1", domain.RoleUser)

	rec := doRequest(env, http.MethodPost, "/api/auth/logout", token, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// 会话已失效
	rec = doRequest(env, http.MethodGet, "/api/auth/user", token, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestResidents_Unauthenticated(t *testing.T) {
	env := newTestEnv(t)

	rec := doRequest(env, http.MethodGet, "/api/residents", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(env, http.MethodGet, "/api/analytics/stats", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestResidents_CRUD(t *testing.T) {
	env := newTestEnv(t)
	token := loginAs(t, env, "u1", domain.RoleUser)

	// 创建
	rec := doRequest(env, http.MethodPost, "/api/residents", token, createResidentBody)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created domain.Resident
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotZero(t, created.ID)

	// 列表
	rec = doRequest(env, http.MethodGet, "/api/residents", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []domain.ResidentWithUser
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Ravi Kumar", list[0].FullName)

	// 自己的档案
	rec = doRequest(env, http.MethodGet, "/api/residents/me", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"Ravi Kumar"`)

	// 部分更新
	path := fmt.Sprintf("/api/residents/%d", created.ID)
	rec = doRequest(env, http.MethodPut, path, token, `{"age":35}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var updated domain.Resident
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, 35, updated.Age)
	assert.Equal(t, "Ravi Kumar", updated.FullName)

	// 删除
	rec = doRequest(env, http.MethodDelete, path, token, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(env, http.MethodGet, path, token, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResidents_MeWithoutProfile(t *testing.T) {
	env := newTestEnv(t)
	token := loginAs(t, env, "u1", domain.RoleUser)

	// 尚无档案：200 + null
	rec := doRequest(env, http.MethodGet, "/api/residents/me", token, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null", strings.TrimSpace(rec.Body.String()))
}

func TestResidents_InvalidID(t *testing.T) {
	env := newTestEnv(t)
	token := loginAs(t, env, "u1", domain.RoleUser)

	rec := doRequest(env, http.MethodGet, "/api/residents/abc", token, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResidents_DuplicateProfile(t *testing.T) {
	env := newTestEnv(t)
	token := loginAs(t, env, "u1", domain.RoleUser)

	rec := doRequest(env, http.MethodPost, "/api/residents", token, createResidentBody)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(env, http.MethodPost, "/api/residents", token, createResidentBody)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestResidents_UpdateForbidden(t *testing.T) {
	env := newTestEnv(t)
	ownerToken := loginAs(t, env, "u1", domain.RoleUser)
	otherToken := loginAs(t, env, "u2", domain.RoleUser)
	adminToken := loginAs(t, env, "admin-1", domain.RoleAdmin)

	rec := doRequest(env, http.MethodPost, "/api/residents", ownerToken, createResidentBody)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created domain.Resident
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	path := fmt.Sprintf("/api/residents/%d", created.ID)

	rec = doRequest(env, http.MethodPut, path, otherToken, `{"age":40}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(env, http.MethodPut, path, adminToken, `{"age":40}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAnalytics(t *testing.T) {
	env := newTestEnv(t)
	token := loginAs(t, env, "u1", domain.RoleUser)

	rec := doRequest(env, http.MethodPost, "/api/residents", token, createResidentBody)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(env, http.MethodGet, "/api/analytics/stats", token, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var stats domain.TotalStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.InVillage)

	rec = doRequest(env, http.MethodGet, "/api/analytics/location", token, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(env, http.MethodGet, "/api/analytics/occupation", token, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdmin_ForbiddenForRegularUser(t *testing.T) {
	env := newTestEnv(t)
	userToken := loginAs(t, env, "u1", domain.RoleUser)

	for _, path := range []string{
		"/api/admin/users",
		"/api/export/residents",
		"/api/export/residents.xlsx",
	} {
		rec := doRequest(env, http.MethodGet, path, userToken, "")
		assert.Equal(t, http.StatusForbidden, rec.Code, "path %s", path)
	}
}

func TestAdmin_ListUsers(t *testing.T) {
	env := newTestEnv(t)
	loginAs(t, env, "u1", domain.RoleUser)
	adminToken := loginAs(t, env, "admin-1", domain.RoleAdmin)

	rec := doRequest(env, http.MethodGet, "/api/admin/users", adminToken, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var users []domain.UserWithResident
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	assert.Len(t, users, 2)
}

func TestAdmin_UpdateUserRole(t *testing.T) {
	env := newTestEnv(t)
	loginAs(t, env, "u1", domain.RoleUser)
	adminToken := loginAs(t, env, "admin-1", domain.RoleAdmin)

	rec := doRequest(env, http.MethodPut, "/api/admin/users/u1/role", adminToken, `{"role":"admin"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var updated domain.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, domain.RoleAdmin, updated.Role)

	// 非法角色
	rec = doRequest(env, http.MethodPut, "/api/admin/users/u1/role", adminToken, `{"role":"superuser"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdmin_DeleteUser(t *testing.T) {
	env := newTestEnv(t)
	loginAs(t, env, "u1", domain.RoleUser)
	adminToken := loginAs(t, env, "admin-1", domain.RoleAdmin)

	// 自删禁止
	rec := doRequest(env, http.MethodDelete, "/api/admin/users/admin-1", adminToken, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(env, http.MethodDelete, "/api/admin/users/u1", adminToken, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(env, http.MethodDelete, "/api/admin/users/u1", adminToken, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdmin_ExportCSV(t *testing.T) {
	env := newTestEnv(t)
	userToken := loginAs(t, env, "u1", domain.RoleUser)
	adminToken := loginAs(t, env, "admin-1", domain.RoleAdmin)

	rec := doRequest(env, http.MethodPost, "/api/residents", userToken, createResidentBody)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(env, http.MethodGet, "/api/export/residents", adminToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "village_residents.csv")

	lines := strings.Split(rec.Body.String(), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "Name,Age,Gender,Phone"))
	assert.Contains(t, lines[1], `"Ravi Kumar"`)
}

func TestAdmin_ExportExcel(t *testing.T) {
	env := newTestEnv(t)
	adminToken := loginAs(t, env, "admin-1", domain.RoleAdmin)

	rec := doRequest(env, http.MethodGet, "/api/export/residents.xlsx", adminToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Body.Bytes())
}

func TestMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t)
	token := loginAs(t, env, "u1", domain.RoleUser)

	rec := doRequest(env, http.MethodDelete, "/api/auth/login", "", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = doRequest(env, http.MethodPost, "/api/analytics/stats", token, "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestBearerTokenAuth(t *testing.T) {
	env := newTestEnv(t)
	token := loginAs(t, env, "u1", domain.RoleUser)

	// cookie 缺失时回退到 Authorization: Bearer
	req := httptest.NewRequest(http.MethodGet, "/api/auth/user", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
