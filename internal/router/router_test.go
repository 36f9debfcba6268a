package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"logiflow/internal/access"
	"logiflow/internal/database"
	"logiflow/internal/middleware"
	"logiflow/internal/model"
	"logiflow/internal/service"
	"logiflow/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testServer struct {
	engine *gin.Engine
	svc    *Services
	db     *gorm.DB
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	opts := Options{
		AllowedOrigins: []string{"http://localhost:5173"},
		SessionSecret:  "router-test-secret",
		SessionTTL:     time.Hour,
		DlcWarningDays: 15,
	}
	svc := NewServices(db, nil, opts)
	ctx := context.Background()
	require.NoError(t, svc.Roles.SeedDefaults(ctx))
	_, err = svc.Roles.EnsureAdmin(ctx, "admin", "admin@example.com", "password123")
	require.NoError(t, err)

	engine, err := New(svc, nil, opts)
	require.NoError(t, err)
	return &testServer{engine: engine, svc: svc, db: db}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func (s *testServer) login(t *testing.T, username, password string) *http.Cookie {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/auth/login", map[string]string{"username": username, "password": password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.SessionCookie {
			assert.True(t, c.HttpOnly)
			return c
		}
	}
	t.Fatal("login did not set the session cookie")
	return nil
}

func decode(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var res response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return res
}

func TestNew_RequiresCORSOrigins(t *testing.T) {
	_, err := New(&Services{}, nil, Options{})
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/orders", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/api/auth/login", map[string]string{"username": "admin", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/api/auth/login", map[string]string{"username": "admin"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	cookie := s.login(t, "admin", "password123")

	w = s.do(t, http.MethodGet, "/api/auth/me", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	var me struct {
		Data service.MeResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	assert.Equal(t, model.RoleAdmin, me.Data.Role)
	assert.True(t, me.Data.AllGroups)

	w = s.do(t, http.MethodPost, "/api/auth/logout", nil, cookie)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/auth/me", nil, cookie)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPermissionsGuardRoutes(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	var role model.Role
	require.NoError(t, s.db.Where("name = ?", model.RoleEmployee).First(&role).Error)
	system := access.NewRequester("", model.RoleAdmin, nil, nil)
	_, err := s.svc.Users.CreateUser(ctx, system, service.CreateUserRequest{
		Username: "emp", Email: "emp@example.com", Password: "password123", RoleID: role.ID,
	})
	require.NoError(t, err)

	cookie := s.login(t, "emp", "password123")

	w := s.do(t, http.MethodGet, "/api/users", nil, cookie)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, decode(t, w).Error, service.PermUsersManage)

	w = s.do(t, http.MethodGet, "/api/orders", nil, cookie)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, "/api/groups", map[string]string{"name": "Store 9"}, cookie)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCreateOrderFlow(t *testing.T) {
	s := newTestServer(t)
	cookie := s.login(t, "admin", "password123")

	w := s.do(t, http.MethodPost, "/api/groups", map[string]string{"name": "Store 1"}, cookie)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var group struct {
		Data model.Group `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &group))

	w = s.do(t, http.MethodPost, "/api/suppliers", map[string]interface{}{"name": "Fresh Co"}, cookie)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var supplier struct {
		Data model.Supplier `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &supplier))

	order := map[string]interface{}{
		"supplierId":  supplier.Data.ID,
		"groupId":     group.Data.ID,
		"plannedDate": "2026-03-02",
		"quantity":    3,
		"unit":        "boxes",
	}
	w = s.do(t, http.MethodPost, "/api/orders", order, cookie)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w).Fields, "unit")

	order["unit"] = model.UnitPalettes
	w = s.do(t, http.MethodPost, "/api/orders", order, cookie)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Data service.OrderResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, model.OrderStatusPending, created.Data.Status)

	w = s.do(t, http.MethodPut, "/api/orders/"+itoa(created.Data.ID), map[string]string{"status": "delivered"}, cookie)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodPut, "/api/orders/"+itoa(created.Data.ID), map[string]string{"status": "pending"}, cookie)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodGet, "/api/orders/abc", nil, cookie)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/orders/9999", nil, cookie)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodDelete, "/api/groups/"+itoa(group.Data.ID), nil, cookie)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func itoa(id uint) string { return strconv.FormatUint(uint64(id), 10) }
