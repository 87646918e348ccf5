package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"nhadat-backend/internal/application/accounts"
	authsvc "nhadat-backend/internal/application/auth"
	"nhadat-backend/internal/application/stats"
	"nhadat-backend/internal/domain"
	"nhadat-backend/internal/middleware"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type adminTest struct {
	app        *fiber.App
	accounts   *accounts.Service
	adminID    uuid.UUID
	adminToken string
}

func setupAdminTest(t *testing.T) *adminTest {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&domain.Account{}, &domain.Listing{}, &domain.Image{}))

	tokens := authsvc.NewTokenIssuer("test-secret", time.Hour)
	accs := &accounts.Service{DB: db, Tokens: tokens, BcryptCost: bcrypt.MinCost}
	h := &Handlers{Accounts: accs, Statistics: &stats.Service{DB: db}}

	app := fiber.New()
	g := app.Group("/api/admin",
		middleware.Authenticate(&authsvc.Resolver{Tokens: tokens, Accounts: accs}),
		middleware.RequireRole(domain.RoleAdmin))
	g.Get("/users", h.Users)
	g.Put("/users/:id/toggle-status", h.ToggleStatus)
	g.Put("/users/:id/role", h.SetRole)
	g.Get("/thong-ke", h.Stats)

	admin, _, err := accs.EnsureAdmin(context.Background(), "admin", "vuong123", "admin@example.com")
	require.NoError(t, err)
	token, err := accs.IssueToken(admin)
	require.NoError(t, err)
	return &adminTest{app: app, accounts: accs, adminID: admin.ID, adminToken: token}
}

func (at *adminTest) register(t *testing.T, name string) *domain.Account {
	acc, err := at.accounts.Register(context.Background(), accounts.RegisterInput{
		Username: name, Password: "matkhau1", Email: name + "@example.com",
	})
	require.NoError(t, err)
	return acc
}

func (at *adminTest) do(t *testing.T, method, path, token string, payload interface{}) (int, map[string]interface{}) {
	var body io.Reader
	if payload != nil {
		b, _ := json.Marshal(payload)
		body = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := at.app.Test(req)
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return resp.StatusCode, out
}

func TestAdminRoutes_RequireAdmin(t *testing.T) {
	at := setupAdminTest(t)
	acc := at.register(t, "user1")
	token, err := at.accounts.IssueToken(acc)
	require.NoError(t, err)

	status, _ := at.do(t, http.MethodGet, "/api/admin/users", token, nil)
	assert.Equal(t, fiber.StatusForbidden, status)
}

func TestUsers_ListsWithoutPasswords(t *testing.T) {
	at := setupAdminTest(t)
	at.register(t, "user1")
	at.register(t, "user2")

	status, out := at.do(t, http.MethodGet, "/api/admin/users?vai_tro=nguoi_dung&limit=1", at.adminToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	data := out["data"].(map[string]interface{})
	users := data["users"].([]interface{})
	require.Len(t, users, 1)
	_, hasPassword := users[0].(map[string]interface{})["mat_khau"]
	assert.False(t, hasPassword)
	pg := data["pagination"].(map[string]interface{})
	assert.Equal(t, float64(2), pg["total_items"])
	assert.Equal(t, float64(2), pg["total_pages"])

	status, _ = at.do(t, http.MethodGet, "/api/admin/users?vai_tro=boss", at.adminToken, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestToggleStatus(t *testing.T) {
	at := setupAdminTest(t)
	acc := at.register(t, "user1")
	path := "/api/admin/users/" + acc.ID.String() + "/toggle-status"

	status, out := at.do(t, http.MethodPut, path, at.adminToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Khóa tài khoản thành công", out["message"])
	user := out["data"].(map[string]interface{})["user"].(map[string]interface{})
	assert.Equal(t, "lock", user["trang_thai"])

	_, out = at.do(t, http.MethodPut, path, at.adminToken, nil)
	assert.Equal(t, "Mở khóa tài khoản thành công", out["message"])

	status, out = at.do(t, http.MethodPut, "/api/admin/users/"+at.adminID.String()+"/toggle-status", at.adminToken, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Không thể khóa tài khoản admin", out["message"])

	status, _ = at.do(t, http.MethodPut, "/api/admin/users/"+uuid.NewString()+"/toggle-status", at.adminToken, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestLockedAccountTokenStopsWorking(t *testing.T) {
	at := setupAdminTest(t)
	acc := at.register(t, "staff1")
	_, err := at.accounts.SetRole(context.Background(), at.adminID, acc.ID, "quan_tri")
	require.NoError(t, err)
	token, err := at.accounts.IssueToken(acc)
	require.NoError(t, err)

	status, _ := at.do(t, http.MethodGet, "/api/admin/thong-ke", token, nil)
	require.Equal(t, fiber.StatusOK, status)

	_, err = at.accounts.SetRole(context.Background(), at.adminID, acc.ID, "nguoi_dung")
	require.NoError(t, err)
	_, err = at.accounts.ToggleLock(context.Background(), acc.ID)
	require.NoError(t, err)
	status, out := at.do(t, http.MethodGet, "/api/admin/thong-ke", token, nil)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "ACCOUNT_LOCKED", out["code"])
}

func TestSetRole(t *testing.T) {
	at := setupAdminTest(t)
	acc := at.register(t, "user1")
	path := "/api/admin/users/" + acc.ID.String() + "/role"

	status, out := at.do(t, http.MethodPut, path, at.adminToken, map[string]string{"vai_tro": "nhan_vien"})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Cập nhật vai trò thành công", out["message"])
	user := out["data"].(map[string]interface{})["user"].(map[string]interface{})
	assert.Equal(t, "nhan_vien", user["vai_tro"])

	status, out = at.do(t, http.MethodPut, path, at.adminToken, map[string]string{"vai_tro": "vua"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Vai trò không hợp lệ", out["message"])

	status, _ = at.do(t, http.MethodPut, "/api/admin/users/"+at.adminID.String()+"/role", at.adminToken, map[string]string{"vai_tro": "nguoi_dung"})
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestStats_Totals(t *testing.T) {
	at := setupAdminTest(t)
	at.register(t, "user1")
	acc := at.register(t, "user2")
	_, err := at.accounts.ToggleLock(context.Background(), acc.ID)
	require.NoError(t, err)

	status, out := at.do(t, http.MethodGet, "/api/admin/thong-ke", at.adminToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	totals := out["data"].(map[string]interface{})["tong_quan"].(map[string]interface{})
	assert.Equal(t, float64(3), totals["tong_user"])
	assert.Equal(t, float64(1), totals["user_bi_khoa"])
	assert.Equal(t, float64(0), totals["tong_tin_dang"])
}
