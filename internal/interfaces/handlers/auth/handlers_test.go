package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nhadat-backend/internal/application/accounts"
	authsvc "nhadat-backend/internal/application/auth"
	"nhadat-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func setupAuthHandlers(t *testing.T) (*fiber.App, *accounts.Service) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&domain.Account{}, &domain.Image{}))
	svc := &accounts.Service{DB: db, Tokens: authsvc.NewTokenIssuer("test-secret", time.Hour), BcryptCost: bcrypt.MinCost}
	h := &Handlers{Accounts: svc}
	app := fiber.New()
	app.Post("/dang-ky", h.Register)
	app.Post("/dang-nhap", h.Login)
	return app, svc
}

func postJSON(t *testing.T, app *fiber.App, path string, payload interface{}) (int, map[string]interface{}) {
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest("POST", path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out))
	return resp.StatusCode, out
}

var newUser = map[string]string{
	"ten_dang_nhap": "nguyenvana",
	"mat_khau":      "matkhau1",
	"email":         "a@example.com",
	"ho_ten":        "Nguyễn Văn A",
}

func TestRegister_CreatesAccountAndToken(t *testing.T) {
	app, svc := setupAuthHandlers(t)
	status, out := postJSON(t, app, "/dang-ky", newUser)
	assert.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, true, out["success"])
	assert.Equal(t, "Đăng ký thành công", out["message"])
	data := out["data"].(map[string]interface{})
	user := data["user"].(map[string]interface{})
	assert.Equal(t, "nguyenvana", user["ten_dang_nhap"])
	assert.Equal(t, "nguoi_dung", user["vai_tro"])
	assert.NotContains(t, user, "mat_khau")

	id, err := svc.Tokens.Parse(data["token"].(string))
	require.NoError(t, err)
	assert.Equal(t, user["id"], id.String())
}

func TestRegister_LogsOnce(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	app, _ := setupAuthHandlers(t)
	status, _ := postJSON(t, app, "/dang-ky", newUser)
	require.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, 1, strings.Count(buf.String(), "account registered"))
	assert.NotContains(t, buf.String(), "matkhau1")
}

func TestRegister_DuplicateAndValidation(t *testing.T) {
	app, _ := setupAuthHandlers(t)
	status, _ := postJSON(t, app, "/dang-ky", newUser)
	require.Equal(t, fiber.StatusCreated, status)

	status, out := postJSON(t, app, "/dang-ky", newUser)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "DUPLICATE_IDENTITY", out["code"])

	status, out = postJSON(t, app, "/dang-ky", map[string]string{"ten_dang_nhap": "x", "mat_khau": "1", "email": "bad"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", out["code"])
	assert.NotEmpty(t, out["errors"])
}

func TestLogin(t *testing.T) {
	app, _ := setupAuthHandlers(t)
	postJSON(t, app, "/dang-ky", newUser)

	status, out := postJSON(t, app, "/dang-nhap", map[string]string{"ten_dang_nhap": "nguyenvana", "mat_khau": "matkhau1"})
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Đăng nhập thành công", out["message"])
	assert.NotEmpty(t, out["data"].(map[string]interface{})["token"])

	status, _ = postJSON(t, app, "/dang-nhap", map[string]string{"ten_dang_nhap": "nguyenvana", "mat_khau": "sai"})
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = postJSON(t, app, "/dang-nhap", map[string]string{"ten_dang_nhap": "nguyenvana"})
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestLogin_LockedAccount(t *testing.T) {
	app, svc := setupAuthHandlers(t)
	postJSON(t, app, "/dang-ky", newUser)
	sess, err := svc.Authenticate(context.Background(), "nguyenvana", "matkhau1")
	require.NoError(t, err)
	_, err = svc.ToggleLock(context.Background(), sess.Account.ID)
	require.NoError(t, err)

	status, body := postJSON(t, app, "/dang-nhap", map[string]string{"ten_dang_nhap": "nguyenvana", "mat_khau": "matkhau1"})
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "ACCOUNT_LOCKED", body["code"])
}
