package listings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"nhadat-backend/internal/application/accounts"
	authsvc "nhadat-backend/internal/application/auth"
	"nhadat-backend/internal/application/images"
	listsvc "nhadat-backend/internal/application/listings"
	"nhadat-backend/internal/domain"
	"nhadat-backend/internal/infrastructure/storage"
	"nhadat-backend/internal/middleware"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type listingsTest struct {
	app      *fiber.App
	svc      *listsvc.Service
	accounts *accounts.Service
}

func setupListingsTest(t *testing.T) *listingsTest {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&domain.Account{}, &domain.Listing{}, &domain.Image{}, &domain.ListingEvent{}))

	tokens := authsvc.NewTokenIssuer("test-secret", time.Hour)
	accs := &accounts.Service{DB: db, Tokens: tokens, BcryptCost: bcrypt.MinCost}
	imgs := &images.Service{DB: db, Assets: storage.NewAssets(storage.NewLocalStore(t.TempDir()))}
	svc := &listsvc.Service{DB: db, Images: imgs}
	h := &Handlers{Service: svc, Images: imgs}
	resolver := &authsvc.Resolver{Tokens: tokens, Accounts: accs}

	app := fiber.New()
	g := app.Group("/api/tindang")
	g.Get("/my-posts", middleware.Authenticate(resolver), h.Mine)
	g.Get("/", middleware.OptionalAuth(resolver), h.List)
	g.Get("/:id", middleware.OptionalAuth(resolver), h.Get)
	g.Post("/", middleware.Authenticate(resolver), h.Create)
	g.Put("/:id", middleware.Authenticate(resolver), h.Update)
	g.Delete("/:id", middleware.Authenticate(resolver), h.Delete)
	g.Delete("/:id/images/:imageId", middleware.Authenticate(resolver), h.DeleteImage)
	return &listingsTest{app: app, svc: svc, accounts: accs}
}

func (lt *listingsTest) login(t *testing.T, name string) (uuid.UUID, string) {
	acc, err := lt.accounts.Register(context.Background(), accounts.RegisterInput{
		Username: name, Password: "matkhau1", Email: name + "@example.com", FullName: name,
	})
	require.NoError(t, err)
	token, err := lt.accounts.IssueToken(acc)
	require.NoError(t, err)
	return acc.ID, token
}

func (lt *listingsTest) do(t *testing.T, req *http.Request, token string) (int, map[string]interface{}) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := lt.app.Test(req)
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return resp.StatusCode, out
}

var validForm = map[string]string{
	"tieu_de":   "Bán nhà phố Gò Vấp",
	"loai_hinh": "1",
	"danh_muc":  "ban",
	"mo_ta":     strings.Repeat("Nhà mới xây, hẻm xe hơi, gần chợ. ", 3),
	"gia":       "100",
	"dia_chi":   "12 Quang Trung, Gò Vấp",
}

func multipartRequest(t *testing.T, method, path string, fields map[string]string, files ...string) *http.Request {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, name := range files {
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="images"; filename="%s"`, name))
		hdr.Set("Content-Type", storage.ContentTypeFor(name))
		part, err := w.CreatePart(hdr)
		require.NoError(t, err)
		_, _ = part.Write([]byte("image"))
	}
	require.NoError(t, w.Close())
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func dataOf(out map[string]interface{}) map[string]interface{} {
	return out["data"].(map[string]interface{})
}

func TestCreate_RequiresTokenAndValidates(t *testing.T) {
	lt := setupListingsTest(t)
	status, _ := lt.do(t, multipartRequest(t, "POST", "/api/tindang", validForm), "")
	assert.Equal(t, fiber.StatusUnauthorized, status)

	_, token := lt.login(t, "user1")
	bad := map[string]string{"tieu_de": "ngắn", "gia": "abc"}
	status, out := lt.do(t, multipartRequest(t, "POST", "/api/tindang", bad), token)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", out["code"])
}

func TestCreate_MultipartWithImages(t *testing.T) {
	lt := setupListingsTest(t)
	_, token := lt.login(t, "user1")

	status, out := lt.do(t, multipartRequest(t, "POST", "/api/tindang", validForm, "a.jpg", "b.png"), token)
	require.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, "Tạo tin đăng thành công", out["message"])
	data := dataOf(out)
	assert.Equal(t, "cho_duyet", data["trang_thai"])
	assert.Len(t, data["images"], 2)
	owner := data["nguoi_dung_id"].(map[string]interface{})
	assert.Equal(t, "user1@example.com", owner["email"])
}

func TestPublicVisibilityAndModeration(t *testing.T) {
	lt := setupListingsTest(t)
	_, token := lt.login(t, "user1")
	_, out := lt.do(t, multipartRequest(t, "POST", "/api/tindang", validForm), token)
	id := dataOf(out)["_id"].(string)

	status, _ := lt.do(t, httptest.NewRequest("GET", "/api/tindang/"+id, nil), "")
	assert.Equal(t, fiber.StatusNotFound, status)
	status, _ = lt.do(t, httptest.NewRequest("GET", "/api/tindang/"+id, nil), token)
	assert.Equal(t, fiber.StatusOK, status)

	_, out = lt.do(t, httptest.NewRequest("GET", "/api/tindang?trang_thai=cho_duyet", nil), "")
	assert.Empty(t, dataOf(out)["tinDangs"])

	_, err := lt.svc.Moderate(context.Background(), uuid.MustParse(id), domain.DecisionApprove, "ok", uuid.New())
	require.NoError(t, err)

	status, out = lt.do(t, httptest.NewRequest("GET", "/api/tindang?danh_muc=ban&gia_max=500", nil), "")
	require.Equal(t, fiber.StatusOK, status)
	list := dataOf(out)["tinDangs"].([]interface{})
	require.Len(t, list, 1)
	assert.Equal(t, "da_duyet", list[0].(map[string]interface{})["trang_thai"])
	pg := dataOf(out)["pagination"].(map[string]interface{})
	assert.Equal(t, float64(1), pg["total_items"])
}

func TestUpdate_OwnerOnlyAndResetsReview(t *testing.T) {
	lt := setupListingsTest(t)
	_, owner := lt.login(t, "user1")
	_, other := lt.login(t, "user2")
	_, out := lt.do(t, multipartRequest(t, "POST", "/api/tindang", validForm, "a.jpg"), owner)
	id := dataOf(out)["_id"].(string)
	_, err := lt.svc.Moderate(context.Background(), uuid.MustParse(id), domain.DecisionApprove, "ok", uuid.New())
	require.NoError(t, err)

	status, out := lt.do(t, multipartRequest(t, "PUT", "/api/tindang/"+id, map[string]string{"gia": "250"}), other)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "Bạn không có quyền chỉnh sửa tin đăng này", out["message"])

	status, _ = lt.do(t, multipartRequest(t, "PUT", "/api/tindang/"+id, map[string]string{"imagesToDelete": "not-json"}), owner)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, out = lt.do(t, multipartRequest(t, "PUT", "/api/tindang/"+id, map[string]string{"gia": "250"}, "c.gif"), owner)
	require.Equal(t, fiber.StatusOK, status)
	data := dataOf(out)
	assert.Equal(t, "cho_duyet", data["trang_thai"])
	assert.Equal(t, float64(250), data["gia"])
	assert.Nil(t, data["ghi_chu"])
	assert.Len(t, data["images"], 2)
}

func TestDelete_OwnerOnly(t *testing.T) {
	lt := setupListingsTest(t)
	_, owner := lt.login(t, "user1")
	_, other := lt.login(t, "user2")
	_, out := lt.do(t, multipartRequest(t, "POST", "/api/tindang", validForm), owner)
	id := dataOf(out)["_id"].(string)

	status, out := lt.do(t, httptest.NewRequest("DELETE", "/api/tindang/"+id, nil), other)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "Bạn không có quyền xóa tin đăng này", out["message"])

	status, out = lt.do(t, httptest.NewRequest("DELETE", "/api/tindang/"+id, nil), owner)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Xóa tin đăng thành công", out["message"])

	status, _ = lt.do(t, httptest.NewRequest("GET", "/api/tindang/"+id, nil), owner)
	assert.Equal(t, fiber.StatusNotFound, status)
	status, _ = lt.do(t, httptest.NewRequest("GET", "/api/tindang/not-a-uuid", nil), owner)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestMine_AndDeleteImage(t *testing.T) {
	lt := setupListingsTest(t)
	ownerID, owner := lt.login(t, "user1")
	_, other := lt.login(t, "user2")
	_, out := lt.do(t, multipartRequest(t, "POST", "/api/tindang", validForm, "a.jpg", "b.jpg"), owner)
	id := uuid.MustParse(dataOf(out)["_id"].(string))

	status, out := lt.do(t, httptest.NewRequest("GET", "/api/tindang/my-posts", nil), owner)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, dataOf(out)["tinDangs"], 1)
	_, out = lt.do(t, httptest.NewRequest("GET", "/api/tindang/my-posts", nil), other)
	assert.Empty(t, dataOf(out)["tinDangs"])

	gallery, err := lt.svc.Images.ListFor(context.Background(), domain.ImageKindListing, id)
	require.NoError(t, err)
	path := fmt.Sprintf("/api/tindang/%s/images/%s", id, gallery[0].ID)
	status, _ = lt.do(t, httptest.NewRequest("DELETE", path, nil), other)
	assert.Equal(t, fiber.StatusForbidden, status)
	status, _ = lt.do(t, httptest.NewRequest("DELETE", path, nil), owner)
	assert.Equal(t, fiber.StatusOK, status)

	v, err := lt.svc.Get(context.Background(), id, &authsvc.Principal{AccountID: ownerID, Role: domain.RoleUser})
	require.NoError(t, err)
	assert.Equal(t, []string{gallery[1].Path}, v.Images)
}
