package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	return rdb, mr
}

func TestRateLimit_BlocksAfterLimitAndResets(t *testing.T) {
	rdb, mr := setupRedis(t)
	app := fiber.New()
	app.Post("/login", RateLimit(rdb, "auth", 2, time.Minute), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest("POST", "/login", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}
	resp, err := app.Test(httptest.NewRequest("POST", "/login", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))

	mr.FastForward(time.Minute + time.Second)
	resp, err = app.Test(httptest.NewRequest("POST", "/login", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRateLimit_RestoresMissingExpiry(t *testing.T) {
	rdb, mr := setupRedis(t)
	app := fiber.New()
	app.Post("/login", RateLimit(rdb, "auth", 5, time.Minute), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	_, err := app.Test(httptest.NewRequest("POST", "/login", nil))
	require.NoError(t, err)
	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.Equal(t, time.Minute, mr.TTL(keys[0]))

	// counter left behind without a TTL
	require.NoError(t, mr.Set(keys[0], "3"))
	assert.Equal(t, time.Duration(0), mr.TTL(keys[0]))

	resp, err := app.Test(httptest.NewRequest("POST", "/login", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, time.Minute, mr.TTL(keys[0]))
	v, _ := mr.Get(keys[0])
	assert.Equal(t, "4", v)
}

func TestRateLimit_DisabledWithoutRedis(t *testing.T) {
	app := fiber.New()
	app.Post("/login", RateLimit(nil, "auth", 1, time.Minute), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest("POST", "/login", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}
}

func TestHealthMarker_CountsRequestsAndErrors(t *testing.T) {
	rdb, mr := setupRedis(t)
	app := fiber.New()
	app.Use(Tracing(), HealthMarker(rdb))
	app.Get("/api/ok", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Get("/api/boom", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusInternalServerError) })
	app.Get("/health/json", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	for _, p := range []string{"/api/ok", "/api/boom", "/health/json"} {
		_, err := app.Test(httptest.NewRequest("GET", p, nil))
		require.NoError(t, err)
	}
	total, _ := mr.Get(KeyReqTotal)
	errs, _ := mr.Get(KeyReqErrors)
	assert.Equal(t, "2", total)
	assert.Equal(t, "1", errs)
	entries, err := mr.List(KeyErrorLog)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestCORS(t *testing.T) {
	app := fiber.New()
	app.Use(CORS(CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}}))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest("OPTIONS", "/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Origin", "http://evil.example")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
