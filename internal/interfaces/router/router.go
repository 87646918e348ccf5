package router

import (
	"context"
	"net/http"
	"time"

	"nhadat-backend/internal/application/accounts"
	authsvc "nhadat-backend/internal/application/auth"
	healthsvc "nhadat-backend/internal/application/health"
	"nhadat-backend/internal/application/images"
	listsvc "nhadat-backend/internal/application/listings"
	"nhadat-backend/internal/application/stats"
	"nhadat-backend/internal/config"
	"nhadat-backend/internal/constants"
	"nhadat-backend/internal/domain"
	"nhadat-backend/internal/infrastructure/database"
	"nhadat-backend/internal/infrastructure/storage"
	adminhandler "nhadat-backend/internal/interfaces/handlers/admin"
	authhandler "nhadat-backend/internal/interfaces/handlers/auth"
	healthhandler "nhadat-backend/internal/interfaces/handlers/health"
	listhandler "nhadat-backend/internal/interfaces/handlers/listings"
	staffhandler "nhadat-backend/internal/interfaces/handlers/staff"
	uploadhandler "nhadat-backend/internal/interfaces/handlers/uploads"
	userhandler "nhadat-backend/internal/interfaces/handlers/user"
	"nhadat-backend/internal/middleware"
	"nhadat-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Multipart listing forms carry up to MaxListingImages files of MaxImageSize each.
const bodyLimit = storage.MaxListingImages*storage.MaxImageSize + 1<<20

// CreateApp opens every dependency named by cfg and returns the wired app.
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	db, err := OpenDatabase(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	rdb, err := OpenRedis(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	backend, closeStorage, err := OpenStorage(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	app := New(cfg, db, rdb, storage.NewAssets(backend))
	app.Hooks().OnShutdown(func() error {
		closeStorage()
		return nil
	})
	return app, db, rdb, nil
}

// New registers middleware and routes over already opened dependencies. rdb may be nil.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, assets *storage.Assets) *fiber.App {
	response.ExposeDetails = !cfg.IsProduction()

	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
		BodyLimit:               bodyLimit,
	})

	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())
	app.Use(middleware.Metrics())
	app.Use(middleware.CORS(middleware.CORSConfig{AllowedOrigins: cfg.FrontendOrigins}))
	app.Use(middleware.HealthMarker(rdb))

	tokens := authsvc.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	accs := &accounts.Service{DB: db, Tokens: tokens}
	imgs := &images.Service{DB: db, Assets: assets}
	listings := &listsvc.Service{DB: db, Images: imgs}
	st := &stats.Service{DB: db}
	resolver := &authsvc.Resolver{Tokens: tokens, Accounts: accs}
	authRequired := middleware.Authenticate(resolver)

	// Operations
	hh := &healthhandler.Handlers{
		Checker: &healthsvc.Checker{
			Redis: rdb,
			DB:    healthsvc.PingFunc(func(ctx context.Context) error { return database.PingContext(ctx, db) }),
			Storage: healthsvc.PingFunc(func(ctx context.Context) error {
				return assets.Backend().EnsureBucket(ctx)
			}),
		},
		HealthAdminKey: cfg.HealthAdminKey,
	}
	app.Get("/health/json", hh.JSON)
	app.Get("/health/reset", hh.Reset)
	app.Get("/health/errors", hh.Errors)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	uh := &uploadhandler.Handlers{Assets: assets, Images: imgs}
	app.Get("/assets/*", uh.Asset)
	app.Delete("/api/images/:id", authRequired, uh.DeleteImage)

	// Accounts
	ah := &authhandler.Handlers{Accounts: accs}
	limit := middleware.RateLimit(rdb, "auth", cfg.AuthRateLimit, time.Minute)
	users := app.Group("/api/users")
	users.Post("/dang-ky", limit, ah.Register)
	users.Post("/dang-nhap", limit, ah.Login)

	ph := &userhandler.Handlers{Accounts: accs, Images: imgs}
	users.Get("/profile", authRequired, ph.Profile)
	users.Put("/profile", authRequired, ph.UpdateProfile)
	users.Post("/upload-avatar", authRequired, ph.UploadAvatar)

	// Listings; the literal paths are registered before /:id
	lh := &listhandler.Handlers{Service: listings, Images: imgs}
	lg := app.Group("/api/tindang")
	mine := []fiber.Handler{authRequired, middleware.AuthorizePermission(constants.ViewOwnListings), lh.Mine}
	lg.Get("/my-posts", mine...)
	lg.Get("/cua-toi", mine...)
	lg.Get("/", middleware.OptionalAuth(resolver), lh.List)
	lg.Get("/:id", middleware.OptionalAuth(resolver), lh.Get)
	lg.Post("/", authRequired, middleware.AuthorizePermission(constants.CreateListing), lh.Create)
	lg.Put("/:id", authRequired, middleware.AuthorizePermission(constants.EditListing), lh.Update)
	lg.Delete("/:id", authRequired, middleware.AuthorizePermission(constants.DeleteListing), lh.Delete)
	lg.Delete("/:id/images/:imageId", authRequired, middleware.AuthorizePermission(constants.EditListing), lh.DeleteImage)

	// Moderation
	sh := &staffhandler.Handlers{Listings: listings, Statistics: st}
	sg := app.Group("/api/staff", authRequired, middleware.RequireRole(domain.RoleStaff))
	sg.Get("/tin-dang", sh.List)
	sg.Put("/tin-dang/:id/duyet", middleware.AuthorizePermission(constants.ModerateListings), sh.Moderate)
	sg.Get("/tin-dang/:id/lich-su", middleware.AuthorizePermission(constants.ViewListingAudit), sh.Events)
	sg.Get("/thong-ke", middleware.AuthorizePermission(constants.ViewStaffStats), sh.Stats)

	// Administration
	adh := &adminhandler.Handlers{Accounts: accs, Statistics: st}
	adg := app.Group("/api/admin", authRequired, middleware.RequireRole(domain.RoleAdmin))
	adg.Get("/users", middleware.AuthorizePermission(constants.ManageAccounts), adh.Users)
	adg.Put("/users/:id/toggle-status", middleware.AuthorizePermission(constants.ManageAccounts), adh.ToggleStatus)
	adg.Put("/users/:id/role", middleware.AuthorizePermission(constants.ManageAccounts), adh.SetRole)
	adg.Get("/thong-ke", middleware.AuthorizePermission(constants.ViewAdminStats), adh.Stats)

	return app
}

// Handler exposes the app as a net/http handler.
func Handler(app *fiber.App) http.Handler {
	return adaptor.FiberApp(app)
}
