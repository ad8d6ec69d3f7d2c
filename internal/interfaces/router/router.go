package router

import (
	"errors"
	"net/http"
	"time"

	adminsvc "serviceloop-backend/internal/application/admin"
	"serviceloop-backend/internal/application/auditlog"
	authsvc "serviceloop-backend/internal/application/auth"
	chatsvc "serviceloop-backend/internal/application/chat"
	"serviceloop-backend/internal/application/emails"
	eventsvc "serviceloop-backend/internal/application/events"
	forumsvc "serviceloop-backend/internal/application/forum"
	npsvc "serviceloop-backend/internal/application/nonprofits"
	orgadminsvc "serviceloop-backend/internal/application/orgadmin"
	reqsvc "serviceloop-backend/internal/application/orgrequests"
	"serviceloop-backend/internal/application/policies/roles"
	profilesvc "serviceloop-backend/internal/application/profiles"
	uploadsvc "serviceloop-backend/internal/application/uploads"
	"serviceloop-backend/internal/config"
	"serviceloop-backend/internal/infrastructure/database"
	adminhandler "serviceloop-backend/internal/interfaces/handlers/admin"
	authhandler "serviceloop-backend/internal/interfaces/handlers/auth"
	chathandler "serviceloop-backend/internal/interfaces/handlers/chat"
	eventhandler "serviceloop-backend/internal/interfaces/handlers/events"
	forumhandler "serviceloop-backend/internal/interfaces/handlers/forum"
	healthhandler "serviceloop-backend/internal/interfaces/handlers/health"
	nphandler "serviceloop-backend/internal/interfaces/handlers/nonprofits"
	orgadminhandler "serviceloop-backend/internal/interfaces/handlers/orgadmin"
	reqhandler "serviceloop-backend/internal/interfaces/handlers/orgrequests"
	profilehandler "serviceloop-backend/internal/interfaces/handlers/profiles"
	uploadhandler "serviceloop-backend/internal/interfaces/handlers/uploads"
	"serviceloop-backend/internal/middleware"

	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type gormDBPinger struct {
	db *gorm.DB
}

func (g *gormDBPinger) Ping() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// Deps are the already-connected stores plus the optional outbound clients.
// A nil Mailer logs notifications, a nil LLM makes the chat route report it is not
// configured and a nil Storage disables image uploads.
type Deps struct {
	Config  *config.Config
	DB      *gorm.DB
	Rdb     *redis.Client
	Mailer  emails.Sender
	LLM     chatsvc.Completer
	Storage uploadsvc.Storage
}

// CreateApp connects Postgres and Redis from cfg, migrates when enabled and builds the app.
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	if cfg.DatabaseURL == "" {
		return nil, nil, nil, errors.New("DATABASE_URL is not set")
	}
	if cfg.RedisURL == "" {
		return nil, nil, nil, errors.New("REDIS_URL is not set")
	}
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, err
	}
	if cfg.AutoMigrate {
		if err := database.AutoMigrate(db); err != nil {
			return nil, nil, nil, err
		}
	}
	rdb, err := middleware.NewRedisClient(cfg.RedisURL)
	if err != nil {
		return nil, nil, nil, err
	}

	deps := Deps{Config: cfg, DB: db, Rdb: rdb, Mailer: emails.LogSender{}}
	if cfg.SendGridAPIKey != "" {
		deps.Mailer = emails.NewSendGridClient(cfg.SendGridAPIKey, cfg.MailFrom)
	}
	if cfg.GeminiAPIKey != "" {
		deps.LLM = chatsvc.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiAPIURL, cfg.ChatTimeout)
	} else {
		log.Warn().Msg("GEMINI_API_KEY not set, chat will answer 500")
	}
	if cfg.SupabaseURL != "" && cfg.SupabaseSecretKey != "" {
		deps.Storage = uploadsvc.NewSupabaseStorage(cfg.SupabaseURL, cfg.SupabaseSecretKey)
	}
	return Build(deps), db, rdb, nil
}

// Build wires services, handlers and routes onto a new fiber app.
func Build(d Deps) *fiber.App {
	cfg := d.Config
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})
	app.Use(sentryfiber.New(sentryfiber.Options{Repanic: true}))
	app.Use(recover.New())

	ready := database.CheckReadiness(d.DB)
	resolver := roles.NewResolver(d.DB, cfg.SuperAdminEmails)
	requireAuth := middleware.RequireAuth()

	// Chat sits ahead of CORS and the session: it has its own permissive CORS.
	chat := &chathandler.Handlers{Service: &chatsvc.Service{DB: d.DB, LLM: d.LLM}}
	app.Options("/api/v1/chat", middleware.ChatCORS())
	app.Post("/api/v1/chat",
		middleware.ChatCORS(),
		limiter.New(limiter.Config{
			Max:        chatRateLimit(cfg),
			Expiration: time.Minute,
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Too many requests"})
			},
		}),
		middleware.BearerIdentity(cfg.SupabaseJWTSecret),
		chat.Reply,
	)

	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))
	app.Use(middleware.BearerIdentity(cfg.SupabaseJWTSecret))
	app.Use(middleware.Session(d.Rdb))
	app.Use(middleware.HealthMarker(d.Rdb))
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())

	hh := &healthhandler.Handlers{
		Rdb:            d.Rdb,
		DB:             &gormDBPinger{db: d.DB},
		Readiness:      ready,
		HealthAdminKey: cfg.HealthAdminKey,
	}
	app.Get("/reset", hh.Reset)
	app.Get("/health/json", hh.JSON)
	app.Get("/health/errors", hh.Errors)

	// Services
	forum := &forumsvc.Service{DB: d.DB, Roles: resolver, Readiness: ready}
	logs := &auditlog.Service{DB: d.DB, Readiness: ready}

	ah := &authhandler.Handlers{
		Service: &authsvc.Service{DB: d.DB, Rdb: d.Rdb, Mailer: d.Mailer, AppBaseURL: cfg.AppBaseURL},
		Config: middleware.SessionConfig{
			RedisURL:          cfg.RedisURL,
			AllowCrossSiteDev: cfg.AllowCrossSiteDev,
			IsProduction:      cfg.Env == "production",
		},
	}
	ag := app.Group("/api/v1/auth")
	ag.Post("/signup", ah.SignUp)
	ag.Post("/login", ah.Login)
	ag.Get("/me", ah.Me)
	ag.Delete("/logout", ah.Logout)
	ag.Post("/password/change", requireAuth, ah.ChangePassword)
	ag.Post("/password/reset-request", ah.RequestReset)
	ag.Post("/password/reset", ah.Reset)

	nh := &nphandler.Handlers{Service: &npsvc.Service{DB: d.DB, Roles: resolver, Readiness: ready, Forum: forum}}
	ng := app.Group("/api/v1/nonprofits")
	ng.Get("/", nh.List)
	ng.Get("/mine", requireAuth, nh.Mine)
	ng.Get("/:id", nh.Get)
	ng.Get("/:id/membership", requireAuth, nh.Membership)
	ng.Post("/:id/members", requireAuth, nh.Join)
	ng.Delete("/:id/members", requireAuth, nh.Leave)

	eh := &eventhandler.Handlers{Service: &eventsvc.Service{DB: d.DB, Readiness: ready}}
	eg := app.Group("/api/v1/events")
	eg.Get("/", eh.List)
	eg.Get("/:id", eh.Get)
	eg.Post("/:id/signups", requireAuth, eh.Signup)
	eg.Delete("/:id/signups", requireAuth, eh.Cancel)

	fh := &forumhandler.Handlers{Service: forum}
	fg := app.Group("/api/v1/forum")
	fg.Get("/posts", fh.ListPosts)
	fg.Post("/posts", requireAuth, fh.CreatePost)
	fg.Get("/posts/:id", fh.GetPost)
	fg.Get("/posts/:id/comments", fh.ListComments)
	fg.Post("/posts/:id/comments", requireAuth, fh.AddComment)
	fg.Get("/trending", fh.Trending)
	fg.Get("/top-contributors", fh.TopContributors)

	rh := &reqhandler.Handlers{Service: &reqsvc.Service{DB: d.DB, Roles: resolver, Readiness: ready, Notifier: d.Mailer}}
	rg := app.Group("/api/v1/org-requests", requireAuth)
	rg.Post("/", rh.Create)
	rg.Get("/mine", rh.Mine)
	rg.Get("/pending", rh.Pending)
	rg.Post("/:id/approve", rh.Approve)
	rg.Post("/:id/reject", rh.Reject)

	oh := &orgadminhandler.Handlers{Service: &orgadminsvc.Service{DB: d.DB, Roles: resolver, Readiness: ready}, Forum: forum}
	og := app.Group("/api/v1/orgs")
	og.Get("/mine-admin", requireAuth, oh.MineAdmin)
	og.Patch("/:id", requireAuth, oh.Update)
	og.Get("/:id/admins", oh.Admins)
	og.Post("/:id/admins", requireAuth, oh.AddAdmin)
	og.Delete("/:id/admins/:userId", requireAuth, oh.RemoveAdmin)
	og.Get("/:id/members", requireAuth, oh.Members)
	og.Delete("/:id/members/:userId", requireAuth, oh.RemoveMember)
	og.Get("/:id/stats", oh.Stats)
	og.Get("/:id/events", oh.Events)
	og.Post("/:id/events", requireAuth, oh.CreateEvent)
	og.Delete("/:id/events/:eventId", requireAuth, oh.DeleteEvent)
	og.Get("/:id/posts", oh.Posts)
	og.Delete("/:id/posts/:postId", requireAuth, oh.DeletePost)

	adh := &adminhandler.Handlers{Service: &adminsvc.Service{DB: d.DB, Roles: resolver, Readiness: ready, Logs: logs}}
	adg := app.Group("/api/v1/admin", requireAuth, middleware.RequireSuperAdmin(resolver))
	adg.Get("/metrics", adh.Metrics)
	adg.Get("/users", adh.Users)
	adg.Get("/logs", adh.Logs)
	adg.Get("/orgs", adh.Orgs)
	adg.Delete("/orgs/:id", adh.DeleteOrg)
	adg.Delete("/orgs/:id/members/:userId", adh.RemoveMember)
	adg.Post("/orgs/:id/admins/:userId", adh.Promote)
	adg.Delete("/orgs/:id/admins/:userId", adh.Demote)

	ph := &profilehandler.Handlers{Service: &profilesvc.Service{DB: d.DB}}
	app.Get("/api/v1/me/dashboard", requireAuth, ph.Dashboard)

	uh := &uploadhandler.Handlers{Service: &uploadsvc.Service{Storage: d.Storage, BaseURL: cfg.SupabaseURL}}
	app.Post("/api/v1/uploads/image", requireAuth, uh.Image)

	return app
}

func chatRateLimit(cfg *config.Config) int {
	if cfg.ChatRateLimit <= 0 {
		return 20
	}
	return cfg.ChatRateLimit
}

// Handler exposes the app as a net/http handler for the serverless entry point.
func Handler(app *fiber.App) http.Handler {
	return adaptor.FiberApp(app)
}
