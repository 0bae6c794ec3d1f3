package router

import (
	"net/http"
	"time"

	authsvc "petadopt-backend/internal/application/auth"
	favsvc "petadopt-backend/internal/application/favorites"
	healthsvc "petadopt-backend/internal/application/health"
	listsvc "petadopt-backend/internal/application/listings"
	"petadopt-backend/internal/application/notify"
	evsvc "petadopt-backend/internal/application/petevents"
	"petadopt-backend/internal/application/profiles"
	searchsvc "petadopt-backend/internal/application/search"
	"petadopt-backend/internal/application/sessionhub"
	"petadopt-backend/internal/application/uploads"
	"petadopt-backend/internal/config"
	"petadopt-backend/internal/infrastructure/database"
	authhandler "petadopt-backend/internal/interfaces/handlers/auth"
	favhandler "petadopt-backend/internal/interfaces/handlers/favorites"
	healthhandler "petadopt-backend/internal/interfaces/handlers/health"
	listhandler "petadopt-backend/internal/interfaces/handlers/listings"
	evhandler "petadopt-backend/internal/interfaces/handlers/petevents"
	profilehandler "petadopt-backend/internal/interfaces/handlers/profile"
	searchhandler "petadopt-backend/internal/interfaces/handlers/search"
	uploadhandler "petadopt-backend/internal/interfaces/handlers/uploads"
	"petadopt-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// body limit leaves room for a max-size image plus form fields
const bodyLimit = uploadhandler.MaxImageBytes + 2<<20

// Deps are the collaborators the app is built from. DB and Rdb may be nil:
// without a DB only health routes are served, without Redis there are no
// sessions and recent searches stay in memory.
type Deps struct {
	Config   *config.Config
	DB       *gorm.DB
	Rdb      *redis.Client
	Uploader uploads.Uploader
	Notifier notify.Sender
	Hub      *sessionhub.Hub
	Sessions fiber.Handler // defaults to a SessionStore on Rdb
}

func sessionConfig(cfg *config.Config) middleware.SessionConfig {
	return middleware.SessionConfig{
		Secret:            cfg.SessionSecret,
		RedisURL:          cfg.RedisURL,
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.IsProduction(),
	}
}

// CreateApp opens the database and Redis named in cfg and builds the app on them.
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	sessions, rdb, err := middleware.Session(sessionConfig(cfg))
	if err != nil {
		return nil, nil, nil, err
	}

	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		db, err = database.Open(cfg.DatabaseURL)
		if err != nil {
			rdb.Close()
			return nil, nil, nil, err
		}
	} else {
		log.Warn().Msg("no DATABASE_URL: serving health routes only")
	}

	app := New(Deps{
		Config:   cfg,
		DB:       db,
		Rdb:      rdb,
		Sessions: sessions,
		Uploader: &uploads.CloudinaryClient{
			BaseURL:      cfg.CloudinaryBaseURL,
			CloudName:    cfg.CloudinaryCloudName,
			UploadPreset: cfg.CloudinaryUploadPreset,
			APIKey:       cfg.CloudinaryAPIKey,
			APISecret:    cfg.CloudinaryAPISecret,
		},
		Notifier: notify.New(cfg.BrevoAPIKey, cfg.MailFrom, cfg.SMSSender, cfg.IsProduction()),
		Hub:      sessionhub.New(0),
	})
	return app, db, rdb, nil
}

// New wires services and handlers onto a fresh Fiber app.
func New(d Deps) *fiber.App {
	cfg := d.Config
	if cfg == nil {
		cfg = &config.Config{}
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	hub := d.Hub
	if hub == nil {
		hub = sessionhub.New(0)
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
		BodyLimit:               bodyLimit,
	})

	app.Use(middleware.RequestContext(timeout))
	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.AllowedOriginSuffix,
		DevPassword:   cfg.DevPassword,
	}))
	sessions := d.Sessions
	if sessions == nil && d.Rdb != nil {
		sessions = middleware.SessionStore(d.Rdb, cfg.SessionSecret)
	}
	if sessions != nil {
		app.Use(sessions)
	}
	app.Use(middleware.HealthMarker(d.Rdb))
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())

	collector := &healthsvc.Collector{Rdb: d.Rdb}
	if cfg.CloudinaryCloudName != "" {
		collector.External = map[string]string{"image_host": cfg.CloudinaryBaseURL}
	}
	if d.DB != nil {
		collector.DB = &database.Pinger{DB: d.DB}
	}
	hh := &healthhandler.Handlers{Collector: collector, Rdb: d.Rdb, HealthAdminKey: cfg.HealthAdminKey}
	app.Get("/", hh.Dashboard)
	app.Get("/health/json", hh.JSON)
	app.Get("/health/errors", hh.Errors)
	app.Get("/health/reset", hh.Reset)

	if d.DB == nil {
		return app
	}

	api := app.Group("/api/v1")
	ps := &profiles.Service{DB: d.DB, Uploader: d.Uploader}

	if d.Rdb != nil {
		as := &authsvc.Service{DB: d.DB, Rdb: d.Rdb, Profiles: ps, Notifier: d.Notifier}
		ah := &authhandler.Handlers{
			Service: as,
			Hub:     hub,
			Config:  sessionConfig(cfg),
		}
		ag := api.Group("/auth")
		ag.Post("/sign-up", ah.SignUp)
		ag.Post("/sign-in", ah.SignIn)
		ag.Post("/otp/send", ah.SendOTP)
		ag.Post("/otp/verify", ah.VerifyOTP)
		ag.Get("/me", ah.Me)
		ag.Delete("/sign-out", ah.SignOut)
		ag.Get("/events", middleware.RequireAuth(), ah.Events)
	}

	// Pets
	ls := &listsvc.Service{DB: d.DB}
	lh := &listhandler.Handlers{Service: ls, Submitter: &listsvc.Submitter{Service: ls, Uploader: d.Uploader}}
	pg := api.Group("/pets", middleware.RequireAuth())
	pg.Get("/", lh.Explore)
	pg.Get("/home", lh.Home)
	pg.Get("/feed", lh.Feed)
	pg.Get("/:id", lh.Get)
	pg.Get("/:id/events", (&evhandler.Handlers{Service: &evsvc.Service{DB: d.DB}}).ForPet)
	pg.Post("/", lh.Create)

	// Search
	var tracker searchsvc.Tracker = searchsvc.NewMemoryTracker()
	if d.Rdb != nil {
		tracker = &searchsvc.RedisTracker{Rdb: d.Rdb}
	}
	sh := &searchhandler.Handlers{Service: &searchsvc.Service{Listings: ls, Tracker: tracker}}
	sg := api.Group("/search", middleware.RequireAuth())
	sg.Post("/", sh.Submit)
	sg.Get("/recent", sh.Recent)

	// Favorites
	fh := &favhandler.Handlers{Service: &favsvc.Service{DB: d.DB}}
	fg := api.Group("/favorites", middleware.RequireAuth())
	fg.Get("/", fh.List)
	fg.Get("/:pet_id", fh.Status)
	fg.Post("/:pet_id/toggle", fh.Toggle)

	// Profile
	prh := &profilehandler.Handlers{Service: ps}
	prg := api.Group("/profile", middleware.RequireAuth())
	prg.Get("/", prh.Get)
	prg.Put("/", prh.Update)
	prg.Post("/avatar", prh.Avatar)

	return app
}

// Handler exposes the app as a net/http handler for serverless runtimes.
func Handler(app *fiber.App) http.Handler {
	return adaptor.FiberApp(app)
}
