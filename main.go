package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"artline-cms/config"
	"artline-cms/database"
	adminapi "artline-cms/internal/api/admin"
	authapi "artline-cms/internal/api/auth"
	contactapi "artline-cms/internal/api/contact"
	contentapi "artline-cms/internal/api/content"
	mediaapi "artline-cms/internal/api/media"
	revisionsapi "artline-cms/internal/api/revisions"
	routes "artline-cms/internal/app/http"
	"artline-cms/internal/app/http/middleware"
	"artline-cms/internal/domain/content"
	"artline-cms/internal/infra/cache"
	"artline-cms/internal/infra/notify"
	"artline-cms/internal/infra/storage"
	"artline-cms/internal/infra/translate"
	"artline-cms/internal/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.LoadEnv()
	if err != nil {
		logger.L().Fatal().Err(err).Msg("invalid configuration")
	}
	logger.Init(logger.Config{Level: cfg.LogLevel, Production: cfg.IsProduction()})
	log := logger.L()
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.InitDB(cfg.DBURL, logger.Component("database"))
	if err != nil {
		log.Fatal().Err(err).Msg("database init failed")
	}
	if err := database.EnsureAdmin(ctx, db, database.AdminSeed{
		Email:    cfg.Admin.Email,
		Password: cfg.Admin.Password,
		Name:     cfg.Admin.Name,
	}, logger.Component("database")); err != nil {
		log.Fatal().Err(err).Msg("bootstrap admin failed")
	}

	redisClient, err := cache.Connect(ctx, cfg.Redis.URL)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, content cache disabled")
		redisClient = nil
	}
	contentCache := cache.New(redisClient, cache.DefaultTTL)
	defer contentCache.Close()

	var translator content.Translator = translate.Noop{}
	if cfg.Translate.APIKey != "" {
		translator = translate.NewClient(translate.Config{
			BaseURL: cfg.Translate.BaseURL,
			APIKey:  cfg.Translate.APIKey,
			Model:   cfg.Translate.Model,
			Timeout: cfg.Translate.Timeout,
		})
	} else {
		log.Warn().Msg("TRANSLATE_API_KEY not set, auto-translate will copy source text")
	}

	sourceLang, err := content.ParseLanguage(cfg.Content.SourceLanguage)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid CONTENT_SOURCE_LANGUAGE")
	}
	svc := content.NewService(db, translator, contentCache, content.Options{
		SourceLanguage:   sourceLang,
		MaxRevisions:     cfg.Content.MaxRevisions,
		TranslateTimeout: cfg.Translate.Timeout,
	}, *log)

	mediaStore, uploadDir := newStorage(ctx, cfg)

	var sender notify.Sender = notify.LogSender{Log: logger.Component("notify")}
	if cfg.SES.From != "" {
		sesSender, err := notify.NewSES(ctx, cfg.SES.Region, cfg.SES.From)
		if err != nil {
			log.Fatal().Err(err).Msg("ses init failed")
		}
		sender = sesSender
	}
	dispatcher := notify.NewDispatcher(sender, cfg.SES.QueueSize, *log)

	var google *authapi.Google
	if cfg.Google.Enabled() {
		google = authapi.NewGoogle(authapi.GoogleConfig{
			ClientID:         cfg.Google.ClientID,
			ClientSecret:     cfg.Google.ClientSecret,
			RedirectURL:      cfg.Google.RedirectURL,
			FrontendRedirect: cfg.Google.FrontendRedirect,
			SecureCookie:     cfg.IsProduction(),
		})
	}

	r := gin.New()
	r.Use(middleware.RequestLogger(), middleware.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Split(cfg.CORSOrigin, ","),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, routes.Deps{
		JWTSecret: cfg.JWTSecret,
		UploadDir: uploadDir,
		UploadURL: cfg.Media.PublicURL,
		Handlers: routes.Handlers{
			Auth:      authapi.NewHandler(db, cfg.JWTSecret, google),
			Content:   contentapi.NewHandler(svc),
			Revisions: revisionsapi.NewHandler(svc),
			Contact:   contactapi.NewHandler(db, dispatcher, cfg.SES.NotifyTo),
			Media:     mediaapi.NewHandler(db, mediaStore, cfg.Media.MaxBytes),
			Admin:     adminapi.NewHandler(db, svc.Store()),
		},
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("port", cfg.Port).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	if err := dispatcher.Close(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("notification queue not drained")
	}
}

// newStorage picks S3 when a bucket is configured. The returned directory is
// non-empty only for local storage, which the router then serves.
func newStorage(ctx context.Context, cfg *config.Config) (storage.Storage, string) {
	log := logger.L()
	if cfg.S3.Bucket != "" {
		s3Store, err := storage.NewS3(ctx, storage.S3Config{
			Endpoint:        cfg.S3.Endpoint,
			Region:          cfg.S3.Region,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			Bucket:          cfg.S3.Bucket,
			CDNURL:          cfg.S3.CDNURL,
			BasePath:        cfg.S3.BasePath,
			ForcePathStyle:  cfg.S3.ForcePathStyle,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("s3 init failed")
		}
		return s3Store, ""
	}

	local, err := storage.NewLocal(cfg.Media.UploadDir, cfg.Media.PublicURL)
	if err != nil {
		log.Fatal().Err(err).Msg("upload dir init failed")
	}
	log.Info().Str("dir", local.Root()).Msg("media stored on local disk")
	return local, local.Root()
}
