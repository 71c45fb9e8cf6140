package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/renningen-dev/bobbervox/internal/handler"
	"github.com/renningen-dev/bobbervox/internal/models"
	"github.com/renningen-dev/bobbervox/internal/service"
	"github.com/renningen-dev/bobbervox/pkg/backup"
	"github.com/renningen-dev/bobbervox/pkg/cache"
	"github.com/renningen-dev/bobbervox/pkg/config"
	"github.com/renningen-dev/bobbervox/pkg/dubbing"
	"github.com/renningen-dev/bobbervox/pkg/files"
	"github.com/renningen-dev/bobbervox/pkg/logger"
	"github.com/renningen-dev/bobbervox/pkg/media"
	"github.com/renningen-dev/bobbervox/pkg/metrics"
	"github.com/renningen-dev/bobbervox/pkg/middleware"
	"github.com/renningen-dev/bobbervox/pkg/search"
	"github.com/renningen-dev/bobbervox/pkg/storage"
	"github.com/renningen-dev/bobbervox/pkg/util"
)

func main() {
	root := &cobra.Command{
		Use:   "bobbervox",
		Short: "Video dubbing workflow backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "backup",
		Short: "Run one database backup and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return backupOnce()
		},
	})

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serve() error {
	if err := config.Load(); err != nil {
		return err
	}
	cfg := config.GlobalConfig

	if err := logger.Init(cfg.Log); err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}

	db, err := util.OpenDatabase(&gorm.Config{}, cfg.DBDriver, cfg.DSN)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(
		&models.Project{}, &models.Segment{},
		&models.UserSettings{}, &models.CustomVoice{},
	); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	store, err := cache.New(cache.Config{
		Type: cfg.CacheType,
		Redis: cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		},
		Local: cache.DefaultLocalConfig(),
	})
	if err != nil {
		return err
	}
	defer store.Close()

	var index *search.Index
	if cfg.SearchEnabled {
		index, err = search.Open(cfg.SearchPath)
		if err != nil {
			return fmt.Errorf("open search index: %w", err)
		}
		defer index.Close()
	}

	layout := files.NewLayout(cfg.ProjectsDir, cfg.AllowedVideoExtensions)
	adapter := media.New(cfg.FFmpegPath, cfg.FFprobePath)
	stats := metrics.New()

	providerLog := logrus.New()
	chatterbox := dubbing.NewChatterBoxClient(cfg.ChatterboxBaseURL, providerLog)

	settings := service.NewSettingsService(db, chatterbox, store)
	voices := service.NewCustomVoiceService(db, cfg.VoicesDir)
	projects := service.NewProjectService(db, layout, adapter, index)
	segments := service.NewSegmentService(
		db, layout, adapter, index, stats,
		settings, voices,
		func(apiKey string) dubbing.Analyzer { return dubbing.NewOpenAIAnalyzer(apiKey, providerLog) },
		func(apiKey string) dubbing.Synthesizer { return dubbing.NewOpenAISynthesizer(apiKey, providerLog) },
		chatterbox,
		cfg.OpenAIAPIKey,
	)

	var limiter *middleware.RateLimiter
	if cfg.RateLimit != "" {
		limiter = middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:       cfg.RateLimit,
			Identifier: "user",
			SkipPaths:  []string{"/metrics", cfg.APIPrefix + "/system/health"},
			AddHeaders: true,
		}, nil).WithObserver(rateLimitStats{m: stats})
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.Auth(middleware.AuthConfig{
		VerifyURL:   cfg.AuthVerifyURL,
		PublicPaths: []string{"/metrics", cfg.APIPrefix + "/system/health"},
		TokenCache:  store,
	}))
	engine.Use(middleware.AccessLog())
	engine.Use(metrics.Middleware(stats))
	if limiter != nil {
		engine.Use(limiter.Middleware())
	}
	engine.GET("/metrics", metrics.Handler())

	h := handlers.NewHandlers(
		db, layout,
		projects, segments, settings, voices,
		limiter, cfg.MaxUploadSizeBytes(),
	)
	h.Register(engine)

	if cfg.BackupEnabled {
		scheduler := backup.NewScheduler(backup.Config{
			Schedule: cfg.BackupSchedule,
			DBDriver: cfg.DBDriver,
			DSN:      cfg.DSN,
			Path:     cfg.BackupPath,
		})
		if offsite := minioStore(cfg); offsite != nil {
			scheduler = scheduler.WithOffsiteStore(offsite)
		}
		if err := scheduler.Start(); err != nil {
			return err
		}
		defer scheduler.Stop()
	}

	logger.Info("starting server", zap.String("addr", cfg.Addr))
	return engine.Run(cfg.Addr)
}

func backupOnce() error {
	if err := config.Load(); err != nil {
		return err
	}
	cfg := config.GlobalConfig
	if err := logger.Init(cfg.Log); err != nil {
		return err
	}
	defer logger.Sync()

	scheduler := backup.NewScheduler(backup.Config{
		Schedule: cfg.BackupSchedule,
		DBDriver: cfg.DBDriver,
		DSN:      cfg.DSN,
		Path:     cfg.BackupPath,
	})
	if offsite := minioStore(cfg); offsite != nil {
		scheduler = scheduler.WithOffsiteStore(offsite)
	}
	return scheduler.Run(context.Background())
}

// rateLimitStats adapts the metrics registry to the limiter's observer
// interface.
type rateLimitStats struct{ m *metrics.Metrics }

func (r rateLimitStats) OnRateLimitRejected() { r.m.RecordRateLimitRejection() }

func minioStore(cfg *config.Config) storage.Store {
	if cfg.MinioEndpoint == "" {
		return nil
	}
	offsite, err := storage.NewMinioStore(storage.MinioConfig{
		Endpoint:  cfg.MinioEndpoint,
		AccessKey: cfg.MinioAccessKey,
		SecretKey: cfg.MinioSecretKey,
		Bucket:    cfg.MinioBucket,
		UseSSL:    cfg.MinioUseSSL,
	})
	if err != nil {
		logger.Warn("offsite backup store unavailable", zap.Error(err))
		return nil
	}
	return offsite
}
