package app

import (
	"context"
	"fmt"
	"net/http"

	"parish-site/internal/auth"
	"parish-site/internal/config"
	"parish-site/internal/content"
	"parish-site/internal/db"
	"parish-site/internal/media"
	"parish-site/internal/observability"
)

type Options struct {
	LoadDotEnv    bool
	RunMigrations bool
}

type Runtime struct {
	Handler http.Handler
	Close   func() error
	Config  *config.Config
	Logger  *observability.Logger
}

func Build(options Options) (*Runtime, error) {
	cfg, err := config.Load(config.Options{
		LoadDotEnv:           options.LoadDotEnv,
		RunMigrationsDefault: options.RunMigrations,
	})
	if err != nil {
		return nil, err
	}

	logger := observability.NewLogger()
	if cfg.UsingDevSecret {
		logger.Warn("jwt_dev_secret_in_use", map[string]any{
			"env":  cfg.Env,
			"hint": "set JWT_SECRET before exposing this server",
		})
	}

	if err := observability.InitSentry(cfg.SentryDSN, cfg.Env); err != nil {
		logger.Error("init_sentry_failed", map[string]any{"error": err.Error()})
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, db.PoolOptions{
		MaxConns:        cfg.DBMaxConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, err
	}

	if cfg.RunMigrations {
		if err := db.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL, nil)
	service := auth.NewService(auth.NewRepository(pool), auth.NewPasswordHasher(cfg.BcryptCost), tokens, logger, nil)

	created, err := service.BootstrapAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword, cfg.AdminName)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("bootstrap admin: %w", err)
	}
	if created {
		logger.Info("admin_bootstrapped", map[string]any{"email": cfg.AdminEmail})
	}

	store, uploadDir, err := mediaStore(cfg)
	if err != nil {
		pool.Close()
		return nil, err
	}

	limiter := auth.NewLoginRateLimiter(auth.RateLimitConfig{
		MaxAttempts:   cfg.LoginMaxAttempts,
		Window:        cfg.LoginWindow,
		SweepInterval: cfg.LoginSweepInterval,
		TrustProxy:    cfg.TrustProxyHeaders,
	}, nil)

	handler := NewRouter(Components{
		Logger:     logger,
		Service:    service,
		Limiter:    limiter,
		Content:    content.NewRepository(pool),
		MediaStore: store,
		UploadDir:  uploadDir,
		CronSecret: cfg.CronSecret,
		Database:   pool,
		TrustProxy: cfg.TrustProxyHeaders,
	})

	return &Runtime{
		Handler: handler,
		Config:  cfg,
		Logger:  logger,
		Close: func() error {
			limiter.Shutdown()
			pool.Close()
			observability.FlushSentry()
			return nil
		},
	}, nil
}

// mediaStore prefers Cloudinary when configured. Disk uploads are also
// served back, so only that branch returns a directory.
func mediaStore(cfg *config.Config) (media.Store, string, error) {
	if cfg.CloudinaryURL != "" {
		cloudinary, err := media.NewCloudinary(cfg.CloudinaryURL, "paroquia")
		if err != nil {
			return nil, "", fmt.Errorf("init cloudinary: %w", err)
		}
		return cloudinary, "", nil
	}

	disk, err := media.NewDiskStore(cfg.UploadDir)
	if err != nil {
		return nil, "", fmt.Errorf("init upload dir: %w", err)
	}
	return disk, disk.Dir(), nil
}
