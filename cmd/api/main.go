package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"shop/internal/config"
	"shop/internal/handler"
	"shop/internal/infra/cache"
	"shop/internal/infra/db"
	"shop/internal/infra/event"
	infraRepo "shop/internal/infra/repository"
	"shop/internal/obs"
	"shop/internal/server"
	"shop/internal/usecase"
	auth "shop/internal/usecase/auth_usecase"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func run() error {
	//.envは無くてもよい
	config.LoadDotEnv(".env", "../.env")

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := obs.NewLogger(cfg.GoEnv, cfg.LogLevel)
	slog.SetDefault(logger)

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		return err
	}
	if err := db.Migrate(gormDB); err != nil {
		return err
	}

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	rtRepo := infraRepo.NewRefreshTokenRepository(gormDB)
	categoryRepo := infraRepo.NewCategoryGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	cartRepo := infraRepo.NewCartItemGormRepository(gormDB)
	reviewRepo := infraRepo.NewReviewGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)

	//ログイン回数制限。REDIS_ADDRが無ければ制限しない
	var limiter auth.LoginLimiter
	if cfg.RedisAddr != "" {
		rdb := cache.NewClient(cfg.RedisAddr)
		defer rdb.Close()
		limiter = cache.NewRedisLoginLimiter(rdb, cfg.LoginRateLimit, cache.DefaultLoginWindow)
	}

	//注文イベント。KAFKA_BROKERSが無ければ捨てる
	var publisher interface {
		usecase.OrderEventPublisher
		Close() error
	} = event.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = event.NewKafkaOrderPublisher(cfg.KafkaBrokers, cfg.KafkaOrderTopic)
	}
	defer publisher.Close()

	//usecaseに渡す部品
	clock := usecase.SystemClock{}
	hasher := auth.NewBcryptPasswordHasher(12)
	verifier := auth.NewBcryptPasswordVerifier()
	issuer := auth.NewJWTIssuer(cfg.JWTSecret, cfg.AccessTokenTTL)
	sessions := auth.NewSessionIssuer(rtRepo, issuer, auth.UUIDGenerator{}, cfg.RefreshTokenTTL)

	//Usecase生成
	registerUC := auth.NewRegisterUserUsecase(userRepo, hasher, sessions, auth.SystemClock{})
	loginUC := auth.NewLoginUsecase(userRepo, verifier, sessions, limiter, auth.SystemClock{}, logger)
	refreshUC := auth.NewRefreshUsecase(userRepo, rtRepo, sessions, auth.SystemClock{})

	userUC := usecase.NewUserUsecase(userRepo, rtRepo, hasher)
	categoryUC := usecase.NewCategoryUsecase(categoryRepo)
	productUC := usecase.NewProductUsecase(productRepo, categoryRepo, txm, clock)
	cartUC := usecase.NewCartUsecase(cartRepo, productRepo, clock)
	orderUC := usecase.NewOrderUsecase(txm, publisher, clock, logger)
	reviewUC := usecase.NewReviewUsecase(reviewRepo, productRepo, clock)
	auditUC := usecase.NewAuditLogUsecase(auditRepo)

	//Handler生成
	handlers := server.Handlers{
		Auth:         handler.NewAuthHandler(registerUC, loginUC, refreshUC, cfg.RefreshTokenTTL, cfg.IsProd()),
		User:         handler.NewUserHandler(userUC),
		Category:     handler.NewCategoryHandler(categoryUC),
		Product:      handler.NewProductHandler(productUC),
		AdminProduct: handler.NewAdminProductHandler(productUC),
		Cart:         handler.NewCartHandler(cartUC),
		Order:        handler.NewOrderHandler(orderUC),
		Review:       handler.NewReviewHandler(reviewUC),
		AuditLog:     handler.NewAuditLogHandler(auditUC),
	}

	e := server.New(logger)
	server.RegisterRoutes(e, cfg, userRepo, handlers)

	//Server起動
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.Start(ctx, e, cfg.Port, logger)
}
