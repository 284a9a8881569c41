// Точка входа Results Module — backend галереи результатов учеников.
// Загружает конфигурацию, подключается к PostgreSQL, применяет миграции,
// инициализирует S3-клиент, создаёт сервисный слой и API handlers,
// запускает topologymetrics, HTTP-сервер с JWT middleware и graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/bigkaa/goresultboard/internal/api/handlers"
	"github.com/bigkaa/goresultboard/internal/api/middleware"
	"github.com/bigkaa/goresultboard/internal/assetstore"
	"github.com/bigkaa/goresultboard/internal/config"
	"github.com/bigkaa/goresultboard/internal/database"
	"github.com/bigkaa/goresultboard/internal/repository"
	"github.com/bigkaa/goresultboard/internal/server"
	"github.com/bigkaa/goresultboard/internal/service"
)

func main() {
	// 0. .env для локальной разработки (в кластере переменные задаёт deployment)
	_ = godotenv.Load()

	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("Results Module запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
	)

	// Предупреждения о дефолтных значениях topologymetrics
	if os.Getenv("RM_DEPHEALTH_GROUP") == "" {
		logger.Warn("RM_DEPHEALTH_GROUP не задана, используется значение по умолчанию",
			slog.String("default", cfg.DephealthGroup),
		)
	}

	// 3. Применение миграций БД
	logger.Info("Применение миграций БД...")
	if err := database.Migrate(cfg, logger); err != nil {
		logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Подключение к PostgreSQL (pgxpool)
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// 4.1 Адаптер pgxpool → *sql.DB для topologymetrics (connection pool mode).
	// Проверка здоровья PostgreSQL будет идти через существующий пул соединений,
	// что позволяет обнаружить его исчерпание.
	pgDB := stdlib.OpenDBFromPool(pool)
	defer pgDB.Close()

	// 5. S3-клиент объектного хранилища
	assets, err := assetstore.New(ctx, assetstore.Options{
		Endpoint:  cfg.S3Endpoint,
		Region:    cfg.S3Region,
		Bucket:    cfg.S3Bucket,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		PublicURL: cfg.S3PublicURL,
	}, logger)
	if err != nil {
		logger.Error("Ошибка создания S3-клиента", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("S3-клиент создан",
		slog.String("endpoint", cfg.S3Endpoint),
		slog.String("bucket", cfg.S3Bucket),
	)

	// 6. Repositories
	resultRepo := repository.NewResultRepository(pool)
	adminUserRepo := repository.NewAdminUserRepository(pool)
	txRunner := repository.NewTxRunner(pool)

	// 7. Services
	resultsSvc := service.NewResultService(txRunner, resultRepo, assets, cfg.MaxUploadSize, logger)
	authSvc := service.NewAuthService(adminUserRepo, cfg.JWTSecret, cfg.JWTTTL, logger)

	// 8. Начальный администратор (если RM_ADMIN_EMAIL/RM_ADMIN_PASSWORD заданы)
	if err := authSvc.Bootstrap(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		logger.Error("Ошибка создания начального администратора", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 9. Readiness checkers (PostgreSQL + S3)
	pgChecker := database.NewReadinessChecker(pool)
	s3Checker := assetstore.NewReadinessChecker(assets)
	healthHandler := handlers.NewHealthHandler(pgChecker, s3Checker)

	// 10. API handler
	apiHandler := handlers.NewAPIHandler(
		healthHandler,
		resultsSvc,
		authSvc,
		cfg.MaxUploadSize,
		logger,
	)

	// 11. JWT middleware
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret, service.TokenIssuer, cfg.JWTLeeway, logger)
	logger.Info("JWT middleware инициализирован",
		slog.String("issuer", service.TokenIssuer),
		slog.String("ttl", cfg.JWTTTL.String()),
	)

	// 12. topologymetrics — мониторинг зависимостей (PostgreSQL + S3)
	var dephealthSvc *service.DephealthService
	dephealthSvc, dephealthErr := service.NewDephealthService(
		"results-module",
		cfg.DephealthGroup,
		pgDB,
		cfg.DatabaseURL(),
		cfg.S3Endpoint,
		cfg.DephealthCheckInterval,
		logger,
	)
	if dephealthErr != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", dephealthErr.Error()),
		)
	} else {
		if startErr := dephealthSvc.Start(ctx); startErr != nil {
			logger.Warn("Ошибка запуска topologymetrics",
				slog.String("error", startErr.Error()),
			)
		} else {
			logger.Info("topologymetrics запущен",
				slog.String("group", cfg.DephealthGroup),
				slog.String("check_interval", cfg.DephealthCheckInterval.String()),
			)
		}
	}

	// 13. Создание и запуск HTTP-сервера
	srv := server.New(cfg, logger, apiHandler, jwtAuth)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 14. Graceful shutdown фоновых задач
	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}

	logger.Info("Results Module остановлен")
}
