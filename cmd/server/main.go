package main

import (
	"log"

	redisv9 "github.com/redis/go-redis/v9"

	"account_backend/internal/app/router"
	useradapters "account_backend/internal/feature/user/adapters"
	userhandler "account_backend/internal/feature/user/transport/handler"
	userusecase "account_backend/internal/feature/user/usecase"
	"account_backend/internal/platform/cache"
	"account_backend/internal/platform/config"
	platformdb "account_backend/internal/platform/db"
	"account_backend/internal/platform/mailer"
	platformredis "account_backend/internal/platform/redis"
	"account_backend/internal/platform/verifylink"
)

func main() {
	// 設定（.env → 環境変数）
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	// db
	db := platformdb.OpenDB(cfg)

	// Redis
	var rdb *redisv9.Client
	if tmp, err := platformredis.NewRedisClient(cfg); err != nil {
		log.Println("[WARN] Redis unavailable. Running without cache.")
		rdb = nil
	} else {
		rdb = tmp
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Println("[ERROR] Failed to close Redis client:", err)
			}
		}()
	}

	// Repository
	userRepo := useradapters.NewUserMySQL(db)

	// Redisキャッシュでラップ（IDとAPIトークンの頻繁な参照を吸収する）
	cachedUserRepo := cache.NewCachingUserRepository(rdb, 0, userRepo, "users")

	// 確認リンクの署名・検証
	signer := verifylink.New(cfg.VerifySecret, cfg.VerifyTTL)

	// 通知メール（fire-and-forget）
	mail := mailer.New(signer, cfg.BaseURL, mailer.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})

	// Usecase
	userUC := userusecase.NewUserUsecase(cachedUserRepo, signer, mail)

	// Handler
	userH := userhandler.NewUserHandler(userUC)

	// ルータ生成（/api はAPIトークン+ROLE_APIで認可）
	router := router.NewRouter(userH, cachedUserRepo)

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
