package router

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"account_backend/internal/feature/user/domain/entity"
	userhandler "account_backend/internal/feature/user/transport/handler"
	"account_backend/internal/platform/apitoken"
	platformhandler "account_backend/internal/platform/http/handler"
)

func NewRouter(users *userhandler.UserHandler, auth apitoken.UserAuthenticator) *gin.Engine {
	r := gin.Default()
	r.Use(cors.Default())

	// 認証不要
	// 導通確認用
	r.GET("/healthz", platformhandler.Health)
	// メール確認リンク（メールから直接クリックされる）
	// 新規登録の確認
	r.GET("/verify/email", users.ConfirmRegistration)
	// メールアドレス変更の確認
	r.GET("/verify/email-update", users.ConfirmEmailUpdate)

	// 認可必須のルート
	// r.Group("/api") でルートグループを作成
	api := r.Group("/api")
	// apitoken.RequireRole() ミドルウェアを適用
	// → BearerのAPIトークンとROLE_APIロールが必要になる
	api.Use(apitoken.RequireRole(auth, entity.RoleAPI))
	{
		api.POST("/user", users.Register)
		api.GET("/user/:id", users.Get)
		api.PATCH("/user/:id", users.Update)
		api.DELETE("/user/:id", users.Delete)
		api.POST("/user/:id/token", users.RotateToken)
	}

	return r
}
