// Package handler はuserフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"account_backend/internal/feature/user/domain/entity"
	"account_backend/internal/feature/user/transport/http/dto"
	"account_backend/internal/feature/user/usecase"
)

// UserUsecase はアカウントライフサイクル操作のユースケースを定義します。
// Goの慣例に従い、インターフェースはプロバイダー（usecase）ではなくコンシューマー（handler）が定義します。
type UserUsecase interface {
	// Register は指定されたメールアドレス・表示名・パスワードで新規ユーザーを登録します。
	Register(ctx context.Context, email, firstName, password string) (*entity.User, error)
	// GetByID はIDでユーザーを取得します。
	GetByID(ctx context.Context, id uint) (*entity.User, error)
	// EmailExists は指定されたメールアドレスのユーザーが存在するか確認します。
	EmailExists(ctx context.Context, email string) (bool, error)
	// UpdateProfile はプロフィールを部分更新します。
	UpdateProfile(ctx context.Context, id uint, in usecase.UpdateProfileInput) (*entity.User, error)
	// DeleteAccount はユーザーを完全に削除します。
	DeleteAccount(ctx context.Context, id uint) error
	// RotateAPIToken は確認値を伴う場合のみAPIトークンを再発行します。
	RotateAPIToken(ctx context.Context, user *entity.User, confirm string) (bool, error)
	// ConfirmEmail は署名付き確認リンクを発行目的に対して検証し、成功時にcompletionを適用します。
	ConfirmEmail(ctx context.Context, id uint, token, purpose string, completion usecase.ConfirmCompletion) error
}

// UserHandler はアカウント管理APIのHTTPリクエストを処理します。
// UserUsecaseインターフェースに依存し、JSONリクエスト/レスポンスを処理します。
type UserHandler struct {
	users UserUsecase
}

// NewUserHandler はUserHandlerの新しいインスタンスを生成します。
// 依存性注入用のコンストラクタで、外部からUserUsecaseを注入します。
func NewUserHandler(users UserUsecase) *UserHandler {
	return &UserHandler{users: users}
}

// parseID はパスパラメーターのidをuintに変換します。
func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

// userRes はユーザーをAPIレスポンス形式に射影します。
// 確認が完了するまで、外部に公開されるのは確認済みアドレスのみです。
func userRes(u *entity.User) dto.UserRes {
	return dto.UserRes{
		UserID:    u.ID,
		UserName:  u.FirstName,
		UserEmail: u.Email,
	}
}

// Register はユーザー登録APIエンドポイントを処理します。
// - リクエストJSONをRegisterReqにバインド
// - バリデーションエラー時は400を返却
// - メールアドレス重複時は403を返却（既存クライアント互換のため409ではなく403）
// - 成功時は201を返却
func (h *UserHandler) Register(c *gin.Context) {
	var req dto.RegisterReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("register validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, dto.ErrorRes{Message: "invalid request"})
		return
	}

	// 重複チェックは助言的なもの。チェックと作成の間のレースは
	// ストレージのユニーク制約が防ぎ、同じ403に写像される。
	exists, err := h.users.EmailExists(c.Request.Context(), req.Email)
	if err != nil {
		slog.Error("email existence check failed", "error", err, "email", req.Email)
		c.JSON(http.StatusInternalServerError, dto.ErrorRes{Message: "internal error"})
		return
	}
	if exists {
		c.JSON(http.StatusForbidden, dto.ErrorRes{Message: "user with this email already exists"})
		return
	}

	user, err := h.users.Register(c.Request.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		if errors.Is(err, usecase.ErrEmailAlreadyExists) {
			c.JSON(http.StatusForbidden, dto.ErrorRes{Message: "user with this email already exists"})
			return
		}
		slog.Error("user registration failed", "error", err, "email", req.Email, "remote_addr", c.ClientIP())
		c.JSON(http.StatusInternalServerError, dto.ErrorRes{Message: "internal error"})
		return
	}

	slog.Info("user registered", "user_id", user.ID, "email", user.Email, "remote_addr", c.ClientIP())
	c.JSON(http.StatusCreated, userRes(user))
}

// Get はユーザー取得APIエンドポイントを処理します。
// 存在しないIDの場合は404を返却します。
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		c.JSON(http.StatusNotFound, dto.ErrorRes{Message: "user with this id does not exist"})
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, usecase.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorRes{Message: "user with this id does not exist"})
			return
		}
		slog.Error("user lookup failed", "error", err, "user_id", id)
		c.JSON(http.StatusInternalServerError, dto.ErrorRes{Message: "internal error"})
		return
	}

	c.JSON(http.StatusOK, userRes(user))
}

// Update はプロフィール更新APIエンドポイントを処理します。
// このリクエストでメールアドレスを変更した場合に限り、レスポンスには
// 送信された新アドレスが入ります。保存済みの確認済みアドレスは
// 確認が完了するまで変わりません。
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		c.JSON(http.StatusNotFound, dto.ErrorRes{Message: "user with this id does not exist"})
		return
	}

	var req dto.UpdateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("update validation failed", "error", err, "user_id", id, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, dto.ErrorRes{Message: "invalid request"})
		return
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), id, usecase.UpdateProfileInput{
		Email:     req.Email,
		FirstName: req.Name,
		Password:  req.Password,
	})
	if err != nil {
		if errors.Is(err, usecase.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorRes{Message: "user with this id does not exist"})
			return
		}
		slog.Error("profile update failed", "error", err, "user_id", id)
		c.JSON(http.StatusInternalServerError, dto.ErrorRes{Message: "internal error"})
		return
	}

	slog.Info("profile updated", "user_id", user.ID, "email_change_pending", user.EmailChangePending())

	res := userRes(user)
	// このリクエストが保留にしたアドレスだけをエコーバックする
	if req.Email != "" && req.Email == user.PendingEmail {
		res.UserEmail = user.EffectiveEmail()
	}
	c.JSON(http.StatusOK, res)
}

// Delete はユーザー削除APIエンドポイントを処理します。
// 成功時は204（空ボディ）、存在しないIDの場合は404を返却します。
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		c.JSON(http.StatusNotFound, dto.ErrorRes{Message: "user with this id does not exist"})
		return
	}

	if err := h.users.DeleteAccount(c.Request.Context(), id); err != nil {
		if errors.Is(err, usecase.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorRes{Message: "user with this id does not exist"})
			return
		}
		slog.Error("user deletion failed", "error", err, "user_id", id)
		c.JSON(http.StatusInternalServerError, dto.ErrorRes{Message: "internal error"})
		return
	}

	slog.Info("user deleted", "user_id", id)
	c.Status(http.StatusNoContent)
}

// RotateToken はAPIトークン再発行エンドポイントを処理します。
// 確認値"apiTokenSet"が送信された場合のみ再発行し、新トークンを返します。
// 確認値がない場合は再発行せず、apiTokenSet=falseを返します。
func (h *UserHandler) RotateToken(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		c.JSON(http.StatusNotFound, dto.ErrorRes{Message: "user with this id does not exist"})
		return
	}

	var req dto.TokenRotateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("token rotation validation failed", "error", err, "user_id", id)
		c.JSON(http.StatusBadRequest, dto.ErrorRes{Message: "invalid request"})
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, usecase.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorRes{Message: "user with this id does not exist"})
			return
		}
		slog.Error("user lookup failed", "error", err, "user_id", id)
		c.JSON(http.StatusInternalServerError, dto.ErrorRes{Message: "internal error"})
		return
	}

	rotated, err := h.users.RotateAPIToken(c.Request.Context(), user, req.APIToken)
	if err != nil {
		slog.Error("api token rotation failed", "error", err, "user_id", id)
		c.JSON(http.StatusInternalServerError, dto.ErrorRes{Message: "internal error"})
		return
	}

	res := dto.TokenRotateRes{APITokenSet: rotated}
	if rotated {
		slog.Info("api token rotated", "user_id", id)
		res.APIToken = user.APIToken
	}
	c.JSON(http.StatusOK, res)
}
