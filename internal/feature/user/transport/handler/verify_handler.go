package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"account_backend/internal/feature/user/transport/http/dto"
	"account_backend/internal/feature/user/usecase"
)

// confirmEmail は確認リンクの共通処理です。purposeとcompletionで
// 検証対象の発行目的と遷移内容を切り替えます。
// メールのリンクから直接呼ばれるため、/api グループの認可は適用されません。
func (h *UserHandler) confirmEmail(c *gin.Context, purpose string, completion usecase.ConfirmCompletion, okMessage string) {
	id, err := strconv.ParseUint(c.Query("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, dto.ErrorRes{Message: "unknown account"})
		return
	}
	token := c.Query("token")

	err = h.users.ConfirmEmail(c.Request.Context(), uint(id), token, purpose, completion)
	switch {
	case err == nil:
		slog.Info("email confirmed", "user_id", id, "purpose", purpose)
		c.JSON(http.StatusOK, dto.MessageRes{Message: okMessage})
	case errors.Is(err, usecase.ErrUserNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorRes{Message: "unknown account"})
	case errors.Is(err, usecase.ErrConfirmationInvalid):
		slog.Warn("email confirmation rejected", "user_id", id, "purpose", purpose, "remote_addr", c.ClientIP())
		c.JSON(http.StatusForbidden, dto.ErrorRes{Message: "confirmation link is invalid or expired"})
	case errors.Is(err, usecase.ErrEmailAlreadyExists):
		// 確認待ちの間に別アカウントが同じアドレスを登録したケース
		slog.Warn("email promotion conflicted", "user_id", id, "purpose", purpose)
		c.JSON(http.StatusConflict, dto.ErrorRes{Message: "email address is no longer available"})
	default:
		slog.Error("email confirmation failed", "error", err, "user_id", id, "purpose", purpose)
		c.JSON(http.StatusInternalServerError, dto.ErrorRes{Message: "internal error"})
	}
}

// ConfirmRegistration は新規登録メールの確認エンドポイントを処理します。
// 検証成功時にアカウントを確認済み（IsVerified=true）にします。
func (h *UserHandler) ConfirmRegistration(c *gin.Context) {
	h.confirmEmail(c, usecase.NotifyRegistration, usecase.MarkRegistrationVerified, "email verified")
}

// ConfirmEmailUpdate はメールアドレス変更メールの確認エンドポイントを処理します。
// 検証成功時にPendingEmailをEmailに昇格させます。
func (h *UserHandler) ConfirmEmailUpdate(c *gin.Context) {
	h.confirmEmail(c, usecase.NotifyUpdate, usecase.PromoteUpdatedEmail, "email updated")
}
