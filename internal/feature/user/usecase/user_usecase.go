// Package usecase はuserフィーチャーのビジネスロジックを実装します。
package usecase

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"account_backend/internal/feature/user/domain/entity"

	"golang.org/x/crypto/bcrypt"
)

const (
	// minPasswordLength はパスワードの最低文字数を定義します。
	minPasswordLength = 8

	// apiTokenBytes はAPIトークンの乱数バイト数です（16進数で64文字になる）。
	apiTokenBytes = 32
)

// RotateConfirmValue はAPIトークン再発行を実行するための確認値です。
// この値を伴わない送信ではトークンは再発行されません。
const RotateConfirmValue = "apiTokenSet"

// 通知イベントの種別。メール送信のテンプレート選択と、確認リンクに
// 埋め込まれる発行目的の両方に使われます。
const (
	NotifyRegistration = "registration"
	NotifyUpdate       = "update"
)

// UserRepository はユーザーエンティティの永続化層を抽象化します。
// Goの慣例に従い、インターフェースはプロバイダー（adapters）ではなくコンシューマー（usecase）が定義します。
type UserRepository interface {
	// Create は新しいユーザーをストレージに永続化します。
	// 同じメールアドレスのユーザーが既に存在する場合、ErrEmailAlreadyExistsを返します。
	Create(ctx context.Context, user *entity.User) error

	// FindByID は指定されたIDに一致するユーザーを取得します。
	FindByID(ctx context.Context, id uint) (*entity.User, error)

	// FindByEmail は指定されたメールアドレスに一致するユーザーを取得します。
	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	// FindByAPIToken は指定されたAPIトークンを持つユーザーを取得します。
	FindByAPIToken(ctx context.Context, token string) (*entity.User, error)

	// ExistsByEmail は指定されたメールアドレスのユーザーが存在するか確認します。
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// Update は既存ユーザーの変更を永続化します。
	Update(ctx context.Context, user *entity.User) error

	// Delete は指定されたIDのユーザーを完全に削除します。
	// ユーザーが存在しない場合、ErrUserNotFoundを返します。
	Delete(ctx context.Context, id uint) error
}

// LinkVerifier は署名付き確認リンクの検証を抽象化します。
// 署名・有効期限のロジックはplatform/verifylinkが実装します。
type LinkVerifier interface {
	// Verify はトークンがアカウントID・現在の確認済みメールアドレス・
	// 発行目的に紐づいており、有効期限内であることを検証します。
	Verify(token string, userID uint, email, purpose string) error
}

// Notifier は通知メールの送出を抽象化します。
// 送出は fire-and-forget であり、呼び出し元の操作を失敗させてはいけません。
type Notifier interface {
	// Dispatch は指定ユーザー宛の通知イベントを非同期に送出します。
	Dispatch(user *entity.User, purpose string)
}

// UpdateProfileInput はプロフィール更新の入力です。
// 各フィールドは任意で、空文字の場合は変更なしとして扱われます。
type UpdateProfileInput struct {
	Email     string
	FirstName string
	Password  string
}

// userUsecase はアカウントライフサイクルのビジネスロジックを実装します。
type userUsecase struct {
	users    UserRepository
	verifier LinkVerifier
	notifier Notifier
}

// NewUserUsecase はuserUsecaseの新しいインスタンスを生成します。
func NewUserUsecase(users UserRepository, verifier LinkVerifier, notifier Notifier) *userUsecase {
	return &userUsecase{
		users:    users,
		verifier: verifier,
		notifier: notifier,
	}
}

// validatePassword はパスワードがセキュリティ要件を満たしているかチェックします。
func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters long", minPasswordLength)
	}
	return nil
}

// newAPIToken は予測不可能な64文字の16進数APIトークンを生成します。
func newAPIToken() (string, error) {
	b := make([]byte, apiTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate api token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Register はハッシュ化されたパスワードで新規ユーザーを登録します。
// 未確認状態・デフォルトロール・新規APIトークンでアカウントを作成し、
// 永続化後に登録通知イベントを非同期で送出します。
// メールアドレスの一意性はストレージ層のユニーク制約が最終的に保証します。
func (u *userUsecase) Register(ctx context.Context, email, firstName, password string) (*entity.User, error) {
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	token, err := newAPIToken()
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		Email:        email,
		PendingEmail: entity.PendingEmailConfirmed,
		FirstName:    firstName,
		PasswordHash: string(hashed),
		Roles:        []string{entity.RoleUser},
		IsVerified:   false,
		APIToken:     token,
	}
	if err := u.users.Create(ctx, user); err != nil {
		return nil, err
	}

	u.notifier.Dispatch(user, NotifyRegistration)

	return user, nil
}

// GetByID はIDでユーザーを取得します。副作用はありません。
func (u *userUsecase) GetByID(ctx context.Context, id uint) (*entity.User, error) {
	return u.users.FindByID(ctx, id)
}

// GetByEmail はメールアドレスでユーザーを取得します。副作用はありません。
func (u *userUsecase) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return u.users.FindByEmail(ctx, email)
}

// EmailExists は指定されたメールアドレスのユーザーが存在するか確認します。
// 登録前の重複チェックに使われますが、チェックと作成はアトミックではないため、
// 最終的な防衛はストレージのユニーク制約です。
func (u *userUsecase) EmailExists(ctx context.Context, email string) (bool, error) {
	return u.users.ExistsByEmail(ctx, email)
}

// UpdateProfile はプロフィールを部分更新します。各フィールドは独立して、
// 指定があり・空でなく・現在値と異なる場合のみ適用されます。
//   - メールアドレスの変更はEmailを直接上書きせず、PendingEmailに保存して
//     確認リンク付きの更新通知イベントを送出します。確認が完了するまで
//     外部に見えるEmailは旧アドレスのままです。
//   - 表示名の変更は即時に適用・永続化されます。
//   - パスワードの変更は再ハッシュして即時に永続化されます。
func (u *userUsecase) UpdateProfile(ctx context.Context, id uint, in UpdateProfileInput) (*entity.User, error) {
	user, err := u.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	changed := false

	if in.Email != "" && in.Email != user.Email {
		user.PendingEmail = in.Email
		changed = true
	}

	if in.FirstName != "" && in.FirstName != user.FirstName {
		user.FirstName = in.FirstName
		changed = true
	}

	if in.Password != "" {
		// パスワードの検証・ハッシュ化・永続化はRotatePasswordに委譲する。
		// ここまでに適用したフィールド変更も同じ保存で永続化される。
		if err := u.RotatePassword(ctx, user, in.Password); err != nil {
			return nil, err
		}
	} else if changed {
		if err := u.users.Update(ctx, user); err != nil {
			return nil, err
		}
	}

	// 確認リンクの送出は永続化後に行う。送出の失敗は更新を失敗させない。
	if user.EmailChangePending() && in.Email != "" && in.Email == user.PendingEmail {
		u.notifier.Dispatch(user, NotifyUpdate)
	}

	return user, nil
}

// DeleteAccount は指定されたIDのユーザーを完全に削除します（論理削除なし）。
func (u *userUsecase) DeleteAccount(ctx context.Context, id uint) error {
	return u.users.Delete(ctx, id)
}

// RotatePassword は新しいパスワードをハッシュ化して永続化します。
// 認証プリンシパルは多態であるため、アカウント以外のプリンシパルが
// 渡された場合はErrUnsupportedPrincipalを返します。
func (u *userUsecase) RotatePassword(ctx context.Context, principal any, newPassword string) error {
	user, ok := principal.(*entity.User)
	if !ok {
		return fmt.Errorf("%w: %T", ErrUnsupportedPrincipal, principal)
	}

	if err := validatePassword(newPassword); err != nil {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user.PasswordHash = string(hashed)
	return u.users.Update(ctx, user)
}

// RotateAPIToken は確認値を伴う場合のみ新しいAPIトークンを発行します。
// 確認値がRotateConfirmValueと一致しない場合は何もせずfalseを返します。
func (u *userUsecase) RotateAPIToken(ctx context.Context, user *entity.User, confirm string) (bool, error) {
	if confirm != RotateConfirmValue {
		return false, nil
	}

	token, err := newAPIToken()
	if err != nil {
		return false, err
	}

	user.APIToken = token
	if err := u.users.Update(ctx, user); err != nil {
		return false, err
	}
	return true, nil
}
