package usecase

import (
	"context"

	"account_backend/internal/feature/user/domain/entity"
)

// ConfirmCompletion は確認リンクの検証成功後に適用する状態遷移です。
// ひとつの検証フローを新規登録の確認とメールアドレス変更の確認の
// 両方で使い回すため、遷移内容はパラメーターとして渡します。
type ConfirmCompletion func(user *entity.User)

// MarkRegistrationVerified は新規登録の確認を完了させる遷移です。
// アカウントを確認済み（IsVerified=true）にします。再適用しても安全です。
func MarkRegistrationVerified(user *entity.User) {
	user.IsVerified = true
}

// PromoteUpdatedEmail はメールアドレス変更の確認を完了させる遷移です。
// PendingEmailをEmailに昇格させ、PendingEmailを確認済みセンチネルに戻します。
// 変更が保留されていない場合は何もしません。
func PromoteUpdatedEmail(user *entity.User) {
	if !user.EmailChangePending() {
		return
	}
	user.Email = user.PendingEmail
	user.PendingEmail = entity.PendingEmailConfirmed
}

// ConfirmEmail は署名付き確認リンクを検証し、成功時にcompletionを適用して永続化します。
//  1. ユーザーが存在しない場合はErrUserNotFound（検証失敗とは区別される）。
//  2. トークンはアカウントID・現在の確認済みメールアドレス・発行目的に
//     対して検証される。署名・有効期限のロジックはLinkVerifierに委譲する。
//  3. 検証失敗時はErrConfirmationInvalidを返し、アカウントは変更されない。
//
// 発行目的の照合により、登録確認リンクをメールアドレス変更の確認に
// 流用することはできません。昇格後は確認済みメールアドレスが変わるため、
// 同じリンクの再送も検証に失敗し、二重昇格は起こりません。
func (u *userUsecase) ConfirmEmail(ctx context.Context, id uint, token, purpose string, completion ConfirmCompletion) error {
	user, err := u.users.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := u.verifier.Verify(token, user.ID, user.Email, purpose); err != nil {
		return ErrConfirmationInvalid
	}

	completion(user)

	return u.users.Update(ctx, user)
}
