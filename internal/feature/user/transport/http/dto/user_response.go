package dto

// UserRes は /api/user 系エンドポイントの成功レスポンスを表します。
// メールアドレス変更が保留中の場合、UserEmailには送信された新アドレスが入ります。
type UserRes struct {
	UserID    uint   `json:"userId"`
	UserName  string `json:"userName"`
	UserEmail string `json:"userEmail"`
}

// TokenRotateRes は POST /api/user/:id/token の成功レスポンスを表します。
type TokenRotateRes struct {
	APITokenSet bool   `json:"apiTokenSet"`
	APIToken    string `json:"apiToken,omitempty"`
}

// ErrorRes はエラーレスポンスの共通形式です。
type ErrorRes struct {
	Message string `json:"message"`
}

// MessageRes は確認エンドポイントなどの成功メッセージを表します。
type MessageRes struct {
	Message string `json:"message"`
}
