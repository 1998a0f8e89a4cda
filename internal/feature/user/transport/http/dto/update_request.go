package dto

// UpdateReq は PATCH /api/user/:id エンドポイントのリクエストボディを表します。
// 各フィールドは任意で、省略または空文字の場合は変更なしとして扱われます。
type UpdateReq struct {
	Email    string `json:"email" binding:"omitempty,email"`
	Name     string `json:"name"`
	Password string `json:"password" binding:"omitempty,min=8"`
}

// TokenRotateReq は POST /api/user/:id/token エンドポイントのリクエストボディを表します。
// ApiTokenに確認値"apiTokenSet"が設定された場合のみトークンを再発行します。
type TokenRotateReq struct {
	APIToken string `json:"apiToken" binding:"required"`
}
