package dto

// VerifyTwoFactorRequest 二次验证请求
type VerifyTwoFactorRequest struct {
	Code     string `json:"code" binding:"required,max=10"`
	Password string `json:"password" binding:"max=255"`
}

// TwoFactorStatusResponse 是否需要二次验证
type TwoFactorStatusResponse struct {
	Required bool `json:"required"`
}

// ArticleNameResponse 条文标题
type ArticleNameResponse struct {
	Name string `json:"name"`
}
