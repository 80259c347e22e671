package model

// Category is one survey step. Position decides the order in which steps are shown.
type Category struct {
	Code          string `json:"code"`
	Label         string `json:"label"`
	Position      int    `json:"position"`
	QuestionCount int    `json:"question_count"`
}

// CreateCategoryRequest is the payload for adding a category.
type CreateCategoryRequest struct {
	Code     string `json:"code" binding:"required,min=1,max=32"`
	Label    string `json:"label" binding:"required,min=2,max=100"`
	Position int    `json:"position" binding:"required,min=1"`
}
