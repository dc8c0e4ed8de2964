package models

// ScoreRequest is the body of POST /api/score_post.
type ScoreRequest struct {
	PostText    string   `json:"post_text"`
	Platform    Platform `json:"platform"`
	ImageBase64 string   `json:"image_base64,omitempty"` // Raw base64, no data URL prefix
}

// ScoreResponse is the success body of POST /api/score_post.
type ScoreResponse struct {
	Score              int    `json:"score"`
	Feedback           string `json:"feedback"`
	ContentSuggestions string `json:"content_suggestions,omitempty"`
}

// ErrorResponse is the failure body shared by every endpoint.
type ErrorResponse struct {
	Error string `json:"error"`
}
